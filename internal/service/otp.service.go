package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"food-checkout/internal/config"
	"food-checkout/internal/domain"
	"food-checkout/internal/infrastructure/notify"
	"food-checkout/internal/metrics"
	"food-checkout/internal/repo"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type OtpService interface {
	Issue(ctx context.Context, email, name string) (string, error)
	Verify(ctx context.Context, email string, code int) (string, error)
}

type otpService struct {
	db       *sql.DB
	otpRepo  repo.OtpRepo
	notifier notify.Notifier
	cfg      config.OTP
	generate CodeGenerator
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

type OtpOption func(*otpService)

func WithCodeGenerator(g CodeGenerator) OtpOption {
	return func(s *otpService) { s.generate = g }
}

func WithOtpClock(now func() time.Time) OtpOption {
	return func(s *otpService) { s.now = now }
}

func NewOtpService(
	db *sql.DB,
	otpRepo repo.OtpRepo,
	notifier notify.Notifier,
	cfg config.OTP,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts ...OtpOption,
) OtpService {
	s := &otpService{
		db:       db,
		otpRepo:  otpRepo,
		notifier: notifier,
		cfg:      cfg,
		generate: RandomCode,
		now:      time.Now,
		metrics:  m,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue stores a fresh code for email, replacing any previous one, and hands
// it to the notifier. A delivery failure is reported but the stored code
// stays valid.
func (s *otpService) Issue(ctx context.Context, email, name string) (string, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)

	prev, err := s.otpRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("load otp: %w", err)
	}

	code, err := s.newCode(prev)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	rec := domain.NewOtpRecord(email, code, s.now(), s.cfg.TTL)
	if err := s.otpRepo.Upsert(ctx, rec); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, email, name, code, rec.ExpiresAt); err != nil {
		s.metrics.OtpIssued.WithLabelValues("delivery_failed").Inc()
		s.logger.Error("Failed to deliver OTP",
			zap.String("email", email),
			zap.Error(err))
		return "", &domain.Error{
			Kind:    domain.ErrDelivery,
			Message: "Could not send the OTP email, try resending",
		}
	}

	s.metrics.OtpIssued.WithLabelValues("sent").Inc()
	s.logger.Info("OTP issued",
		zap.String("email", email),
		zap.Time("expires_at", rec.ExpiresAt))

	return fmt.Sprintf("OTP sent to %s", email), nil
}

// newCode avoids handing out the code that is being replaced, so a stale
// code can never verify after a resend.
func (s *otpService) newCode(prev *domain.OtpRecord) (int, error) {
	for i := 0; i < 5; i++ {
		code, err := s.generate(s.cfg.Length)
		if err != nil {
			return 0, err
		}
		if prev == nil || prev.Code != code {
			return code, nil
		}
	}
	return 0, errors.New("code generator keeps repeating the previous code")
}

func (s *otpService) Verify(ctx context.Context, email string, code int) (string, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	rec, err := s.otpRepo.FindForUpdate(ctx, tx, email)
	if err != nil {
		return "", fmt.Errorf("load otp: %w", err)
	}
	if rec == nil {
		s.metrics.OtpVerified.WithLabelValues("not_found").Inc()
		return "", domain.Errorf(domain.ErrOtpNotFound, "No active OTP for %s, request a new one", email)
	}

	now := s.now()
	if err := rec.Check(code, now); err != nil {
		s.metrics.OtpVerified.WithLabelValues(verifyResult(err)).Inc()
		s.logger.Info("OTP rejected",
			zap.String("email", email),
			zap.Error(err))
		return "", err
	}

	rec.MarkConsumed(now)
	if err := s.otpRepo.MarkConsumed(ctx, tx, rec); err != nil {
		return "", fmt.Errorf("consume otp: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	s.metrics.OtpVerified.WithLabelValues("verified").Inc()
	s.logger.Info("OTP verified", zap.String("email", email))
	return "OTP verified successfully", nil
}

func verifyResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrOtpExpired):
		return "expired"
	case errors.Is(err, domain.ErrOtpMismatch):
		return "mismatch"
	case errors.Is(err, domain.ErrOtpAlreadyConsumed):
		return "consumed"
	}
	return "error"
}

var validate = validator.New()

// NormalizeEmail trims and lower-cases email so one diner maps to one OTP
// row. Handlers already enforce the format through binding tags.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", domain.Errorf(domain.ErrValidation, "Email is required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", domain.Errorf(domain.ErrValidation, "%q is not a valid email address", email)
	}
	return email, nil
}
