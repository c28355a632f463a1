package worker

import (
	"context"
	"food-checkout/internal/repo"
	"time"

	"go.uber.org/zap"
)

// OtpSweeper deletes codes that can no longer verify or authorize an order.
// Expired rows are already unusable; sweeping only keeps the table small.
type OtpSweeper struct {
	otpRepo        repo.OtpRepo
	interval       time.Duration
	verifiedWindow time.Duration
	now            func() time.Time
	logger         *zap.Logger
}

func NewOtpSweeper(
	otpRepo repo.OtpRepo,
	interval time.Duration,
	verifiedWindow time.Duration,
	logger *zap.Logger,
) *OtpSweeper {
	return &OtpSweeper{
		otpRepo:        otpRepo,
		interval:       interval,
		verifiedWindow: verifiedWindow,
		now:            time.Now,
		logger:         logger,
	}
}

func (w *OtpSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("OTP sweeper started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				w.logger.Error("OTP sweep failed", zap.Error(err))
			}
		}
	}
}

func (w *OtpSweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := w.otpRepo.DeleteExpired(ctx, w.now(), w.verifiedWindow)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		w.logger.Info("Swept dead OTPs", zap.Int64("count", n))
	}
	return n, nil
}
