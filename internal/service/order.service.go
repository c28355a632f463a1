package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"food-checkout/internal/config"
	"food-checkout/internal/domain"
	"food-checkout/internal/metrics"
	"food-checkout/internal/repo"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (*domain.PlaceOrderResult, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

type orderService struct {
	db         *sql.DB
	orderRepo  repo.OrderRepo
	otpRepo    repo.OtpRepo
	outboxRepo repo.OutboxRepo
	orderTopic string
	window     time.Duration
	now        func() time.Time
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

type OrderOption func(*orderService)

func WithOrderClock(now func() time.Time) OrderOption {
	return func(s *orderService) { s.now = now }
}

func NewOrderService(
	db *sql.DB,
	orderRepo repo.OrderRepo,
	otpRepo repo.OtpRepo,
	outboxRepo repo.OutboxRepo,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *zap.Logger,
	opts ...OrderOption,
) OrderService {
	s := &orderService{
		db:         db,
		orderRepo:  orderRepo,
		otpRepo:    otpRepo,
		outboxRepo: outboxRepo,
		orderTopic: cfg.OrderTopic,
		window:     cfg.OTP.VerifiedWindow,
		now:        time.Now,
		metrics:    m,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder persists an order backed by a verified OTP. The OTP row is locked
// for the whole transaction and marked redeemed, so a duplicate submit waits
// for the first one and then fails with ErrUnverified.
func (s *orderService) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (*domain.PlaceOrderResult, error) {
	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, domain.Errorf(domain.ErrValidation, "Add your address for delivery")
	}
	if err := req.Items.Validate(); err != nil {
		return nil, err
	}

	total := req.Items.Total()
	if !total.Equal(req.TotalCost) {
		s.logger.Warn("Client total does not match items, using recomputed total",
			zap.String("email", email),
			zap.String("claimed_total", req.TotalCost.String()),
			zap.String("total", total.String()))
	}

	now := s.now()
	order := &domain.Order{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  strings.TrimSpace(req.Name),
		Address:      address,
		Items:        req.Items,
		TotalCost:    total,
		ClaimedTotal: req.TotalCost,
		PlacedAt:     now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec, err := s.otpRepo.FindForUpdate(ctx, tx, email)
	if err != nil {
		return nil, fmt.Errorf("load otp: %w", err)
	}
	if rec == nil {
		return nil, domain.Errorf(domain.ErrUnverified, "Verify the OTP sent to %s first", email)
	}
	if err := rec.CanAuthorizeOrder(now, s.window); err != nil {
		s.logger.Info("Order rejected",
			zap.String("email", email),
			zap.Error(err))
		return nil, err
	}

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	if err := s.otpRepo.MarkRedeemed(ctx, tx, email, now); err != nil {
		return nil, fmt.Errorf("redeem otp: %w", err)
	}
	if err := s.enqueuePlaced(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("enqueue order event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.metrics.OrdersPlaced.Inc()
	s.metrics.OrderTotal.Observe(total.InexactFloat64())
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("email", email),
		zap.String("total_cost", total.String()),
		zap.Int("items", len(order.Items)))

	return &domain.PlaceOrderResult{
		Message: fmt.Sprintf("Order placed successfully. Total %s will be collected on delivery.", total.StringFixed(2)),
		OrderID: order.ID,
	}, nil
}

func (s *orderService) enqueuePlaced(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	eventID := uuid.New()
	payload, err := json.Marshal(domain.OrderPlacedEvent{
		EventID:   eventID.String(),
		OrderID:   order.ID.String(),
		Email:     order.Email,
		Address:   order.Address,
		Items:     order.Items,
		TotalCost: order.TotalCost,
		PlacedAt:  order.PlacedAt,
	})
	if err != nil {
		return err
	}
	return s.outboxRepo.Insert(ctx, tx, &domain.OutboxRecord{
		EventID: eventID,
		Topic:   s.orderTopic,
		Key:     order.ID.String(),
		Payload: payload,
	})
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.FindById(ctx, id)
}
