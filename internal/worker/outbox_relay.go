package worker

import (
	"context"
	"food-checkout/internal/infrastructure/events"
	"food-checkout/internal/repo"
	"time"

	"go.uber.org/zap"
)

// OutboxRelay publishes events committed alongside orders. Delivery is
// at-least-once: a crash between publish and MarkSent republishes the row,
// and consumers dedupe on event_id.
type OutboxRelay struct {
	outboxRepo repo.OutboxRepo
	publisher  events.Publisher
	interval   time.Duration
	batch      int
	logger     *zap.Logger
}

func NewOutboxRelay(
	outboxRepo repo.OutboxRepo,
	publisher events.Publisher,
	interval time.Duration,
	batch int,
	logger *zap.Logger,
) *OutboxRelay {
	return &OutboxRelay{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		interval:   interval,
		batch:      batch,
		logger:     logger,
	}
}

func (w *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Outbox relay started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Relay(ctx); err != nil {
				w.logger.Error("Outbox relay failed", zap.Error(err))
			}
		}
	}
}

// Relay sends one batch and returns how many rows were marked sent. It stops
// at the first publish failure to keep per-key ordering.
func (w *OutboxRelay) Relay(ctx context.Context) (int, error) {
	pending, err := w.outboxRepo.FetchPending(ctx, w.batch)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, rec := range pending {
		if err := w.publisher.Publish(ctx, rec.Topic, rec.Key, rec.Payload); err != nil {
			w.logger.Warn("Publish failed, will retry next tick",
				zap.Int64("outbox_id", rec.ID),
				zap.String("event_id", rec.EventID.String()),
				zap.Error(err))
			return sent, nil
		}
		if err := w.outboxRepo.MarkSent(ctx, rec.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}
