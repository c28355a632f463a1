// Package notify delivers one-time passcodes to diners.
package notify

import (
	"context"
	"fmt"
	"food-checkout/internal/config"
	"food-checkout/internal/infrastructure/events"
	"time"

	"go.uber.org/zap"
)

type Notifier interface {
	SendOTP(ctx context.Context, email, name string, code int, expiresAt time.Time) error
}

// New picks the backend named by cfg.Notifier.
func New(cfg *config.Config, producer events.Publisher, logger *zap.Logger) (Notifier, error) {
	switch cfg.Notifier {
	case "smtp":
		return NewSMTPNotifier(cfg.SMTP)
	case "kafka":
		return NewKafkaNotifier(producer, cfg.OtpTopic), nil
	case "log":
		return NewLogNotifier(logger), nil
	}
	return nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
}

func greeting(name string) string {
	if name == "" {
		return "Hello"
	}
	return "Hello " + name
}

func body(name string, code int, expiresAt time.Time) string {
	return fmt.Sprintf(
		"%s,\n\nYour one-time passcode is %d.\nIt expires at %s.\n\nIf you did not try to place an order, ignore this email.\n",
		greeting(name), code, expiresAt.UTC().Format(time.Kitchen+" MST"),
	)
}
