package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// logNotifier writes the code to the log. Development only.
type logNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) SendOTP(ctx context.Context, email, name string, code int, expiresAt time.Time) error {
	n.logger.Info("OTP issued",
		zap.String("email", email),
		zap.String("name", name),
		zap.Int("code", code),
		zap.Time("expires_at", expiresAt))
	return nil
}
