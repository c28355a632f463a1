package notify

import (
	"context"
	"food-checkout/internal/infrastructure/events"
	"time"

	"github.com/google/uuid"
)

// OtpRequested is consumed by the notification service, which owns the
// actual mail templates.
type OtpRequested struct {
	EventID   string    `json:"event_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Code      int       `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type kafkaNotifier struct {
	publisher events.Publisher
	topic     string
}

func NewKafkaNotifier(publisher events.Publisher, topic string) Notifier {
	return &kafkaNotifier{publisher: publisher, topic: topic}
}

func (n *kafkaNotifier) SendOTP(ctx context.Context, email, name string, code int, expiresAt time.Time) error {
	return events.PublishJSON(ctx, n.publisher, n.topic, email, OtpRequested{
		EventID:   uuid.NewString(),
		Email:     email,
		Name:      name,
		Code:      code,
		ExpiresAt: expiresAt,
	})
}
