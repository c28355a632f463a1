package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxRecord struct {
	ID        int64
	EventID   uuid.UUID
	Topic     string
	Key       string
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}
