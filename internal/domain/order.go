package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID           uuid.UUID       `json:"id"`
	Email        string          `json:"email"`
	DisplayName  string          `json:"name"`
	Address      string          `json:"address"`
	Items        Cart            `json:"items"`
	TotalCost    decimal.Decimal `json:"totalCost"`
	ClaimedTotal decimal.Decimal `json:"claimedTotal"`
	PlacedAt     time.Time       `json:"placedAt"`
}

type PlaceOrderRequest struct {
	Email     string          `json:"email" binding:"required,email"`
	Name      string          `json:"name"`
	Address   string          `json:"address" binding:"required"`
	TotalCost decimal.Decimal `json:"totalCost"`
	Items     Cart            `json:"order" binding:"required,min=1,dive"`
}

type PlaceOrderResult struct {
	Message string    `json:"message"`
	OrderID uuid.UUID `json:"orderId"`
}

// OrderPlacedEvent is written to the outbox together with the order.
type OrderPlacedEvent struct {
	EventID   string          `json:"event_id"`
	OrderID   string          `json:"order_id"`
	Email     string          `json:"email"`
	Address   string          `json:"address"`
	Items     Cart            `json:"items"`
	TotalCost decimal.Decimal `json:"total_cost"`
	PlacedAt  time.Time       `json:"placed_at"`
}
