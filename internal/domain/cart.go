package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// prices travel as JSON numbers, matching what the web client sends
	decimal.MarshalJSONWithoutQuotes = true
}

// ItemID accepts both JSON strings and numbers; menu ids from the web
// client arrive as either.
type ItemID string

func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

type CartItem struct {
	ID        ItemID          `json:"id" binding:"required"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" binding:"gt=0"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i CartItem) Validate() error {
	if strings.TrimSpace(string(i.ID)) == "" {
		return Errorf(ErrValidation, "item id is required")
	}
	if i.Quantity <= 0 {
		return Errorf(ErrValidation, "quantity of %q must be positive", i.Name)
	}
	if i.UnitPrice.IsNegative() {
		return Errorf(ErrValidation, "price of %q must not be negative", i.Name)
	}
	return nil
}

type Cart []CartItem

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Count is the number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, item := range c {
		n += item.Quantity
	}
	return n
}

func (c Cart) Validate() error {
	if len(c) == 0 {
		return Errorf(ErrValidation, "order has no items")
	}
	for _, item := range c {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}
