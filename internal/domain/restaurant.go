package domain

import "github.com/shopspring/decimal"

type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
}

type Restaurant struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Location   string          `json:"location"`
	Cuisines   []string        `json:"cuisines"`
	CostForTwo decimal.Decimal `json:"costForTwo"`
	Rating     float64         `json:"rating"`
	ImageURL   string          `json:"imageUrl,omitempty"`
	Menu       []MenuItem      `json:"menu"`
}

func (r *Restaurant) MenuItem(id string) (MenuItem, bool) {
	for _, m := range r.Menu {
		if m.ID == id {
			return m, true
		}
	}
	return MenuItem{}, false
}

type SortOrder string

const (
	SortCostAsc  SortOrder = "asc"
	SortCostDesc SortOrder = "desc"
)

type RestaurantFilter struct {
	Location string
	Cuisines []string
	MaxCost  *decimal.Decimal
	Sort     SortOrder
	Page     int
	Limit    int
}
