package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"food-checkout/internal/domain"
	"strings"
)

type RestaurantRepo interface {
	FindById(ctx context.Context, id string) (*domain.Restaurant, error)
	FindAll(ctx context.Context) ([]domain.Restaurant, error)
	Filter(ctx context.Context, f domain.RestaurantFilter) ([]domain.Restaurant, error)
	Upsert(ctx context.Context, r *domain.Restaurant) error
}

type restaurantRepo struct {
	db *sql.DB
}

func NewRestaurantRepo(db *sql.DB) RestaurantRepo {
	return &restaurantRepo{db: db}
}

func (r *restaurantRepo) FindById(ctx context.Context, id string) (*domain.Restaurant, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx, "SELECT doc FROM restaurants WHERE id = $1", id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}
	var rest domain.Restaurant
	if err := json.Unmarshal(doc, &rest); err != nil {
		return nil, fmt.Errorf("unmarshal restaurant %s: %w", id, err)
	}
	return &rest, nil
}

func (r *restaurantRepo) FindAll(ctx context.Context) ([]domain.Restaurant, error) {
	return r.query(ctx, "SELECT doc FROM restaurants ORDER BY id")
}

// Filter builds the WHERE clause from the non-zero fields of f.
func (r *restaurantRepo) Filter(ctx context.Context, f domain.RestaurantFilter) ([]domain.Restaurant, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Location != "" {
		where = append(where, "lower(doc->>'location') = lower("+arg(f.Location)+")")
	}
	if len(f.Cuisines) > 0 {
		where = append(where, "doc->'cuisines' ?| "+arg(f.Cuisines))
	}
	if f.MaxCost != nil {
		where = append(where, "(doc->>'costForTwo')::numeric <= "+arg(f.MaxCost.String())+"::numeric")
	}

	var b strings.Builder
	b.WriteString("SELECT doc FROM restaurants")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	switch f.Sort {
	case domain.SortCostDesc:
		b.WriteString(" ORDER BY (doc->>'costForTwo')::numeric DESC, id")
	case domain.SortCostAsc:
		b.WriteString(" ORDER BY (doc->>'costForTwo')::numeric ASC, id")
	default:
		b.WriteString(" ORDER BY id")
	}
	if f.Limit > 0 {
		b.WriteString(" LIMIT " + arg(f.Limit))
		if f.Page > 1 {
			b.WriteString(" OFFSET " + arg((f.Page-1)*f.Limit))
		}
	}

	return r.query(ctx, b.String(), args...)
}

func (r *restaurantRepo) Upsert(ctx context.Context, rest *domain.Restaurant) error {
	doc, err := json.Marshal(rest)
	if err != nil {
		return fmt.Errorf("marshal restaurant %s: %w", rest.ID, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO restaurants (id, doc) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`,
		rest.ID, doc,
	)
	return err
}

func (r *restaurantRepo) query(ctx context.Context, query string, args ...any) ([]domain.Restaurant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	restaurants := []domain.Restaurant{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var rest domain.Restaurant
		if err := json.Unmarshal(doc, &rest); err != nil {
			return nil, err
		}
		restaurants = append(restaurants, rest)
	}
	return restaurants, rows.Err()
}
