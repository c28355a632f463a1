package service

import (
	"context"
	"encoding/json"
	"fmt"
	"food-checkout/internal/domain"
	"food-checkout/internal/repo"
	"os"

	"go.uber.org/zap"
)

type RestaurantService interface {
	Get(ctx context.Context, id string) (*domain.Restaurant, error)
	All(ctx context.Context) ([]domain.Restaurant, error)
	Filter(ctx context.Context, f domain.RestaurantFilter) ([]domain.Restaurant, error)
	SeedFromFile(ctx context.Context, path string) (int, error)
}

type restaurantService struct {
	restaurantRepo repo.RestaurantRepo
	logger         *zap.Logger
}

func NewRestaurantService(restaurantRepo repo.RestaurantRepo, logger *zap.Logger) RestaurantService {
	return &restaurantService{restaurantRepo: restaurantRepo, logger: logger}
}

func (s *restaurantService) Get(ctx context.Context, id string) (*domain.Restaurant, error) {
	if id == "" {
		return nil, domain.Errorf(domain.ErrValidation, "Restaurant id is required")
	}
	r, err := s.restaurantRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.Errorf(domain.ErrRestaurantNotFound, "Restaurant %s not found", id)
	}
	return r, nil
}

func (s *restaurantService) All(ctx context.Context) ([]domain.Restaurant, error) {
	return s.restaurantRepo.FindAll(ctx)
}

const maxPageSize = 100

func (s *restaurantService) Filter(ctx context.Context, f domain.RestaurantFilter) ([]domain.Restaurant, error) {
	switch f.Sort {
	case "", domain.SortCostAsc, domain.SortCostDesc:
	default:
		return nil, domain.Errorf(domain.ErrValidation, "sort must be asc or desc")
	}
	if f.Limit <= 0 || f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.MaxCost != nil && f.MaxCost.IsNegative() {
		return nil, domain.Errorf(domain.ErrValidation, "maxCost must not be negative")
	}
	return s.restaurantRepo.Filter(ctx, f)
}

// SeedFromFile upserts every restaurant of a JSON array file.
func (s *restaurantService) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var restaurants []domain.Restaurant
	if err := json.Unmarshal(data, &restaurants); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	for i := range restaurants {
		if err := s.restaurantRepo.Upsert(ctx, &restaurants[i]); err != nil {
			return i, err
		}
	}
	s.logger.Info("Seeded restaurants", zap.String("file", path), zap.Int("count", len(restaurants)))
	return len(restaurants), nil
}
