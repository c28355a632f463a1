package handler

import (
	"food-checkout/internal/domain"
	"food-checkout/internal/service"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RestaurantHandler struct {
	restaurantService service.RestaurantService
	logger            *zap.Logger
}

func NewRestaurantHandler(restaurantService service.RestaurantService, logger *zap.Logger) *RestaurantHandler {
	return &RestaurantHandler{restaurantService: restaurantService, logger: logger}
}

func (h *RestaurantHandler) GetRestaurant(c *gin.Context) {
	r, err := h.restaurantService.Get(c.Request.Context(), c.Query("id"))
	if err != nil {
		respondError(c, h.logger, err, "Failed to load restaurant")
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RestaurantHandler) AllRestaurants(c *gin.Context) {
	rs, err := h.restaurantService.All(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to load restaurants")
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (h *RestaurantHandler) Filter(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: err.Error()})
		return
	}

	rs, err := h.restaurantService.Filter(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err, "Failed to filter restaurants")
		return
	}
	c.JSON(http.StatusOK, rs)
}

// parseFilter reads location, cuisine (repeatable or comma separated),
// maxCost, sort, page and limit.
func parseFilter(c *gin.Context) (domain.RestaurantFilter, error) {
	f := domain.RestaurantFilter{
		Location: strings.TrimSpace(c.Query("location")),
		Sort:     domain.SortOrder(strings.ToLower(c.Query("sort"))),
	}
	for _, v := range c.QueryArray("cuisine") {
		for _, cuisine := range strings.Split(v, ",") {
			if cuisine = strings.TrimSpace(cuisine); cuisine != "" {
				f.Cuisines = append(f.Cuisines, cuisine)
			}
		}
	}
	if v := c.Query("maxCost"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, domain.Errorf(domain.ErrValidation, "maxCost must be a number")
		}
		f.MaxCost = &d
	}
	var err error
	if f.Page, err = intQuery(c, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = intQuery(c, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func intQuery(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, domain.Errorf(domain.ErrValidation, "%s must be a non-negative integer", key)
	}
	return n, nil
}
