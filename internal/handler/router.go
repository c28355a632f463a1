package handler

import (
	"context"
	"food-checkout/internal/metrics"
	"food-checkout/internal/middleware"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// HealthChecker is satisfied by database.Service.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type RouterConfig struct {
	Otp            *OtpHandler
	Orders         *OrderHandler
	Restaurants    *RestaurantHandler
	Health         HealthChecker
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	CORSOrigins    []string
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	api := router.Group("/api")
	{
		api.POST("/createotp", cfg.Otp.CreateOtp)
		api.POST("/verifyotp", cfg.Otp.VerifyOtp)
		api.POST("/placeorder", cfg.Orders.PlaceOrder)

		api.GET("/restaurant", cfg.Restaurants.GetRestaurant)
		api.GET("/restaurants/filter", cfg.Restaurants.Filter)
		api.GET("/allRestaurants", cfg.Restaurants.AllRestaurants)

		api.GET("/health", func(c *gin.Context) {
			if cfg.Health == nil {
				c.JSON(http.StatusOK, gin.H{"status": "up"})
				return
			}
			stats := cfg.Health.Health(c.Request.Context())
			if stats["status"] != "up" {
				c.JSON(http.StatusServiceUnavailable, stats)
				return
			}
			c.JSON(http.StatusOK, stats)
		})
	}

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(cfg.Gatherer)))
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
