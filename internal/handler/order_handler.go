package handler

import (
	"food-checkout/internal/domain"
	"food-checkout/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req domain.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Info("Invalid place order request", zap.Error(err))
		c.JSON(http.StatusBadRequest, messageResponse{Message: bindMessage(err, "Invalid order request")})
		return
	}

	res, err := h.orderService.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err, "Failed to place order")
		return
	}
	c.JSON(http.StatusCreated, res)
}
