package handler

import (
	"errors"
	"food-checkout/internal/domain"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type messageResponse struct {
	Message string `json:"message"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOtpMismatch):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnverified):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrOtpNotFound),
		errors.Is(err, domain.ErrOtpAlreadyConsumed),
		errors.Is(err, domain.ErrRestaurantNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOtpExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrDelivery):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes {message}. Internal errors are logged and replaced by
// fallback so driver details never reach the client.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallback,
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, messageResponse{Message: domain.Message(err, fallback)})
}

// bindMessage turns the first failed binding rule into a message for the
// diner. Malformed JSON gets fallback.
func bindMessage(err error, fallback string) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fallback
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Email":
		if fe.Tag() == "required" {
			return "Email is required"
		}
		return "Enter a valid email address"
	case "OTP":
		return "Enter the OTP sent to your email"
	case "Address":
		return "Add your address for delivery"
	case "Items":
		return "Your cart is empty"
	case "Quantity":
		return "Item quantities must be positive"
	case "ID":
		return "Every item needs an id"
	}
	return fallback
}
