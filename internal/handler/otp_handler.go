package handler

import (
	"food-checkout/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OtpHandler struct {
	otpService service.OtpService
	logger     *zap.Logger
}

func NewOtpHandler(otpService service.OtpService, logger *zap.Logger) *OtpHandler {
	return &OtpHandler{otpService: otpService, logger: logger}
}

type createOtpRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}

type verifyOtpRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   *int   `json:"otp" binding:"required"`
}

func (h *OtpHandler) CreateOtp(c *gin.Context) {
	var req createOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: bindMessage(err, "Email is required")})
		return
	}

	msg, err := h.otpService.Issue(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		respondError(c, h.logger, err, "Failed to send OTP")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: msg})
}

func (h *OtpHandler) VerifyOtp(c *gin.Context) {
	var req verifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Message: bindMessage(err, "Enter the OTP sent to your email")})
		return
	}

	msg, err := h.otpService.Verify(c.Request.Context(), req.Email, *req.OTP)
	if err != nil {
		respondError(c, h.logger, err, "OTP verification failed")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: msg})
}
