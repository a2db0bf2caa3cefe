package handlers

import (
	"net/http"

	"lumident/models"
	"lumident/services/booking"
	"lumident/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the reconciliation pipeline over HTTP.
type BookingHandler struct {
	Svc    booking.BookingOrchestrator
	Logger *zap.Logger
}

func NewBookingHandler(svc booking.BookingOrchestrator, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Svc: svc, Logger: logger}
}

// SubmitIntent accepts a booking intent and responds with the gateway
// redirect target.
func (h *BookingHandler) SubmitIntent(c *gin.Context) {
	var input models.BookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid booking input", err.Error())
		return
	}

	resp, err := h.Svc.SubmitIntent(c.Request.Context(), input)
	if err != nil {
		switch {
		case booking.IsCode(err, booking.CodeInvalidInput):
			utils.JSONError(c, http.StatusBadRequest, "invalid booking input", err.Error())
		case booking.IsCode(err, booking.CodeGatewayError):
			utils.JSONError(c, http.StatusBadGateway, "payment provider unavailable", "Please try again in a few minutes.")
		default:
			h.Logger.Error("Booking intent failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "booking failed", "An unexpected error occurred.")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PaymentCallback receives asynchronous notifications from the payment
// gateway. It always acknowledges with 200 once the body has been read;
// anything else triggers gateway-side retries. Classification of the
// outcome happens in the orchestrator and is only logged here.
func (h *BookingHandler) PaymentCallback(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		h.Logger.Warn("Failed to read gateway callback body", zap.Error(err))
		c.String(http.StatusOK, "OK")
		return
	}

	if err := h.Svc.HandleCallback(c.Request.Context(), payload); err != nil {
		h.Logger.Info("Gateway callback not applied", zap.Error(err))
	}
	c.String(http.StatusOK, "OK")
}

// BookingStatus serves the post-redirect result page polling for the
// reconciliation outcome.
func (h *BookingHandler) BookingStatus(c *gin.Context) {
	token := c.Param("token")

	status, err := h.Svc.BookingStatus(c.Request.Context(), token)
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "booking not found", "No active or completed booking for this reference.")
		return
	}
	c.JSON(http.StatusOK, status)
}

// Health reports the latest stored dependency health snapshot.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetHealthStatus())
}
