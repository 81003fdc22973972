// internal/handlers/payment.go
package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sapphirus/sapphirus-backend/internal/services"
	"github.com/sapphirus/sapphirus-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService  *services.PaymentService
	checkoutService *services.CheckoutService
}

func NewPaymentHandler(paymentService *services.PaymentService, checkoutService *services.CheckoutService) *PaymentHandler {
	return &PaymentHandler{
		paymentService:  paymentService,
		checkoutService: checkoutService,
	}
}

// GET /payments/config
func (h *PaymentHandler) GetConfig(c *gin.Context) {
	utils.SuccessResponse(c, h.paymentService.PublicConfig())
}

// POST /payments/webhook
//
// Stripe retries until it sees a 2xx, so processing failures return 500
// and get redelivered. Signature failures return 400; those payloads are
// not Stripe's.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	event, err := h.paymentService.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logrus.WithError(err).Warn("Webhook signature verification failed")
		c.Status(http.StatusBadRequest)
		return
	}

	if err := h.checkoutService.HandleWebhook(c.Request.Context(), event); err != nil {
		logrus.WithError(err).WithField("event_type", event.Type).Error("Webhook processing failed")
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
