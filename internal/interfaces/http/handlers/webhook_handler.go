package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/interfaces/http/response"
	"cryptovest.backend/internal/usecases"
	"cryptovest.backend/pkg/logger"
)

const (
	StripeSignatureHeader = "Stripe-Signature"
	// maxWebhookBytes mirrors the card processor's own payload ceiling.
	maxWebhookBytes = 64 << 10
)

type webhookService interface {
	ProcessPaymentWebhook(ctx context.Context, payload []byte, signature string) (*usecases.WebhookResult, error)
}

// WebhookHandler handles card processor callbacks
type WebhookHandler struct {
	webhookUsecase webhookService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookUsecase webhookService) *WebhookHandler {
	return &WebhookHandler{webhookUsecase: webhookUsecase}
}

// HandlePaymentWebhook verifies and applies a payment event. The raw body is needed for the signature.
// POST /api/v1/webhooks/payments
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes+1))
	if err != nil || len(payload) > maxWebhookBytes {
		response.Error(c, domainerrors.BadRequest("Unreadable webhook payload"))
		return
	}

	result, err := h.webhookUsecase.ProcessPaymentWebhook(c.Request.Context(), payload, c.GetHeader(StripeSignatureHeader))
	if err != nil {
		logger.Warn(c.Request.Context(), "Payment webhook rejected", zap.Error(err))
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"received": true,
		"action":   result.Action,
	})
}
