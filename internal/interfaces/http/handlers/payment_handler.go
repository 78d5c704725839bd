package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/interfaces/http/response"
)

type paymentIntentService interface {
	Create(ctx context.Context, userID uuid.UUID, input *entities.CreatePaymentIntentInput) (*entities.PaymentIntentResult, error)
}

// PaymentHandler opens card deposits
type PaymentHandler struct {
	paymentUsecase paymentIntentService
}

func NewPaymentHandler(paymentUsecase paymentIntentService) *PaymentHandler {
	return &PaymentHandler{paymentUsecase: paymentUsecase}
}

// CreateIntent books a pending card deposit and returns the client secret to confirm it with.
// POST /api/v1/payments/intents
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input entities.CreatePaymentIntentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.paymentUsecase.Create(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}
