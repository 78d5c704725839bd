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

type cardService interface {
	Apply(ctx context.Context, userID uuid.UUID, input *entities.CreateCardApplicationInput) (*entities.CardApplication, error)
	List(ctx context.Context, userID uuid.UUID) ([]*entities.CardApplication, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.CardStatus) (*entities.CardApplication, error)
}

// CardHandler handles card applications
type CardHandler struct {
	cardUsecase cardService
}

func NewCardHandler(cardUsecase cardService) *CardHandler {
	return &CardHandler{cardUsecase: cardUsecase}
}

// Apply files a card application
// POST /api/v1/cards/apply
func (h *CardHandler) Apply(c *gin.Context) {
	var input entities.CreateCardApplicationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	app, err := h.cardUsecase.Apply(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"application": app})
}

// List returns the caller's applications
// GET /api/v1/cards
func (h *CardHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	apps, err := h.cardUsecase.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if apps == nil {
		apps = []*entities.CardApplication{}
	}

	response.Success(c, http.StatusOK, gin.H{"applications": apps})
}

// UpdateStatus moves an application along its review workflow
// PUT /api/v1/admin/cards/:id/status
func (h *CardHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "card application")
	if !ok {
		return
	}

	var input entities.UpdateCardStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	app, err := h.cardUsecase.UpdateStatus(c.Request.Context(), id, input.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"application": app})
}
