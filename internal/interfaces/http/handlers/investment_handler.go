package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/interfaces/http/response"
)

type investmentService interface {
	Plans() []entities.Plan
	Project(planID string, amount decimal.Decimal) (*entities.ReturnProjection, error)
	Open(ctx context.Context, userID uuid.UUID, planID string, principal decimal.Decimal) (*entities.InvestmentPosition, error)
	List(ctx context.Context, userID uuid.UUID) ([]*entities.InvestmentPosition, error)
	Cancel(ctx context.Context, actorID uuid.UUID, isAdmin bool, positionID uuid.UUID) (*entities.InvestmentPosition, error)
}

// InvestmentHandler serves the plan catalog and investment positions
type InvestmentHandler struct {
	investmentUsecase investmentService
}

func NewInvestmentHandler(investmentUsecase investmentService) *InvestmentHandler {
	return &InvestmentHandler{investmentUsecase: investmentUsecase}
}

// ListPlans returns the plan catalog
// GET /api/v1/plans
func (h *InvestmentHandler) ListPlans(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"plans": h.investmentUsecase.Plans()})
}

// Project quotes the return of a plan for an amount
// POST /api/v1/plans/:id/projection
func (h *InvestmentHandler) Project(c *gin.Context) {
	var input entities.ProjectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	projection, err := h.investmentUsecase.Project(c.Param("id"), input.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, projection)
}

// Open starts a new position
// POST /api/v1/investments
func (h *InvestmentHandler) Open(c *gin.Context) {
	var input entities.OpenInvestmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	position, err := h.investmentUsecase.Open(c.Request.Context(), userID, input.PlanID, input.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"investment": position})
}

// List returns the caller's positions
// GET /api/v1/investments
func (h *InvestmentHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	positions, err := h.investmentUsecase.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if positions == nil {
		positions = []*entities.InvestmentPosition{}
	}

	response.Success(c, http.StatusOK, gin.H{"investments": positions})
}

// Cancel cancels one of the caller's own active positions
// POST /api/v1/investments/:id/cancel
func (h *InvestmentHandler) Cancel(c *gin.Context) {
	h.cancel(c, false)
}

// AdminCancel cancels any active position
// POST /api/v1/admin/investments/:id/cancel
func (h *InvestmentHandler) AdminCancel(c *gin.Context) {
	h.cancel(c, true)
}

func (h *InvestmentHandler) cancel(c *gin.Context, asAdmin bool) {
	positionID, ok := pathID(c, "investment")
	if !ok {
		return
	}
	actorID, ok := currentUser(c)
	if !ok {
		return
	}

	position, err := h.investmentUsecase.Cancel(c.Request.Context(), actorID, asAdmin, positionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"investment": position})
}
