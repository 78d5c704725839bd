package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cryptovest.backend/internal/domain/entities"
	"cryptovest.backend/internal/interfaces/http/response"
)

type dashboardService interface {
	Get(ctx context.Context, userID uuid.UUID) (*entities.DashboardSummary, error)
}

// DashboardHandler serves the balance summary
type DashboardHandler struct {
	dashboardUsecase dashboardService
}

func NewDashboardHandler(dashboardUsecase dashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardUsecase: dashboardUsecase}
}

// Get returns the caller's dashboard summary
// GET /api/v1/dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.dashboardUsecase.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, summary)
}
