package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cryptovest.backend/internal/domain/entities"
	"cryptovest.backend/internal/interfaces/http/response"
	"cryptovest.backend/pkg/utils"
)

type adminService interface {
	Stats(ctx context.Context, actorID uuid.UUID) (*entities.AdminStats, error)
	ListUsers(ctx context.Context, actorID uuid.UUID, search string, pagination utils.PaginationParams) ([]*entities.User, utils.PaginationMeta, error)
}

// AdminHandler handles admin endpoints
type AdminHandler struct {
	adminUsecase adminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminUsecase adminService) *AdminHandler {
	return &AdminHandler{adminUsecase: adminUsecase}
}

// GetStats returns platform-wide totals
// GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.adminUsecase.Stats(c.Request.Context(), actorID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// ListUsers lists users, optionally filtered by a search term
// GET /api/v1/admin/users?search=&page=&limit=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	pagination, ok := paginationQuery(c)
	if !ok {
		return
	}

	users, meta, err := h.adminUsecase.ListUsers(c.Request.Context(), actorID, c.Query("search"), pagination)
	if err != nil {
		response.Error(c, err)
		return
	}
	if users == nil {
		users = []*entities.User{}
	}

	response.Paginated(c, users, meta)
}
