package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/interfaces/http/middleware"
	"cryptovest.backend/internal/interfaces/http/response"
	"cryptovest.backend/pkg/utils"
)

// currentUser reads the authenticated user id, writing a 401 when it is missing.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == uuid.Nil {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses the :id route parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid "+what+" ID"))
		return uuid.Nil, false
	}
	return id, true
}

func paginationQuery(c *gin.Context) (utils.PaginationParams, bool) {
	var p utils.PaginationParams
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, domainerrors.BadRequest("Invalid pagination parameters"))
		return p, false
	}
	return utils.GetPaginationParams(p.Page, p.Limit), true
}

// intQuery parses an optional non-negative integer query parameter.
func intQuery(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		response.Error(c, domainerrors.BadRequest("Invalid "+key))
		return 0, false
	}
	return n, true
}
