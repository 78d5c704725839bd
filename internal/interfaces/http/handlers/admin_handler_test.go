package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/pkg/utils"
)

func TestAdminHandler_GetStats(t *testing.T) {
	adminID := uuid.New()
	svc := adminServiceStub{
		statsFn: func(_ context.Context, actor uuid.UUID) (*entities.AdminStats, error) {
			if actor != adminID {
				return nil, domainerrors.ErrForbidden
			}
			return &entities.AdminStats{TotalUsers: 3, TotalVolume: decimal.NewFromInt(3000), Revenue: decimal.NewFromInt(300)}, nil
		},
	}
	h := NewAdminHandler(svc)

	r := gin.New()
	r.GET("/stats", asUser(adminID, "admin"), h.GetStats)
	r.GET("/other-stats", asUser(uuid.New(), "admin"), h.GetStats)

	w := perform(r, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "3000", body["totalVolume"])
	assert.Equal(t, "300", body["revenue"])
	assert.EqualValues(t, 3, body["totalUsers"])

	assert.Equal(t, http.StatusForbidden, perform(r, http.MethodGet, "/other-stats", nil).Code)
}

func TestAdminHandler_ListUsers(t *testing.T) {
	var gotSearch string
	svc := adminServiceStub{
		listUsersFn: func(_ context.Context, _ uuid.UUID, search string, p utils.PaginationParams) ([]*entities.User, utils.PaginationMeta, error) {
			gotSearch = search
			return []*entities.User{{ID: uuid.New(), Email: "ann@mail.com"}}, utils.CalculateMeta(1, p.Page, p.Limit), nil
		},
	}
	r := gin.New()
	r.GET("/users", asUser(uuid.New(), "admin"), NewAdminHandler(svc).ListUsers)

	w := perform(r, http.MethodGet, "/users?search=ann&page=1&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ann", gotSearch)
	assert.Contains(t, w.Body.String(), "ann@mail.com")
	assert.Contains(t, w.Body.String(), `"totalCount":1`)
}
