package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
)

func TestCardApplicationRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	createCardApplicationTable(t, db)
	repo := NewCardApplicationRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	app := &entities.CardApplication{
		UserID:   userID,
		FullName: "Alice Doe",
		CardType: entities.CardTypePhysical,
		Address:  "1 Main St",
		City:     "London",
		ZipCode:  "N1",
		Country:  "GB",
	}
	require.NoError(t, repo.Create(ctx, app))
	require.Equal(t, entities.CardStatusPending, app.Status)

	list, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	approved, err := repo.UpdateStatus(ctx, app.ID, entities.CardStatusPending, entities.CardStatusApproved)
	require.NoError(t, err)
	require.Equal(t, entities.CardStatusApproved, approved.Status)

	_, err = repo.UpdateStatus(ctx, app.ID, entities.CardStatusPending, entities.CardStatusRejected)
	require.ErrorIs(t, err, domainerrors.ErrInvalidTransition)

	_, err = repo.UpdateStatus(ctx, uuid.New(), entities.CardStatusPending, entities.CardStatusApproved)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}
