package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/pkg/utils"
)

func TestUserRepository_CreateAndLookups(t *testing.T) {
	db := newTestDB(t)
	createUserTable(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	alice := &entities.User{
		Email:        "alice@cryptovest.io",
		Name:         "Alice",
		Country:      "GB",
		PasswordHash: "hash",
		ReferralCode: "ABC123",
	}
	require.NoError(t, repo.Create(ctx, alice))
	require.NotEqual(t, uuid.Nil, alice.ID)
	require.Equal(t, entities.UserRoleUser, alice.Role)

	bob := &entities.User{
		Email:        "bob@cryptovest.io",
		Name:         "Bob",
		Country:      "DE",
		PasswordHash: "hash",
		ReferralCode: "XYZ789",
		ReferredBy:   null.StringFrom("ABC123"),
		Role:         entities.UserRoleAdmin,
	}
	require.NoError(t, repo.Create(ctx, bob))

	byID, err := repo.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, "ABC123", byID.ReferredBy.String)
	require.True(t, byID.IsAdmin())

	byEmail, err := repo.GetByEmail(ctx, " Alice@Cryptovest.io ")
	require.NoError(t, err)
	require.Equal(t, alice.ID, byEmail.ID)

	byCode, err := repo.GetByReferralCode(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, alice.ID, byCode.ID)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	found, total, err := repo.List(ctx, "BOB", utils.GetPaginationParams(1, 0))
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, int64(1), total)
	require.Equal(t, bob.ID, found[0].ID)

	everyone, total, err := repo.List(ctx, "", utils.GetPaginationParams(1, 0))
	require.NoError(t, err)
	require.Len(t, everyone, 2)
	require.Equal(t, int64(2), total)

	secondPage, total, err := repo.List(ctx, "", utils.GetPaginationParams(2, 1))
	require.NoError(t, err)
	require.Len(t, secondPage, 1)
	require.Equal(t, int64(2), total, "the count ignores the page window")
	require.NotEqual(t, everyone[0].ID, secondPage[0].ID)
}

func TestUserRepository_DuplicateEmailAndNotFound(t *testing.T) {
	db := newTestDB(t)
	createUserTable(t, db)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.User{Email: "a@b.io", Name: "A", Country: "FR", PasswordHash: "h", ReferralCode: "AAAAAA"}))
	err := repo.Create(ctx, &entities.User{Email: "a@b.io", Name: "B", Country: "FR", PasswordHash: "h", ReferralCode: "BBBBBB"})
	require.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = repo.GetByEmail(ctx, "missing@b.io")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = repo.GetByReferralCode(ctx, "ZZZZZZ")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}
