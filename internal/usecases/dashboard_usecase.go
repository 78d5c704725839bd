package usecases

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/domain/repositories"
	"cryptovest.backend/pkg/utils"
)

// DashboardUsecase serves per-user summaries
type DashboardUsecase struct {
	ledgerRepo   repositories.LedgerRepository
	positionRepo repositories.InvestmentRepository
}

// NewDashboardUsecase creates a new dashboard usecase
func NewDashboardUsecase(ledgerRepo repositories.LedgerRepository, positionRepo repositories.InvestmentRepository) *DashboardUsecase {
	return &DashboardUsecase{ledgerRepo: ledgerRepo, positionRepo: positionRepo}
}

// Get recomputes the user's summary from current entries and positions
func (u *DashboardUsecase) Get(ctx context.Context, userID uuid.UUID) (*entities.DashboardSummary, error) {
	entries, err := u.ledgerRepo.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	positions, err := u.positionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := ComputeDashboard(ctx, entries, positions)
	return &summary, nil
}

// AdminUsecase serves operator views over the whole platform
type AdminUsecase struct {
	userRepo     repositories.UserRepository
	ledgerRepo   repositories.LedgerRepository
	positionRepo repositories.InvestmentRepository
}

// NewAdminUsecase creates a new admin usecase
func NewAdminUsecase(
	userRepo repositories.UserRepository,
	ledgerRepo repositories.LedgerRepository,
	positionRepo repositories.InvestmentRepository,
) *AdminUsecase {
	return &AdminUsecase{
		userRepo:     userRepo,
		ledgerRepo:   ledgerRepo,
		positionRepo: positionRepo,
	}
}

func (u *AdminUsecase) requireAdmin(ctx context.Context, actorID uuid.UUID) error {
	actor, err := u.userRepo.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.ErrUnauthorized
		}
		return err
	}
	if !actor.IsAdmin() {
		return domainerrors.ErrForbidden
	}
	return nil
}

// Stats computes platform rollups for an admin actor
func (u *AdminUsecase) Stats(ctx context.Context, actorID uuid.UUID) (*entities.AdminStats, error) {
	if err := u.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	totalUsers, err := u.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := u.ledgerRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	positions, err := u.positionRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	stats := AggregateStats(ctx, totalUsers, entries, positions)
	return &stats, nil
}

// ListUsers returns a page of users, optionally filtered by a name or email search
func (u *AdminUsecase) ListUsers(ctx context.Context, actorID uuid.UUID, search string, pagination utils.PaginationParams) ([]*entities.User, utils.PaginationMeta, error) {
	if err := u.requireAdmin(ctx, actorID); err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	users, total, err := u.userRepo.List(ctx, search, pagination)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return users, utils.CalculateMeta(total, pagination.Page, pagination.Limit), nil
}
