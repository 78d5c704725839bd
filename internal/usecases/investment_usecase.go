package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/domain/repositories"
	"cryptovest.backend/pkg/logger"
	"cryptovest.backend/pkg/metrics"
)

// InvestmentUsecase opens, lists and settles investment positions
type InvestmentUsecase struct {
	positionRepo repositories.InvestmentRepository
	ledgerRepo   repositories.LedgerRepository
	uow          repositories.UnitOfWork
	catalog      *entities.PlanCatalog
	now          func() time.Time
}

// NewInvestmentUsecase creates a new investment usecase
func NewInvestmentUsecase(
	positionRepo repositories.InvestmentRepository,
	ledgerRepo repositories.LedgerRepository,
	uow repositories.UnitOfWork,
	catalog *entities.PlanCatalog,
) *InvestmentUsecase {
	if catalog == nil {
		catalog = entities.DefaultPlanCatalog()
	}
	return &InvestmentUsecase{
		positionRepo: positionRepo,
		ledgerRepo:   ledgerRepo,
		uow:          uow,
		catalog:      catalog,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Plans lists the plan catalog
func (u *InvestmentUsecase) Plans() []entities.Plan {
	return u.catalog.List()
}

func (u *InvestmentUsecase) plan(planID string) (entities.Plan, error) {
	plan, ok := u.catalog.Get(planID)
	if !ok {
		return entities.Plan{}, fmt.Errorf("%w: %q", domainerrors.ErrUnknownPlan, planID)
	}
	return plan, nil
}

// Project computes the return of a plan for amount without committing anything
func (u *InvestmentUsecase) Project(planID string, amount decimal.Decimal) (*entities.ReturnProjection, error) {
	plan, err := u.plan(planID)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, domainerrors.Validation("amount must be greater than zero")
	}
	projection := ProjectReturn(plan, amount)
	return &projection, nil
}

// Open commits principal to a plan. The principal must lie within the plan bounds inclusive.
func (u *InvestmentUsecase) Open(ctx context.Context, userID uuid.UUID, planID string, principal decimal.Decimal) (*entities.InvestmentPosition, error) {
	plan, err := u.plan(planID)
	if err != nil {
		return nil, err
	}
	if !plan.Accepts(principal) {
		return nil, fmt.Errorf("%w: %s plan accepts %s to %s",
			domainerrors.ErrAmountOutOfRange, plan.ID, plan.MinAmount.String(), plan.MaxAmount.String())
	}

	start := u.now()
	position := &entities.InvestmentPosition{
		UserID:         userID,
		PlanID:         plan.ID,
		Principal:      principal,
		DailyRate:      plan.DailyRate,
		DurationDays:   plan.DurationDays,
		ExpectedProfit: ProjectReturn(plan, principal).TotalProfit,
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, plan.DurationDays),
		Status:         entities.PositionStatusActive,
	}
	if err := u.positionRepo.Create(ctx, position); err != nil {
		return nil, err
	}

	metrics.RecordInvestmentOpened(plan.ID)
	logger.Info(ctx, "Investment opened",
		zap.String("positionId", position.ID.String()),
		zap.String("planId", plan.ID),
		zap.String("principal", principal.String()),
	)
	return position, nil
}

// List returns a user's positions
func (u *InvestmentUsecase) List(ctx context.Context, userID uuid.UUID) ([]*entities.InvestmentPosition, error) {
	return u.positionRepo.ListByUser(ctx, userID)
}

// Cancel ends an active position early. Only the owner or an admin may cancel.
// The promised profit is forfeited; the principal returns to the liquid balance.
// A position past its end date belongs to the maturity job and cannot be cancelled.
func (u *InvestmentUsecase) Cancel(ctx context.Context, actorID uuid.UUID, isAdmin bool, positionID uuid.UUID) (*entities.InvestmentPosition, error) {
	var position *entities.InvestmentPosition
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		current, err := u.positionRepo.GetByID(u.uow.WithLock(txCtx), positionID)
		if err != nil {
			return err
		}
		if !isAdmin && current.UserID != actorID {
			return domainerrors.ErrForbidden
		}
		if current.Status == entities.PositionStatusActive && current.Matured(u.now()) {
			return fmt.Errorf("%w: position has matured", domainerrors.ErrInvalidTransition)
		}

		position, err = u.positionRepo.Transition(txCtx, positionID, entities.PositionStatusCancelled)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordPositionTransition(string(position.Status))
	logger.Info(ctx, "Investment cancelled", zap.String("positionId", positionID.String()), zap.String("actorId", actorID.String()))
	return position, nil
}

// MaturityRef is the external reference of the profit entry credited for a matured position.
func MaturityRef(positionID uuid.UUID) string {
	return "investment:" + positionID.String()
}

// CompleteMatured settles up to limit active positions whose term has ended at asOf.
// The profit entry is credited before the position is completed. Its external
// reference is unique per position, so a run that failed between the two steps
// is finished by the next tick without paying twice.
// It returns how many positions were settled.
func (u *InvestmentUsecase) CompleteMatured(ctx context.Context, asOf time.Time, limit int) (int, error) {
	positions, err := u.positionRepo.ListMatured(ctx, asOf, limit)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, p := range positions {
		err := u.uow.Do(ctx, func(txCtx context.Context) error {
			current, err := u.positionRepo.GetByID(u.uow.WithLock(txCtx), p.ID)
			if err != nil {
				return err
			}
			if current.Status != entities.PositionStatusActive {
				return fmt.Errorf("%w: position is %s", domainerrors.ErrInvalidTransition, current.Status)
			}
			if err := u.creditMaturityProfit(txCtx, current); err != nil {
				return err
			}
			_, err = u.positionRepo.Transition(txCtx, p.ID, entities.PositionStatusCompleted)
			return err
		})
		if err != nil {
			if errors.Is(err, domainerrors.ErrInvalidTransition) {
				// settled or cancelled by someone else since the scan
				continue
			}
			logger.Error(ctx, "Failed to settle matured investment", zap.String("positionId", p.ID.String()), zap.Error(err))
			continue
		}
		settled++
		metrics.RecordPositionTransition(string(entities.PositionStatusCompleted))
	}
	return settled, nil
}

func (u *InvestmentUsecase) creditMaturityProfit(ctx context.Context, p *entities.InvestmentPosition) error {
	if !p.ExpectedProfit.IsPositive() {
		return nil
	}
	ref := MaturityRef(p.ID)

	_, err := u.ledgerRepo.GetByExternalRef(ctx, ref)
	if err == nil {
		logger.Info(ctx, "Maturity profit already credited", zap.String("positionId", p.ID.String()))
		return nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return err
	}

	err = u.ledgerRepo.Append(ctx, &entities.LedgerEntry{
		UserID:      p.UserID,
		Kind:        entities.EntryKindProfit,
		Amount:      p.ExpectedProfit,
		Method:      entities.MethodSystem,
		Status:      entities.EntryStatusCompleted,
		ExternalRef: null.StringFrom(ref),
	})
	if errors.Is(err, domainerrors.ErrAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to credit maturity profit: %w", err)
	}
	metrics.RecordEntryAppended(string(entities.EntryKindProfit), string(entities.EntryStatusCompleted))
	return nil
}
