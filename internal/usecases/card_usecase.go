package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/domain/repositories"
	"cryptovest.backend/pkg/logger"
)

// CardUsecase handles debit card applications
type CardUsecase struct {
	cardRepo repositories.CardApplicationRepository
}

// NewCardUsecase creates a new card usecase
func NewCardUsecase(cardRepo repositories.CardApplicationRepository) *CardUsecase {
	return &CardUsecase{cardRepo: cardRepo}
}

// Apply records a pending card application
func (u *CardUsecase) Apply(ctx context.Context, userID uuid.UUID, input *entities.CreateCardApplicationInput) (*entities.CardApplication, error) {
	app := &entities.CardApplication{
		UserID:   userID,
		FullName: strings.TrimSpace(input.FullName),
		CardType: input.CardType,
		Address:  strings.TrimSpace(input.Address),
		City:     strings.TrimSpace(input.City),
		State:    strings.TrimSpace(input.State),
		ZipCode:  strings.TrimSpace(input.ZipCode),
		Country:  strings.ToUpper(input.Country),
		Status:   entities.CardStatusPending,
	}
	if err := u.cardRepo.Create(ctx, app); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Card application submitted", zap.String("applicationId", app.ID.String()))
	return app, nil
}

// List returns a user's applications
func (u *CardUsecase) List(ctx context.Context, userID uuid.UUID) ([]*entities.CardApplication, error) {
	return u.cardRepo.ListByUser(ctx, userID)
}

// UpdateStatus moves an application along pending -> approved -> shipped, or to rejected
func (u *CardUsecase) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.CardStatus) (*entities.CardApplication, error) {
	app, err := u.cardRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entities.CanTransitionCard(app.Status, status) {
		return nil, fmt.Errorf("%w: card application is %s", domainerrors.ErrInvalidTransition, app.Status)
	}
	return u.cardRepo.UpdateStatus(ctx, id, app.Status, status)
}
