package repositories

import (
	"context"

	"github.com/google/uuid"
	"cryptovest.backend/internal/domain/entities"
)

// CardApplicationRepository defines card application data operations
type CardApplicationRepository interface {
	Create(ctx context.Context, app *entities.CardApplication) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.CardApplication, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.CardApplication, error)
	// UpdateStatus sets the status only when the current status equals from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entities.CardStatus) (*entities.CardApplication, error)
}
