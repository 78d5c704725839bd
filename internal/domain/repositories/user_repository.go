package repositories

import (
	"context"

	"github.com/google/uuid"

	"cryptovest.backend/internal/domain/entities"
	"cryptovest.backend/pkg/utils"
)

// UserRepository defines user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByReferralCode(ctx context.Context, code string) (*entities.User, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, search string, pagination utils.PaginationParams) ([]*entities.User, int64, error)
}
