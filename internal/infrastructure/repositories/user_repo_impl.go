package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"cryptovest.backend/internal/domain/entities"
	"cryptovest.backend/internal/infrastructure/models"
	"cryptovest.backend/pkg/utils"
)

// UserRepository implements user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	if user.ID == uuid.Nil {
		user.ID = utils.GenerateUUIDv7()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt
	if user.Role == "" {
		user.Role = entities.UserRoleUser
	}

	m := &models.User{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Country:      user.Country,
		PasswordHash: user.PasswordHash,
		IsVerified:   user.IsVerified,
		Has2FA:       user.Has2FA,
		ReferralCode: user.ReferralCode,
		ReferredBy:   user.ReferredBy,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	return translateError(GetDB(ctx, r.db).Create(m).Error)
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail gets a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// GetByReferralCode gets the user owning a referral code
func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*entities.User, error) {
	return r.first(ctx, "referral_code = ?", strings.ToUpper(code))
}

// Count counts registered users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := GetDB(ctx, r.db).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// List lists users with optional search filter
func (r *UserRepository) List(ctx context.Context, search string, pagination utils.PaginationParams) ([]*entities.User, int64, error) {
	var userModels []models.User
	var total int64
	query := GetDB(ctx, r.db).Model(&models.User{})

	if search != "" {
		searchTerm := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.CalculateOffset())
	}

	if err := query.Order("created_at DESC, id DESC").Find(&userModels).Error; err != nil {
		return nil, 0, err
	}

	users := make([]*entities.User, 0, len(userModels))
	for i := range userModels {
		users = append(users, toUserEntity(&userModels[i]))
	}
	return users, total, nil
}

func (r *UserRepository) first(ctx context.Context, cond string, arg interface{}) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).Where(cond, arg).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return toUserEntity(&m), nil
}

func toUserEntity(m *models.User) *entities.User {
	return &entities.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		Country:      m.Country,
		PasswordHash: m.PasswordHash,
		IsVerified:   m.IsVerified,
		Has2FA:       m.Has2FA,
		ReferralCode: m.ReferralCode,
		ReferredBy:   m.ReferredBy,
		Role:         entities.UserRole(m.Role),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
