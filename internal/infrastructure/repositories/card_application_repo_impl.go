package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"cryptovest.backend/internal/domain/entities"
	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/internal/infrastructure/models"
	"cryptovest.backend/pkg/utils"
)

// CardApplicationRepository implements card application storage on GORM
type CardApplicationRepository struct {
	db *gorm.DB
}

func NewCardApplicationRepository(db *gorm.DB) *CardApplicationRepository {
	return &CardApplicationRepository{db: db}
}

func (r *CardApplicationRepository) Create(ctx context.Context, app *entities.CardApplication) error {
	if app.ID == uuid.Nil {
		app.ID = utils.GenerateUUIDv7()
	}
	if app.Status == "" {
		app.Status = entities.CardStatusPending
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}
	app.UpdatedAt = app.CreatedAt

	return translateError(GetDB(ctx, r.db).Create(toCardModel(app)).Error)
}

func (r *CardApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.CardApplication, error) {
	var m models.CardApplication
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return toCardEntity(&m), nil
}

func (r *CardApplicationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.CardApplication, error) {
	var rows []models.CardApplication
	if err := GetDB(ctx, r.db).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.CardApplication, 0, len(rows))
	for i := range rows {
		out = append(out, toCardEntity(&rows[i]))
	}
	return out, nil
}

// UpdateStatus moves an application from one status to another, guarded on the current status
func (r *CardApplicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entities.CardStatus) (*entities.CardApplication, error) {
	result := GetDB(ctx, r.db).
		Model(&models.CardApplication{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: application is %s", domainerrors.ErrInvalidTransition, current.Status)
	}
	return r.GetByID(ctx, id)
}

func toCardModel(a *entities.CardApplication) *models.CardApplication {
	return &models.CardApplication{
		ID:        a.ID,
		UserID:    a.UserID,
		FullName:  a.FullName,
		CardType:  string(a.CardType),
		Address:   a.Address,
		City:      a.City,
		State:     a.State,
		ZipCode:   a.ZipCode,
		Country:   a.Country,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toCardEntity(m *models.CardApplication) *entities.CardApplication {
	return &entities.CardApplication{
		ID:        m.ID,
		UserID:    m.UserID,
		FullName:  m.FullName,
		CardType:  entities.CardType(m.CardType),
		Address:   m.Address,
		City:      m.City,
		State:     m.State,
		ZipCode:   m.ZipCode,
		Country:   m.Country,
		Status:    entities.CardStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
