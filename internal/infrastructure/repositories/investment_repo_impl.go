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

// InvestmentRepository implements investment position storage on GORM
type InvestmentRepository struct {
	db *gorm.DB
}

// NewInvestmentRepository creates a new investment repository
func NewInvestmentRepository(db *gorm.DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

// Create inserts a new position
func (r *InvestmentRepository) Create(ctx context.Context, p *entities.InvestmentPosition) error {
	if p.ID == uuid.Nil {
		p.ID = utils.GenerateUUIDv7()
	}
	if p.Status == "" {
		p.Status = entities.PositionStatusActive
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt

	if err := GetDB(ctx, r.db).Create(toPositionModel(p)).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// GetByID gets a position by ID
func (r *InvestmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.InvestmentPosition, error) {
	var m models.InvestmentPosition
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return toPositionEntity(&m), nil
}

// ListByUser lists a user's positions, newest first
func (r *InvestmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.InvestmentPosition, error) {
	var rows []models.InvestmentPosition
	if err := GetDB(ctx, r.db).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPositionEntities(rows), nil
}

// ListAll lists every position, optionally filtered by status
func (r *InvestmentRepository) ListAll(ctx context.Context, status *entities.PositionStatus) ([]*entities.InvestmentPosition, error) {
	query := GetDB(ctx, r.db).Order("created_at DESC, id DESC")
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}

	var rows []models.InvestmentPosition
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPositionEntities(rows), nil
}

// Transition moves an active position to completed or cancelled
func (r *InvestmentRepository) Transition(ctx context.Context, id uuid.UUID, status entities.PositionStatus) (*entities.InvestmentPosition, error) {
	if !entities.CanTransitionPosition(entities.PositionStatusActive, status) {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: position cannot move to %q", domainerrors.ErrInvalidTransition, status)
	}

	result := GetDB(ctx, r.db).
		Model(&models.InvestmentPosition{}).
		Where("id = ? AND status = ?", id, string(entities.PositionStatusActive)).
		Updates(map[string]interface{}{
			"status":     string(status),
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
		return nil, fmt.Errorf("%w: position is %s", domainerrors.ErrInvalidTransition, current.Status)
	}
	return r.GetByID(ctx, id)
}

// ListMatured lists active positions whose term ended at or before asOf, oldest first
func (r *InvestmentRepository) ListMatured(ctx context.Context, asOf time.Time, limit int) ([]*entities.InvestmentPosition, error) {
	query := GetDB(ctx, r.db).
		Where("status = ? AND end_date <= ?", string(entities.PositionStatusActive), asOf.UTC()).
		Order("end_date ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.InvestmentPosition
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPositionEntities(rows), nil
}

func toPositionModel(p *entities.InvestmentPosition) *models.InvestmentPosition {
	return &models.InvestmentPosition{
		ID:             p.ID,
		UserID:         p.UserID,
		PlanID:         p.PlanID,
		Principal:      p.Principal,
		DailyRate:      p.DailyRate,
		DurationDays:   p.DurationDays,
		ExpectedProfit: p.ExpectedProfit,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toPositionEntity(m *models.InvestmentPosition) *entities.InvestmentPosition {
	return &entities.InvestmentPosition{
		ID:             m.ID,
		UserID:         m.UserID,
		PlanID:         m.PlanID,
		Principal:      m.Principal,
		DailyRate:      m.DailyRate,
		DurationDays:   m.DurationDays,
		ExpectedProfit: m.ExpectedProfit,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		Status:         entities.PositionStatus(m.Status),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toPositionEntities(rows []models.InvestmentPosition) []*entities.InvestmentPosition {
	out := make([]*entities.InvestmentPosition, 0, len(rows))
	for i := range rows {
		out = append(out, toPositionEntity(&rows[i]))
	}
	return out
}
