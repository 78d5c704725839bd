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

// LedgerRepository implements ledger entry storage on GORM
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append validates and inserts a new entry
func (r *LedgerRepository) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.ID == uuid.Nil {
		entry.ID = utils.GenerateUUIDv7()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entry.UpdatedAt = entry.CreatedAt

	if err := GetDB(ctx, r.db).Create(toLedgerModel(entry)).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// Transition moves a pending entry to completed or failed.
// The update is guarded on the current status so concurrent callers get a single winner.
func (r *LedgerRepository) Transition(ctx context.Context, id uuid.UUID, status entities.EntryStatus) (*entities.LedgerEntry, error) {
	if !status.Terminal() {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: entry cannot move to %q", domainerrors.ErrInvalidTransition, status)
	}

	result := GetDB(ctx, r.db).
		Model(&models.LedgerEntry{}).
		Where("id = ? AND status = ?", id, string(entities.EntryStatusPending)).
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
		return nil, fmt.Errorf("%w: entry is %s", domainerrors.ErrInvalidTransition, current.Status)
	}
	return r.GetByID(ctx, id)
}

// GetByID gets an entry by ID
func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.LedgerEntry, error) {
	var m models.LedgerEntry
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return toLedgerEntity(&m), nil
}

// GetByExternalRef gets an entry by its processor reference
func (r *LedgerRepository) GetByExternalRef(ctx context.Context, ref string) (*entities.LedgerEntry, error) {
	var m models.LedgerEntry
	if err := GetDB(ctx, r.db).Where("external_ref = ?", ref).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return toLedgerEntity(&m), nil
}

// ListByUser lists a user's entries, newest first
func (r *LedgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.LedgerEntry, error) {
	query := GetDB(ctx, r.db).Where("user_id = ?", userID).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.LedgerEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLedgerEntities(rows), nil
}

// ListAll lists every entry, optionally filtered by status
func (r *LedgerRepository) ListAll(ctx context.Context, status *entities.EntryStatus) ([]*entities.LedgerEntry, error) {
	query := GetDB(ctx, r.db).Order("created_at DESC, id DESC")
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}

	var rows []models.LedgerEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLedgerEntities(rows), nil
}

// ListPage lists one page of entries, optionally filtered by status
func (r *LedgerRepository) ListPage(ctx context.Context, status *entities.EntryStatus, pagination utils.PaginationParams) ([]*entities.LedgerEntry, int64, error) {
	query := GetDB(ctx, r.db).Model(&models.LedgerEntry{})
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.CalculateOffset())
	}

	var rows []models.LedgerEntry
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toLedgerEntities(rows), total, nil
}

func toLedgerModel(e *entities.LedgerEntry) *models.LedgerEntry {
	return &models.LedgerEntry{
		ID:          e.ID,
		UserID:      e.UserID,
		Kind:        string(e.Kind),
		Amount:      e.Amount,
		Method:      e.Method,
		Status:      string(e.Status),
		ExternalRef: e.ExternalRef,
		ReceiptRef:  e.ReceiptRef,
		Address:     e.Address,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toLedgerEntity(m *models.LedgerEntry) *entities.LedgerEntry {
	return &entities.LedgerEntry{
		ID:          m.ID,
		UserID:      m.UserID,
		Kind:        entities.EntryKind(m.Kind),
		Amount:      m.Amount,
		Method:      m.Method,
		Status:      entities.EntryStatus(m.Status),
		ExternalRef: m.ExternalRef,
		ReceiptRef:  m.ReceiptRef,
		Address:     m.Address,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func toLedgerEntities(rows []models.LedgerEntry) []*entities.LedgerEntry {
	out := make([]*entities.LedgerEntry, 0, len(rows))
	for i := range rows {
		out = append(out, toLedgerEntity(&rows[i]))
	}
	return out
}
