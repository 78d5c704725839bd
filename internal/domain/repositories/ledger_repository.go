package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cryptovest.backend/internal/domain/entities"
	"cryptovest.backend/pkg/utils"
)

// LedgerRepository is the single storage interface for ledger entries.
// Every backend adapter implements it with identical semantics.
type LedgerRepository interface {
	// Append validates and stores a new entry, assigning its id and timestamps.
	Append(ctx context.Context, entry *entities.LedgerEntry) error
	// Transition moves a pending entry to a terminal status and returns the updated entry.
	Transition(ctx context.Context, id uuid.UUID, status entities.EntryStatus) (*entities.LedgerEntry, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.LedgerEntry, error)
	GetByExternalRef(ctx context.Context, ref string) (*entities.LedgerEntry, error)
	// ListByUser returns newest entries first; limit <= 0 returns all of them.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.LedgerEntry, error)
	// ListAll scans every entry, optionally filtered by status.
	ListAll(ctx context.Context, status *entities.EntryStatus) ([]*entities.LedgerEntry, error)
	// ListPage returns one page of entries, newest first, and the total matching count.
	ListPage(ctx context.Context, status *entities.EntryStatus, pagination utils.PaginationParams) ([]*entities.LedgerEntry, int64, error)
}

// InvestmentRepository stores investment positions
type InvestmentRepository interface {
	Create(ctx context.Context, position *entities.InvestmentPosition) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.InvestmentPosition, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.InvestmentPosition, error)
	ListAll(ctx context.Context, status *entities.PositionStatus) ([]*entities.InvestmentPosition, error)
	// Transition moves an active position to completed or cancelled.
	Transition(ctx context.Context, id uuid.UUID, status entities.PositionStatus) (*entities.InvestmentPosition, error)
	// ListMatured returns active positions whose end date is at or before asOf.
	ListMatured(ctx context.Context, asOf time.Time, limit int) ([]*entities.InvestmentPosition, error)
}
