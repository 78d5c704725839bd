package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

type LedgerEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_user_created,priority:1"`
	Kind        string          `gorm:"type:varchar(20);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(36,18);not null"`
	Method      string          `gorm:"type:varchar(50);not null"`
	Status      string          `gorm:"type:varchar(20);not null;index"`
	ExternalRef null.String     `gorm:"type:varchar(255);uniqueIndex"`
	ReceiptRef  null.String     `gorm:"type:varchar(512)"`
	Address     null.String     `gorm:"type:varchar(255)"`
	CreatedAt   time.Time       `gorm:"index:idx_ledger_user_created,priority:2"`
	UpdatedAt   time.Time
}

func (LedgerEntry) TableName() string { return "ledger_entries" }
