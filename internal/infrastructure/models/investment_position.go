package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvestmentPosition struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	PlanID         string          `gorm:"type:varchar(50);not null"`
	Principal      decimal.Decimal `gorm:"type:decimal(36,18);not null"`
	DailyRate      decimal.Decimal `gorm:"type:decimal(10,6);not null"`
	DurationDays   int             `gorm:"not null"`
	ExpectedProfit decimal.Decimal `gorm:"type:decimal(36,18);not null"`
	StartDate      time.Time       `gorm:"not null"`
	EndDate        time.Time       `gorm:"not null;index"`
	Status         string          `gorm:"type:varchar(20);not null;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (InvestmentPosition) TableName() string { return "investment_positions" }
