package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PositionStatus represents the lifecycle status of an investment position
type PositionStatus string

const (
	PositionStatusActive    PositionStatus = "active"
	PositionStatusCompleted PositionStatus = "completed"
	PositionStatusCancelled PositionStatus = "cancelled"
)

func (s PositionStatus) Valid() bool {
	switch s {
	case PositionStatusActive, PositionStatusCompleted, PositionStatusCancelled:
		return true
	}
	return false
}

// CanTransitionPosition reports whether a position may move between statuses.
func CanTransitionPosition(from, to PositionStatus) bool {
	return from == PositionStatusActive && (to == PositionStatusCompleted || to == PositionStatusCancelled)
}

// InvestmentPosition is a principal committed to a plan for a fixed term.
// EndDate and ExpectedProfit are fixed at creation.
type InvestmentPosition struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"userId"`
	PlanID         string          `json:"planId"`
	Principal      decimal.Decimal `json:"principal"`
	DailyRate      decimal.Decimal `json:"dailyRate"`
	DurationDays   int             `json:"durationDays"`
	ExpectedProfit decimal.Decimal `json:"expectedProfit"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`
	Status         PositionStatus  `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Matured reports whether the position's term has elapsed at t.
func (p *InvestmentPosition) Matured(t time.Time) bool {
	return !p.EndDate.After(t)
}

// OpenInvestmentInput represents input for opening a position
type OpenInvestmentInput struct {
	PlanID string          `json:"planId" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required,dgt0"`
}

// ProjectionInput represents input for a plan return projection
type ProjectionInput struct {
	Amount decimal.Decimal `json:"amount" binding:"required,dgt0"`
}
