package usecases

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cryptovest.backend/internal/domain/entities"
	"cryptovest.backend/pkg/logger"
)

// ComputeDashboard derives a user's money summary from their entries and positions.
// Only completed entries count. Principal locked in active positions is taken out of the
// liquid balance, and the result is floored at zero.
func ComputeDashboard(ctx context.Context, entries []*entities.LedgerEntry, positions []*entities.InvestmentPosition) entities.DashboardSummary {
	balance := decimal.Zero
	profit := decimal.Zero
	withdrawn := decimal.Zero
	bonus := decimal.Zero
	activeDeposit := decimal.Zero

	for _, e := range entries {
		if e == nil || e.Status != entities.EntryStatusCompleted {
			continue
		}
		if !e.Wellformed() {
			logger.Warn(ctx, "Skipping malformed ledger entry",
				zap.String("entryId", e.ID.String()),
				zap.String("kind", string(e.Kind)),
				zap.String("amount", e.Amount.String()),
			)
			continue
		}
		switch e.Kind {
		case entities.EntryKindDeposit:
			balance = balance.Add(e.Amount)
		case entities.EntryKindProfit:
			balance = balance.Add(e.Amount)
			profit = profit.Add(e.Amount)
		case entities.EntryKindBonus:
			balance = balance.Add(e.Amount)
			bonus = bonus.Add(e.Amount)
		case entities.EntryKindWithdraw:
			balance = balance.Sub(e.Amount)
			withdrawn = withdrawn.Add(e.Amount)
		}
	}

	for _, p := range positions {
		if p != nil && p.Status == entities.PositionStatusActive {
			activeDeposit = activeDeposit.Add(p.Principal)
		}
	}

	balance = decimal.Max(decimal.Zero, balance.Sub(activeDeposit))

	return entities.DashboardSummary{
		Balance:       balance,
		ActiveDeposit: activeDeposit,
		Profit:        profit,
		Withdrawn:     withdrawn,
		Bonus:         bonus,
	}
}

// ProjectReturn computes the simple-interest outcome of holding principal in plan to term.
func ProjectReturn(plan entities.Plan, principal decimal.Decimal) entities.ReturnProjection {
	daily := principal.Mul(plan.DailyRate)
	total := daily.Mul(decimal.NewFromInt(int64(plan.DurationDays)))
	return entities.ReturnProjection{
		PlanID:      plan.ID,
		Principal:   principal,
		DailyProfit: daily,
		TotalProfit: total,
		TotalReturn: principal.Add(total),
	}
}

// CommissionRate is the platform's cut of completed deposit volume.
var CommissionRate = decimal.RequireFromString("0.10")

// AggregateStats computes platform rollups with a full scan of entries and positions.
func AggregateStats(ctx context.Context, totalUsers int64, entries []*entities.LedgerEntry, positions []*entities.InvestmentPosition) entities.AdminStats {
	stats := entities.AdminStats{
		TotalUsers:  totalUsers,
		TotalVolume: decimal.Zero,
		Revenue:     decimal.Zero,
	}

	for _, e := range entries {
		if e == nil || e.Status != entities.EntryStatusCompleted {
			continue
		}
		if !e.Wellformed() {
			logger.Warn(ctx, "Skipping malformed ledger entry in stats", zap.String("entryId", e.ID.String()))
			continue
		}
		stats.TotalVolume = stats.TotalVolume.Add(e.Amount)
		if e.Kind == entities.EntryKindDeposit {
			stats.Revenue = stats.Revenue.Add(e.Amount.Mul(CommissionRate))
		}
	}

	for _, p := range positions {
		if p != nil && p.Status == entities.PositionStatusActive {
			stats.ActiveInvestments++
		}
	}
	return stats
}
