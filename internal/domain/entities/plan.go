package entities

import (
	"github.com/shopspring/decimal"
)

// Plan is an investment product with a fixed daily rate, amount bounds and term
type Plan struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DailyRate    decimal.Decimal `json:"dailyRate"`
	MinAmount    decimal.Decimal `json:"minAmount"`
	MaxAmount    decimal.Decimal `json:"maxAmount"`
	DurationDays int             `json:"durationDays"`
	Features     []string        `json:"features"`
}

// Accepts reports whether principal lies within [MinAmount, MaxAmount].
func (p Plan) Accepts(principal decimal.Decimal) bool {
	return principal.GreaterThanOrEqual(p.MinAmount) && principal.LessThanOrEqual(p.MaxAmount)
}

// ReturnProjection is the simple-interest outcome of holding a plan to term
type ReturnProjection struct {
	PlanID      string          `json:"planId"`
	Principal   decimal.Decimal `json:"principal"`
	DailyProfit decimal.Decimal `json:"dailyProfit"`
	TotalProfit decimal.Decimal `json:"totalProfit"`
	TotalReturn decimal.Decimal `json:"totalReturn"`
}

// PlanCatalog is an immutable, ordered set of plans
type PlanCatalog struct {
	plans []Plan
	byID  map[string]Plan
}

// NewPlanCatalog builds a catalog; later duplicates of an id are ignored.
func NewPlanCatalog(plans ...Plan) *PlanCatalog {
	c := &PlanCatalog{byID: make(map[string]Plan, len(plans))}
	for _, p := range plans {
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		c.plans = append(c.plans, p)
		c.byID[p.ID] = p
	}
	return c
}

// Get looks a plan up by id.
func (c *PlanCatalog) Get(id string) (Plan, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// List returns the plans in catalog order.
func (c *PlanCatalog) List() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

func plan(id, name, rate string, min, max int64, features ...string) Plan {
	return Plan{
		ID:           id,
		Name:         name,
		DailyRate:    decimal.RequireFromString(rate),
		MinAmount:    decimal.NewFromInt(min),
		MaxAmount:    decimal.NewFromInt(max),
		DurationDays: 7,
		Features:     features,
	}
}

// DefaultPlanCatalog returns the platform's standard plans.
func DefaultPlanCatalog() *PlanCatalog {
	return NewPlanCatalog(
		plan("basic", "Basic", "0.015", 100, 1000, "1.5% daily return", "7 day term", "Email support"),
		plan("standard", "Standard", "0.02", 1000, 5000, "2% daily return", "7 day term", "Priority support"),
		plan("advanced", "Advanced", "0.025", 5000, 15000, "2.5% daily return", "7 day term", "Dedicated manager"),
		plan("business", "Business", "0.04", 15000, 50000, "4% daily return", "7 day term", "Dedicated manager", "Instant withdrawals"),
		plan("veteran", "Veteran", "0.055", 50000, 500000, "5.5% daily return", "7 day term", "VIP desk", "Instant withdrawals"),
	)
}
