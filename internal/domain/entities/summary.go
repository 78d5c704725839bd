package entities

import "github.com/shopspring/decimal"

// DashboardSummary is the derived per-user money view
type DashboardSummary struct {
	Balance       decimal.Decimal `json:"balance"`
	ActiveDeposit decimal.Decimal `json:"activeDeposit"`
	Profit        decimal.Decimal `json:"profit"`
	Withdrawn     decimal.Decimal `json:"withdrawn"`
	Bonus         decimal.Decimal `json:"bonus"`
}

// AdminStats is the derived platform-wide rollup
type AdminStats struct {
	TotalUsers        int64           `json:"totalUsers"`
	TotalVolume       decimal.Decimal `json:"totalVolume"`
	ActiveInvestments int64           `json:"activeInvestments"`
	Revenue           decimal.Decimal `json:"revenue"`
}
