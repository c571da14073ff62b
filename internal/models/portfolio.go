package models

import "time"

// Holding is an aggregated position in one asset, derived by grouping buy
// transactions on (asset_name, asset_type). Holdings are computed on
// demand and never persisted.
type Holding struct {
	AssetName    string    `json:"asset_name"`
	AssetType    AssetType `json:"asset_type"`
	CoinID       string    `json:"coin_id,omitempty"`
	Shares       float64   `json:"shares"`
	TotalCost    float64   `json:"total_cost"`
	AvgCost      float64   `json:"avg_cost"`
	CurrentPrice float64   `json:"current_price"`
	CurrentValue float64   `json:"current_value"`
	Gain         float64   `json:"gain"`
	GainPct      float64   `json:"gain_pct"`
	// PriceLoaded is false when the live lookup failed and CurrentPrice
	// is the average cost estimate.
	PriceLoaded bool `json:"price_loaded"`
}

// PortfolioSnapshot is the derived aggregate view over the ledger.
// PortfolioValue is cost basis (money spent on buys), not mark-to-market;
// TotalPortfolioValue adds the cash balance on top.
type PortfolioSnapshot struct {
	PortfolioValue      float64               `json:"portfolio_value"`
	CashBalance         float64               `json:"cash_balance"`
	TotalPortfolioValue float64               `json:"total_portfolio_value"`
	AssetBreakdown      map[AssetType]float64 `json:"asset_breakdown"`
	MonthlySpending     float64               `json:"monthly_spending"`
	YearlySpending      float64               `json:"yearly_spending"`
	MonthlyTarget       float64               `json:"monthly_target"`
	YearlyTarget        float64               `json:"yearly_target"`
	ComputedAt          time.Time             `json:"computed_at"`
}

// SeriesFilter selects which view the history time series covers.
// Views are mutually exclusive: a specific asset type is never summed
// with cash.
type SeriesFilter string

const (
	SeriesAll    SeriesFilter = "all"  // all asset types combined with cash
	SeriesCash   SeriesFilter = "cash" // cash balance only
	SeriesStock  SeriesFilter = "stock"
	SeriesETF    SeriesFilter = "etf"
	SeriesCrypto SeriesFilter = "crypto"
)

// ValidSeriesFilter returns true if f is a recognized filter.
func ValidSeriesFilter(f SeriesFilter) bool {
	switch f {
	case SeriesAll, SeriesCash, SeriesStock, SeriesETF, SeriesCrypto:
		return true
	default:
		return false
	}
}

// SeriesPoint is one (label, value) point of the history time series.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// AssetSearchResult is one hit from a price gateway symbol search.
type AssetSearchResult struct {
	Symbol   string    `json:"symbol"`
	Name     string    `json:"name"`
	Type     AssetType `json:"type"`
	CoinID   string    `json:"coin_id,omitempty"`  // crypto only
	Exchange string    `json:"exchange,omitempty"` // equities only
}

// LedgerSnapshot is an immutable copy of ledger state handed to the
// valuation engine. Overlapping computations each hold their own copy, so
// a refresh started mid-flight never observes partial mutations.
type LedgerSnapshot struct {
	Transactions  []Transaction  `json:"transactions"`
	CashMovements []CashMovement `json:"cash_movements"`
	CashBalance   float64        `json:"cash_balance"`
	MonthlyTarget float64        `json:"monthly_target"`
	YearlyTarget  float64        `json:"yearly_target"`
	TakenAt       time.Time      `json:"taken_at"`
}

// LedgerEventKind identifies what changed in a ledger notification.
type LedgerEventKind string

const (
	EventTransactionAdded   LedgerEventKind = "transaction_added"
	EventTransactionDeleted LedgerEventKind = "transaction_deleted"
	EventCashUpdated        LedgerEventKind = "cash_updated"
	EventTargetsUpdated     LedgerEventKind = "targets_updated"
)

// LedgerEvent notifies subscribers that a mutation committed.
type LedgerEvent struct {
	Kind LedgerEventKind `json:"kind"`
	ID   string          `json:"id,omitempty"` // record id where applicable
}
