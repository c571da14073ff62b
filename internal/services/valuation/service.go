// Package valuation computes derived portfolio views over a ledger
// snapshot: cost value, holdings with live prices, breakdowns, and the
// history time series. Stateless per call.
package valuation

import (
	"context"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// SnapshotSource provides the immutable ledger state a computation runs on.
type SnapshotSource interface {
	Snapshot() models.LedgerSnapshot
}

// Compile-time interface check
var _ interfaces.ValuationService = (*Service)(nil)

// Service implements ValuationService.
type Service struct {
	ledger  SnapshotSource
	gateway interfaces.PriceGateway
	logger  *common.Logger

	lookupInterval time.Duration
	lookupTimeout  time.Duration
	historyPoints  int
	now            func() time.Time // injectable clock for testing
}

// NewService creates a valuation service.
func NewService(ledger SnapshotSource, gateway interfaces.PriceGateway, logger *common.Logger, cfg *common.ValuationConfig) *Service {
	historyPoints := cfg.HistoryPoints
	if historyPoints < 2 {
		historyPoints = 6
	}
	return &Service{
		ledger:         ledger,
		gateway:        gateway,
		logger:         logger,
		lookupInterval: cfg.GetLookupInterval(),
		lookupTimeout:  cfg.GetLookupTimeout(),
		historyPoints:  historyPoints,
		now:            time.Now,
	}
}

// CostValue sums amount × price over buy transactions. Sell entries are
// never subtracted — nothing in the system produces them, and netting
// logic is deliberately absent rather than inferred.
func CostValue(transactions []models.Transaction) float64 {
	total := 0.0
	for _, tx := range transactions {
		if tx.Type == models.TxBuy {
			total += tx.CostValue()
		}
	}
	return total
}

// SpendingInPeriod sums buy cost over transactions matching the period
// predicate, evaluated against the transaction date in local time.
func SpendingInPeriod(transactions []models.Transaction, inPeriod func(time.Time) bool) float64 {
	total := 0.0
	for _, tx := range transactions {
		if tx.Type == models.TxBuy && inPeriod(tx.Date) {
			total += tx.CostValue()
		}
	}
	return total
}

// AssetBreakdown groups buy cost by asset type. Transactions without a
// recognized type were already normalized to AssetTypeOther at creation.
func AssetBreakdown(transactions []models.Transaction) map[models.AssetType]float64 {
	breakdown := make(map[models.AssetType]float64)
	for _, tx := range transactions {
		if tx.Type != models.TxBuy {
			continue
		}
		assetType := tx.AssetType
		if !models.ValidAssetType(assetType) {
			assetType = models.AssetTypeOther
		}
		breakdown[assetType] += tx.CostValue()
	}
	return breakdown
}

// GroupHoldings aggregates buy transactions into holdings keyed on
// (asset name, asset type). Groups that net to zero or negative shares are
// dropped. The result is sorted by name then type so downstream price
// lookups run in a fixed, deterministic order.
func GroupHoldings(transactions []models.Transaction) []models.Holding {
	type groupKey struct {
		name string
		kind models.AssetType
	}

	groups := make(map[groupKey]*models.Holding)
	for _, tx := range transactions {
		if tx.Type != models.TxBuy {
			continue
		}
		key := groupKey{name: tx.AssetName, kind: tx.AssetType}
		h, ok := groups[key]
		if !ok {
			h = &models.Holding{
				AssetName: tx.AssetName,
				AssetType: tx.AssetType,
				CoinID:    tx.CoinID,
			}
			groups[key] = h
		}
		h.Shares += tx.Amount
		h.TotalCost += tx.CostValue()
	}

	holdings := make([]models.Holding, 0, len(groups))
	for _, h := range groups {
		if h.Shares <= 0 {
			continue
		}
		h.AvgCost = h.TotalCost / h.Shares
		holdings = append(holdings, *h)
	}

	sort.Slice(holdings, func(i, j int) bool {
		if holdings[i].AssetName != holdings[j].AssetName {
			return holdings[i].AssetName < holdings[j].AssetName
		}
		return holdings[i].AssetType < holdings[j].AssetType
	})

	return holdings
}

// Overview computes the aggregate snapshot without any price lookups.
// An empty ledger yields a zero-valued snapshot, never nil.
func (s *Service) Overview() *models.PortfolioSnapshot {
	snap := s.ledger.Snapshot()
	now := s.now()

	costValue := CostValue(snap.Transactions)

	return &models.PortfolioSnapshot{
		PortfolioValue:      costValue,
		CashBalance:         snap.CashBalance,
		TotalPortfolioValue: costValue + snap.CashBalance,
		AssetBreakdown:      AssetBreakdown(snap.Transactions),
		MonthlySpending: SpendingInPeriod(snap.Transactions, func(d time.Time) bool {
			return d.Year() == now.Year() && d.Month() == now.Month()
		}),
		YearlySpending: SpendingInPeriod(snap.Transactions, func(d time.Time) bool {
			return d.Year() == now.Year()
		}),
		MonthlyTarget: snap.MonthlyTarget,
		YearlyTarget:  snap.YearlyTarget,
		ComputedAt:    now,
	}
}

// Holdings aggregates positions and resolves current prices through the
// gateway. Lookups run strictly sequentially behind a minimum-interval
// gate — the upstream free tiers allow roughly one request per second,
// so parallelizing here would trip their rate limits. A failed or
// timed-out lookup degrades that one holding to its average-cost estimate
// and the batch continues. Returns an error only when ctx is cancelled.
func (s *Service) Holdings(ctx context.Context) ([]models.Holding, error) {
	snap := s.ledger.Snapshot()
	holdings := GroupHoldings(snap.Transactions)

	limit := rate.Inf
	if s.lookupInterval > 0 {
		limit = rate.Every(s.lookupInterval)
	}
	pacer := rate.NewLimiter(limit, 1)

	for i := range holdings {
		if err := pacer.Wait(ctx); err != nil {
			return nil, err
		}

		h := &holdings[i]

		lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
		price, ok := s.gateway.GetAssetPrice(lookupCtx, h.AssetName, h.AssetType, h.CoinID)
		cancel()

		if ok {
			h.CurrentPrice = price
			h.CurrentValue = h.Shares * price
			h.Gain = h.CurrentValue - h.TotalCost
			if h.TotalCost > 0 {
				h.GainPct = h.Gain / h.TotalCost * 100
			}
			h.PriceLoaded = true
		} else {
			h.CurrentPrice = h.AvgCost
			h.CurrentValue = h.TotalCost
			h.Gain = 0
			h.GainPct = 0
			h.PriceLoaded = false
			s.logger.Warn().Str("asset", h.AssetName).
				Str("type", string(h.AssetType)).
				Msg("Price unavailable, using average cost estimate")
		}
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].CurrentValue > holdings[j].CurrentValue
	})

	return holdings, nil
}
