package valuation

import (
	"sort"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

// seriesEvent is one value-changing event in the chronological replay.
type seriesEvent struct {
	date  time.Time
	delta float64
}

// TimeSeries replays transactions and cash movements in chronological
// order, buckets the running total by calendar month, and keeps the most
// recent buckets. The series always has at least two points: when the
// ledger produces fewer, a synthetic pair (Start at 0, Now at the current
// total) keeps charting callers away from degenerate single-point input.
//
// Filters are mutually exclusive views: all asset types combined with
// cash, cash alone, or one asset type alone.
func (s *Service) TimeSeries(filter models.SeriesFilter) []models.SeriesPoint {
	snap := s.ledger.Snapshot()

	events := collectEvents(snap, filter)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].date.Before(events[j].date)
	})

	// Bucket by calendar month, keeping the last running total per bucket.
	type bucket struct {
		key   int // year*12 + month
		label string
		value float64
	}
	var buckets []bucket
	running := 0.0
	for _, e := range events {
		running += e.delta
		key := e.date.Year()*12 + int(e.date.Month())
		if n := len(buckets); n > 0 && buckets[n-1].key == key {
			buckets[n-1].value = running
			continue
		}
		buckets = append(buckets, bucket{key: key, label: e.date.Format("Jan"), value: running})
	}

	if len(buckets) > s.historyPoints {
		buckets = buckets[len(buckets)-s.historyPoints:]
	}

	if len(buckets) < 2 {
		return []models.SeriesPoint{
			{Label: "Start", Value: 0},
			{Label: "Now", Value: currentTotal(snap, filter)},
		}
	}

	points := make([]models.SeriesPoint, len(buckets))
	for i, b := range buckets {
		points[i] = models.SeriesPoint{Label: b.label, Value: b.value}
	}
	return points
}

// collectEvents selects the ledger events contributing to a filter's view.
// Buys add cost, sells subtract it; cash movements contribute their signed
// delta (set_balance movements already store the implied delta).
func collectEvents(snap models.LedgerSnapshot, filter models.SeriesFilter) []seriesEvent {
	var events []seriesEvent

	includeTx := func(tx models.Transaction) bool {
		switch filter {
		case models.SeriesAll:
			return true
		case models.SeriesCash:
			return false
		default:
			return tx.AssetType == models.AssetType(filter)
		}
	}

	for _, tx := range snap.Transactions {
		if !includeTx(tx) {
			continue
		}
		delta := tx.CostValue()
		if tx.Type == models.TxSell {
			delta = -delta
		}
		events = append(events, seriesEvent{date: tx.Date, delta: delta})
	}

	if filter == models.SeriesAll || filter == models.SeriesCash {
		for _, m := range snap.CashMovements {
			events = append(events, seriesEvent{date: m.Date, delta: m.Amount})
		}
	}

	return events
}

// currentTotal computes the present value of a filter's view, used for the
// synthetic "Now" point.
func currentTotal(snap models.LedgerSnapshot, filter models.SeriesFilter) float64 {
	switch filter {
	case models.SeriesAll:
		return CostValue(snap.Transactions) + snap.CashBalance
	case models.SeriesCash:
		return snap.CashBalance
	default:
		return AssetBreakdown(snap.Transactions)[models.AssetType(filter)]
	}
}
