package interfaces

import (
	"context"

	"github.com/bobmcallan/folio/internal/models"
)

// AddTransactionInput carries caller-supplied fields for a new transaction.
// ID and Date are assigned by the ledger at creation.
type AddTransactionInput struct {
	AssetName string  `json:"asset_name"`
	AssetType string  `json:"asset_type"`
	Amount    float64 `json:"amount"`
	Price     float64 `json:"price"`
	CoinID    string  `json:"coin_id,omitempty"`
}

// LedgerService holds the authoritative append-only transaction and cash
// movement state, synchronized to the key-value store on every mutation.
type LedgerService interface {
	// Load reads persisted state. Missing or unparsable keys fall back to
	// their zero values individually; other keys are unaffected.
	Load(ctx context.Context) error

	AddTransaction(ctx context.Context, input AddTransactionInput) (*models.Transaction, error)
	// DeleteTransaction removes the matching entry. Unknown ids are a no-op.
	DeleteTransaction(ctx context.Context, id string) error
	Transactions() []models.Transaction

	// UpdateCashBalance applies a signed delta. A delta that would drive the
	// balance negative is rejected and the ledger left unchanged.
	UpdateCashBalance(ctx context.Context, delta float64) (*models.CashMovement, error)
	// SetCashBalance sets the balance directly, recording the implied delta.
	SetCashBalance(ctx context.Context, balance float64) (*models.CashMovement, error)
	CashBalance() float64
	CashMovements() []models.CashMovement

	SetMonthlyTarget(ctx context.Context, target float64) error
	SetYearlyTarget(ctx context.Context, target float64) error

	// Snapshot returns an immutable copy of the current ledger state.
	Snapshot() models.LedgerSnapshot

	// Subscribe registers a listener for committed mutations. The returned
	// cancel function removes the subscription.
	Subscribe() (<-chan models.LedgerEvent, func())
}

// ValuationService computes derived views over a ledger snapshot.
// Stateless per call: aggregates over an empty ledger are zero-valued,
// never nil.
type ValuationService interface {
	// Overview computes the aggregate snapshot without any price lookups.
	Overview() *models.PortfolioSnapshot

	// Holdings aggregates positions and resolves current prices through the
	// gateway, sequentially with a minimum inter-request interval. A failed
	// lookup degrades that holding to its average-cost estimate; it never
	// aborts the batch. Returns an error only when ctx is cancelled.
	Holdings(ctx context.Context) ([]models.Holding, error)

	// TimeSeries replays the ledger chronologically into monthly buckets.
	// Always returns at least two points.
	TimeSeries(filter models.SeriesFilter) []models.SeriesPoint

	// RenderChart renders the time series for a filter as a PNG.
	RenderChart(filter models.SeriesFilter) ([]byte, error)
}

// GoalService manages savings goals and their progress.
type GoalService interface {
	List(ctx context.Context) ([]models.Goal, error)
	Add(ctx context.Context, title string, targetAmount, currentAmount float64) (*models.Goal, error)
	Update(ctx context.Context, id string, title *string, targetAmount, currentAmount *float64) (*models.Goal, error)
	Delete(ctx context.Context, id string) error
}
