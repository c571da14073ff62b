// Package ledger holds the authoritative append-only transaction and cash
// movement state, synchronized to the key-value store on every mutation.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// Default savings targets applied when nothing is persisted yet.
const (
	DefaultMonthlyTarget = 1000
	DefaultYearlyTarget  = 12000
)

// ErrValidation wraps all input validation failures.
var ErrValidation = errors.New("invalid input")

// ErrNegativeBalance rejects any mutation that would drive the cash
// balance below zero. The ledger is left unchanged.
var ErrNegativeBalance = errors.New("cash balance cannot go negative")

// subscriberBuffer is the per-subscriber event channel capacity. Slow
// subscribers drop events rather than blocking mutations.
const subscriberBuffer = 8

// Compile-time interface check
var _ interfaces.LedgerService = (*Service)(nil)

// Service implements LedgerService. All state mutations happen under mu
// and are persisted before the mutation reports success; a persistence
// failure rolls the in-memory change back so memory and disk stay in sync.
type Service struct {
	store  interfaces.KeyValueStore
	logger *common.Logger
	now    func() time.Time // injectable clock for testing

	mu            sync.RWMutex
	transactions  []models.Transaction
	cashMovements []models.CashMovement
	cashBalance   float64
	monthlyTarget float64
	yearlyTarget  float64

	subMu   sync.Mutex
	subs    map[int]chan models.LedgerEvent
	nextSub int
}

// NewService creates a ledger service. Call Load before first use.
func NewService(store interfaces.KeyValueStore, logger *common.Logger) *Service {
	return &Service{
		store:         store,
		logger:        logger,
		now:           time.Now,
		monthlyTarget: DefaultMonthlyTarget,
		yearlyTarget:  DefaultYearlyTarget,
		subs:          make(map[int]chan models.LedgerEvent),
	}
}

// Load reads persisted state into memory. Each key degrades independently:
// a missing key keeps its default silently, an unreadable or unparsable
// key is logged and keeps its default, and no key affects any other.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, ok := s.loadKey(ctx, interfaces.KeyTransactions); ok {
		var txs []models.Transaction
		if err := json.Unmarshal([]byte(raw), &txs); err != nil {
			s.logger.Warn().Err(err).Str("key", interfaces.KeyTransactions).Msg("Unparsable key, using default")
		} else {
			s.transactions = txs
		}
	}

	if raw, ok := s.loadKey(ctx, interfaces.KeyCashMovements); ok {
		var movements []models.CashMovement
		if err := json.Unmarshal([]byte(raw), &movements); err != nil {
			s.logger.Warn().Err(err).Str("key", interfaces.KeyCashMovements).Msg("Unparsable key, using default")
		} else {
			s.cashMovements = movements
		}
	}

	s.cashBalance = s.loadFloat(ctx, interfaces.KeyCashBalance, 0)
	s.monthlyTarget = s.loadFloat(ctx, interfaces.KeyMonthlyTarget, DefaultMonthlyTarget)
	s.yearlyTarget = s.loadFloat(ctx, interfaces.KeyYearlyTarget, DefaultYearlyTarget)

	s.logger.Info().
		Int("transactions", len(s.transactions)).
		Int("cash_movements", len(s.cashMovements)).
		Float64("cash_balance", s.cashBalance).
		Msg("Ledger loaded")

	return nil
}

// loadKey fetches a raw value. Missing keys report ok=false silently;
// read failures are logged and also report ok=false.
func (s *Service) loadKey(ctx context.Context, key string) (string, bool) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, interfaces.ErrKeyNotFound) {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to read key, using default")
		}
		return "", false
	}
	return raw, true
}

// loadFloat fetches a stringified number, falling back to def.
func (s *Service) loadFloat(ctx context.Context, key string, def float64) float64 {
	raw, ok := s.loadKey(ctx, key)
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Unparsable key, using default")
		return def
	}
	return v
}

// validateInput checks caller-supplied transaction fields.
func validateInput(input interfaces.AddTransactionInput) error {
	if strings.TrimSpace(input.AssetName) == "" {
		return fmt.Errorf("%w: asset name is required", ErrValidation)
	}
	if input.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if input.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	return nil
}

// AddTransaction validates, assigns id and date, appends, and persists.
// The entry is immutable once created.
func (s *Service) AddTransaction(ctx context.Context, input interfaces.AddTransactionInput) (*models.Transaction, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	tx := models.Transaction{
		ID:        models.NewID(now),
		AssetName: strings.TrimSpace(input.AssetName),
		AssetType: models.NormalizeAssetType(input.AssetType),
		Amount:    input.Amount,
		Price:     input.Price,
		Type:      models.TxBuy,
		CoinID:    input.CoinID,
		Date:      now,
	}

	s.transactions = append(s.transactions, tx)

	if err := s.persistTransactions(ctx); err != nil {
		s.transactions = s.transactions[:len(s.transactions)-1]
		return nil, fmt.Errorf("failed to persist transaction: %w", err)
	}

	s.logger.Info().Str("id", tx.ID).Str("asset", tx.AssetName).
		Str("type", string(tx.AssetType)).
		Float64("amount", tx.Amount).Float64("price", tx.Price).
		Msg("Transaction added")

	s.notify(models.LedgerEvent{Kind: models.EventTransactionAdded, ID: tx.ID})
	return &tx, nil
}

// DeleteTransaction removes the matching entry and persists. Unknown ids
// are a no-op, not an error.
func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, tx := range s.transactions {
		if tx.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	prev := s.transactions
	next := make([]models.Transaction, 0, len(prev)-1)
	next = append(next, prev[:idx]...)
	next = append(next, prev[idx+1:]...)
	s.transactions = next

	if err := s.persistTransactions(ctx); err != nil {
		s.transactions = prev
		return fmt.Errorf("failed to persist transaction delete: %w", err)
	}

	s.logger.Info().Str("id", id).Msg("Transaction deleted")
	s.notify(models.LedgerEvent{Kind: models.EventTransactionDeleted, ID: id})
	return nil
}

// Transactions returns a copy of the transaction list.
func (s *Service) Transactions() []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// UpdateCashBalance applies a signed delta and appends an audit movement.
// A delta that would drive the balance negative is rejected with the
// ledger unchanged.
func (s *Service) UpdateCashBalance(ctx context.Context, delta float64) (*models.CashMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newBalance := s.cashBalance + delta
	if newBalance < 0 {
		return nil, fmt.Errorf("%w: balance %.2f, delta %.2f", ErrNegativeBalance, s.cashBalance, delta)
	}

	return s.applyMovement(ctx, delta, newBalance, models.MovementTypeForDelta(delta))
}

// SetCashBalance sets the balance directly, recording the implied delta as
// a set_balance movement.
func (s *Service) SetCashBalance(ctx context.Context, balance float64) (*models.CashMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if balance < 0 {
		return nil, fmt.Errorf("%w: requested balance %.2f", ErrNegativeBalance, balance)
	}

	return s.applyMovement(ctx, balance-s.cashBalance, balance, models.CashSetBalance)
}

// applyMovement appends a movement, updates the balance, and persists
// both. Caller holds the write lock. Any persistence failure rolls both
// in-memory changes back.
func (s *Service) applyMovement(ctx context.Context, delta, newBalance float64, kind models.CashMovementType) (*models.CashMovement, error) {
	now := s.now()
	movement := models.CashMovement{
		ID:      models.NewID(now),
		Date:    now,
		Amount:  delta,
		Balance: newBalance,
		Type:    kind,
	}

	prevBalance := s.cashBalance
	s.cashMovements = append(s.cashMovements, movement)
	s.cashBalance = newBalance

	if err := s.persistCash(ctx); err != nil {
		s.cashMovements = s.cashMovements[:len(s.cashMovements)-1]
		s.cashBalance = prevBalance
		return nil, fmt.Errorf("failed to persist cash movement: %w", err)
	}

	s.logger.Info().Str("id", movement.ID).Str("type", string(kind)).
		Float64("amount", delta).Float64("balance", newBalance).
		Msg("Cash balance updated")

	s.notify(models.LedgerEvent{Kind: models.EventCashUpdated, ID: movement.ID})
	return &movement, nil
}

// CashBalance returns the current cash balance.
func (s *Service) CashBalance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cashBalance
}

// CashMovements returns a copy of the movement audit trail.
func (s *Service) CashMovements() []models.CashMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CashMovement, len(s.cashMovements))
	copy(out, s.cashMovements)
	return out
}

// SetMonthlyTarget persists a new monthly savings target.
func (s *Service) SetMonthlyTarget(ctx context.Context, target float64) error {
	return s.setTarget(ctx, interfaces.KeyMonthlyTarget, target, &s.monthlyTarget)
}

// SetYearlyTarget persists a new yearly savings target.
func (s *Service) SetYearlyTarget(ctx context.Context, target float64) error {
	return s.setTarget(ctx, interfaces.KeyYearlyTarget, target, &s.yearlyTarget)
}

func (s *Service) setTarget(ctx context.Context, key string, target float64, field *float64) error {
	if target < 0 {
		return fmt.Errorf("%w: target must not be negative", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := *field
	*field = target
	if err := s.store.Set(ctx, key, formatFloat(target)); err != nil {
		*field = prev
		return fmt.Errorf("failed to persist target: %w", err)
	}

	s.notify(models.LedgerEvent{Kind: models.EventTargetsUpdated})
	return nil
}

// Snapshot returns an immutable copy of the current ledger state.
func (s *Service) Snapshot() models.LedgerSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := make([]models.Transaction, len(s.transactions))
	copy(txs, s.transactions)
	movements := make([]models.CashMovement, len(s.cashMovements))
	copy(movements, s.cashMovements)

	return models.LedgerSnapshot{
		Transactions:  txs,
		CashMovements: movements,
		CashBalance:   s.cashBalance,
		MonthlyTarget: s.monthlyTarget,
		YearlyTarget:  s.yearlyTarget,
		TakenAt:       s.now(),
	}
}

// Subscribe registers a listener for committed mutations. Events are
// dropped, never blocked on, when a subscriber falls behind.
func (s *Service) Subscribe() (<-chan models.LedgerEvent, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan models.LedgerEvent, subscriberBuffer)
	s.subs[id] = ch

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (s *Service) notify(event models.LedgerEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// persistTransactions writes the transaction list. Caller holds the lock.
func (s *Service) persistTransactions(ctx context.Context) error {
	data, err := json.Marshal(s.transactions)
	if err != nil {
		return fmt.Errorf("failed to marshal transactions: %w", err)
	}
	return s.store.Set(ctx, interfaces.KeyTransactions, string(data))
}

// persistCash writes the balance scalar and the movement list. Caller
// holds the lock.
func (s *Service) persistCash(ctx context.Context) error {
	if err := s.store.Set(ctx, interfaces.KeyCashBalance, formatFloat(s.cashBalance)); err != nil {
		return err
	}
	data, err := json.Marshal(s.cashMovements)
	if err != nil {
		return fmt.Errorf("failed to marshal cash movements: %w", err)
	}
	return s.store.Set(ctx, interfaces.KeyCashMovements, string(data))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
