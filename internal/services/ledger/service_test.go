package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// memStore is an in-memory KeyValueStore. failSet, when set, rejects all
// writes to simulate persistence failures.
type memStore struct {
	data    map[string]string
	failSet bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", fmt.Errorf("'%s': %w", key, interfaces.ErrKeyNotFound)
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key, value string) error {
	if m.failSet {
		return errors.New("disk full")
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memStore) Close() error { return nil }

func newTestService(t *testing.T, store interfaces.KeyValueStore) *Service {
	t.Helper()
	s := NewService(store, common.NewSilentLogger())
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s
}

func buyInput(name, kind string, amount, price float64) interfaces.AddTransactionInput {
	return interfaces.AddTransactionInput{AssetName: name, AssetType: kind, Amount: amount, Price: price}
}

// --- Transactions ---

func TestAddTransaction(t *testing.T) {
	store := newMemStore()
	s := newTestService(t, store)
	ctx := context.Background()

	tx, err := s.AddTransaction(ctx, buyInput("AAPL", "stock", 10, 150))
	if err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}

	if tx.ID == "" {
		t.Error("expected assigned id")
	}
	if tx.Date.IsZero() {
		t.Error("expected assigned date")
	}
	if tx.Type != models.TxBuy {
		t.Errorf("Type = %q, want buy", tx.Type)
	}
	if tx.CostValue() != 1500 {
		t.Errorf("CostValue = %v, want 1500", tx.CostValue())
	}

	// Persisted as JSON under the transactions key
	raw, ok := store.data[interfaces.KeyTransactions]
	if !ok {
		t.Fatal("expected transactions key persisted")
	}
	var persisted []models.Transaction
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("persisted transactions unparsable: %v", err)
	}
	if len(persisted) != 1 || persisted[0].ID != tx.ID {
		t.Errorf("persisted = %+v, want the added transaction", persisted)
	}
}

func TestAddTransaction_NormalizesAssetType(t *testing.T) {
	s := newTestService(t, newMemStore())

	tx, err := s.AddTransaction(context.Background(), buyInput("ETH", "eth", 1, 3000))
	if err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	if tx.AssetType != models.AssetTypeCrypto {
		t.Errorf("AssetType = %q, want crypto", tx.AssetType)
	}

	tx, err = s.AddTransaction(context.Background(), buyInput("GOLD", "commodity", 1, 2000))
	if err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	if tx.AssetType != models.AssetTypeOther {
		t.Errorf("AssetType = %q, want other", tx.AssetType)
	}
}

func TestAddTransaction_Validation(t *testing.T) {
	s := newTestService(t, newMemStore())
	ctx := context.Background()

	tests := []struct {
		name  string
		input interfaces.AddTransactionInput
	}{
		{"empty name", buyInput("", "stock", 10, 150)},
		{"blank name", buyInput("   ", "stock", 10, 150)},
		{"zero amount", buyInput("AAPL", "stock", 0, 150)},
		{"negative amount", buyInput("AAPL", "stock", -1, 150)},
		{"zero price", buyInput("AAPL", "stock", 10, 0)},
		{"negative price", buyInput("AAPL", "stock", 10, -5)},
	}
	for _, tt := range tests {
		_, err := s.AddTransaction(ctx, tt.input)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: error = %v, want ErrValidation", tt.name, err)
		}
	}

	if len(s.Transactions()) != 0 {
		t.Error("rejected inputs must not be recorded")
	}
}

func TestAddTransaction_PersistFailureRollsBack(t *testing.T) {
	store := newMemStore()
	s := newTestService(t, store)
	ctx := context.Background()

	store.failSet = true
	_, err := s.AddTransaction(ctx, buyInput("AAPL", "stock", 10, 150))
	if err == nil {
		t.Fatal("expected error on persistence failure")
	}

	if len(s.Transactions()) != 0 {
		t.Error("failed write must leave in-memory state unchanged")
	}

	// Service stays usable after the store recovers
	store.failSet = false
	if _, err := s.AddTransaction(ctx, buyInput("AAPL", "stock", 10, 150)); err != nil {
		t.Fatalf("AddTransaction after recovery failed: %v", err)
	}
	if len(s.Transactions()) != 1 {
		t.Errorf("transactions = %d, want 1", len(s.Transactions()))
	}
}

func TestDeleteTransaction(t *testing.T) {
	store := newMemStore()
	s := newTestService(t, store)
	ctx := context.Background()

	tx1, _ := s.AddTransaction(ctx, buyInput("AAPL", "stock", 10, 150))
	tx2, _ := s.AddTransaction(ctx, buyInput("VOO", "etf", 5, 400))

	if err := s.DeleteTransaction(ctx, tx1.ID); err != nil {
		t.Fatalf("DeleteTransaction failed: %v", err)
	}

	txs := s.Transactions()
	if len(txs) != 1 || txs[0].ID != tx2.ID {
		t.Errorf("transactions = %+v, want only %s", txs, tx2.ID)
	}
}

func TestDeleteTransaction_UnknownIDIsNoop(t *testing.T) {
	s := newTestService(t, newMemStore())
	ctx := context.Background()

	s.AddTransaction(ctx, buyInput("AAPL", "stock", 10, 150))

	if err := s.DeleteTransaction(ctx, "nope"); err != nil {
		t.Fatalf("DeleteTransaction(unknown) = %v, want nil", err)
	}
	if len(s.Transactions()) != 1 {
		t.Error("unknown id delete must not change the ledger")
	}
}

func TestDeleteTransaction_PersistFailureRollsBack(t *testing.T) {
	store := newMemStore()
	s := newTestService(t, store)
	ctx := context.Background()

	tx, _ := s.AddTransaction(ctx, buyInput("AAPL", "stock", 10, 150))

	store.failSet = true
	if err := s.DeleteTransaction(ctx, tx.ID); err == nil {
		t.Fatal("expected error on persistence failure")
	}
	if len(s.Transactions()) != 1 {
		t.Error("failed delete must restore the transaction")
	}
}

// --- Cash ---

func TestUpdateCashBalance(t *testing.T) {
	s := newTestService(t, newMemStore())
	ctx := context.Background()

	m, err := s.UpdateCashBalance(ctx, 500)
	if err != nil {
		t.Fatalf("UpdateCashBalance failed: %v", err)
	}
	if m.Type != models.CashDeposit {
		t.Errorf("Type = %q, want deposit", m.Type)
	}
	if m.Balance != 500 {
		t.Errorf("Balance = %v, want 500", m.Balance)
	}

	m, err = s.UpdateCashBalance(ctx, -200)
	if err != nil {
		t.Fatalf("UpdateCashBalance failed: %v", err)
	}
	if m.Type != models.CashWithdraw {
		t.Errorf("Type = %q, want withdraw", m.Type)
	}
	if s.CashBalance() != 300 {
		t.Errorf("CashBalance = %v, want 300", s.CashBalance())
	}
	if len(s.CashMovements()) != 2 {
		t.Errorf("movements = %d, want 2", len(s.CashMovements()))
	}
}

func TestUpdateCashBalance_RejectsNegative(t *testing.T) {
	s := newTestService(t, newMemStore())
	ctx := context.Background()

	s.UpdateCashBalance(ctx, 100)

	_, err := s.UpdateCashBalance(ctx, -150)
	if !errors.Is(err, ErrNegativeBalance) {
		t.Fatalf("error = %v, want ErrNegativeBalance", err)
	}
	if s.CashBalance() != 100 {
		t.Errorf("CashBalance = %v after rejected delta, want 100", s.CashBalance())
	}
	if len(s.CashMovements()) != 1 {
		t.Error("rejected delta must not leave an audit entry")
	}
}

func TestSetCashBalance(t *testing.T) {
	s := newTestService(t, newMemStore())
	ctx := context.Background()

	s.UpdateCashBalance(ctx, 1000)

	m, err := s.SetCashBalance(ctx, 250)
	if err != nil {
		t.Fatalf("SetCashBalance failed: %v", err)
	}
	if m.Type != models.CashSetBalance {
		t.Errorf("Type = %q, want set_balance", m.Type)
	}
	if m.Amount != -750 {
		t.Errorf("Amount = %v, want implied delta -750", m.Amount)
	}
	if s.CashBalance() != 250 {
		t.Errorf("CashBalance = %v, want 250", s.CashBalance())
	}
}

func TestSetCashBalance_RejectsNegative(t *testing.T) {
	s := newTestService(t, newMemStore())

	_, err := s.SetCashBalance(context.Background(), -10)
	if !errors.Is(err, ErrNegativeBalance) {
		t.Errorf("error = %v, want ErrNegativeBalance", err)
	}
}

func TestCashPersistFailureRollsBack(t *testing.T) {
	store := newMemStore()
	s := newTestService(t, store)
	ctx := context.Background()

	s.UpdateCashBalance(ctx, 100)

	store.failSet = true
	if _, err := s.UpdateCashBalance(ctx, 50); err == nil {
		t.Fatal("expected error on persistence failure")
	}
	if s.CashBalance() != 100 {
		t.Errorf("CashBalance = %v after failed write, want 100", s.CashBalance())
	}
	if len(s.CashMovements()) != 1 {
		t.Error("failed write must not leave an audit entry")
	}
}

// --- Targets ---

func TestTargetDefaults(t *testing.T) {
	s := newTestService(t, newMemStore())

	snap := s.Snapshot()
	if snap.MonthlyTarget != DefaultMonthlyTarget {
		t.Errorf("MonthlyTarget = %v, want %v", snap.MonthlyTarget, DefaultMonthlyTarget)
	}
	if snap.YearlyTarget != DefaultYearlyTarget {
		t.Errorf("YearlyTarget = %v, want %v", snap.YearlyTarget, DefaultYearlyTarget)
	}
}

func TestSetTargets(t *testing.T) {
	store := newMemStore()
	s := newTestService(t, store)
	ctx := context.Background()

	if err := s.SetMonthlyTarget(ctx, 2000); err != nil {
		t.Fatalf("SetMonthlyTarget failed: %v", err)
	}
	if err := s.SetYearlyTarget(ctx, 24000); err != nil {
		t.Fatalf("SetYearlyTarget failed: %v", err)
	}

	snap := s.Snapshot()
	if snap.MonthlyTarget != 2000 || snap.YearlyTarget != 24000 {
		t.Errorf("targets = (%v, %v), want (2000, 24000)", snap.MonthlyTarget, snap.YearlyTarget)
	}
	if store.data[interfaces.KeyMonthlyTarget] != "2000" {
		t.Errorf("persisted monthly target = %q, want \"2000\"", store.data[interfaces.KeyMonthlyTarget])
	}
}

func TestSetTarget_RejectsNegative(t *testing.T) {
	s := newTestService(t, newMemStore())

	if err := s.SetMonthlyTarget(context.Background(), -1); !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

// --- Load ---

func TestLoad_RestoresPersistedState(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	first := newTestService(t, store)
	first.AddTransaction(ctx, buyInput("AAPL", "stock", 10, 150))
	first.UpdateCashBalance(ctx, 500)
	first.SetMonthlyTarget(ctx, 3000)

	second := newTestService(t, store)
	if len(second.Transactions()) != 1 {
		t.Errorf("transactions = %d after reload, want 1", len(second.Transactions()))
	}
	if second.CashBalance() != 500 {
		t.Errorf("CashBalance = %v after reload, want 500", second.CashBalance())
	}
	if second.Snapshot().MonthlyTarget != 3000 {
		t.Errorf("MonthlyTarget = %v after reload, want 3000", second.Snapshot().MonthlyTarget)
	}
}

func TestLoad_UnparsableKeyDegradesAlone(t *testing.T) {
	store := newMemStore()
	store.data[interfaces.KeyTransactions] = "{corrupt"
	store.data[interfaces.KeyCashBalance] = "750"

	s := newTestService(t, store)

	if len(s.Transactions()) != 0 {
		t.Error("corrupt transactions key must fall back to empty")
	}
	if s.CashBalance() != 750 {
		t.Errorf("CashBalance = %v, want 750 despite sibling corruption", s.CashBalance())
	}
}

// --- Snapshot & events ---

func TestSnapshot_IsACopy(t *testing.T) {
	s := newTestService(t, newMemStore())
	ctx := context.Background()

	s.AddTransaction(ctx, buyInput("AAPL", "stock", 10, 150))

	snap := s.Snapshot()
	snap.Transactions[0].Amount = 999

	if s.Transactions()[0].Amount != 10 {
		t.Error("mutating a snapshot must not affect ledger state")
	}
}

func TestSubscribe_ReceivesCommittedEvents(t *testing.T) {
	s := newTestService(t, newMemStore())
	ctx := context.Background()

	events, cancel := s.Subscribe()
	defer cancel()

	tx, _ := s.AddTransaction(ctx, buyInput("AAPL", "stock", 10, 150))
	s.UpdateCashBalance(ctx, 100)

	expectEvent := func(kind models.LedgerEventKind) models.LedgerEvent {
		select {
		case e := <-events:
			if e.Kind != kind {
				t.Fatalf("event kind = %q, want %q", e.Kind, kind)
			}
			return e
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q event", kind)
			return models.LedgerEvent{}
		}
	}

	e := expectEvent(models.EventTransactionAdded)
	if e.ID != tx.ID {
		t.Errorf("event id = %q, want %q", e.ID, tx.ID)
	}
	expectEvent(models.EventCashUpdated)
}

func TestSubscribe_FailedMutationEmitsNoEvent(t *testing.T) {
	store := newMemStore()
	s := newTestService(t, store)

	events, cancel := s.Subscribe()
	defer cancel()

	store.failSet = true
	s.AddTransaction(context.Background(), buyInput("AAPL", "stock", 10, 150))

	select {
	case e := <-events:
		t.Fatalf("unexpected event %+v for failed mutation", e)
	case <-time.After(50 * time.Millisecond):
	}
}
