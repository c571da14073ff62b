// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KeyValueStore.Get for missing keys.
// Callers distinguish it from read failures: a missing key falls back to
// the zero value silently, a read failure is logged.
var ErrKeyNotFound = errors.New("key not found")

// Storage keys used by the ledger and goal services.
const (
	KeyTransactions  = "transactions"
	KeyCashBalance   = "cashBalance"
	KeyCashMovements = "cashTransactions"
	KeyGoals         = "goals"
	KeyMonthlyTarget = "monthlyTarget"
	KeyYearlyTarget  = "yearlyTarget"
)

// KeyValueStore is the durable persistence contract. Values are opaque
// strings (JSON documents or stringified numbers); both operations are
// fallible and must complete before a mutation reports success.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}
