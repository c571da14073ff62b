// Package models defines data structures for Folio
package models

import (
	"strconv"
	"strings"
	"time"
)

// AssetType classifies an asset for grouping and price lookups.
type AssetType string

const (
	AssetTypeStock  AssetType = "stock"
	AssetTypeETF    AssetType = "etf"
	AssetTypeCrypto AssetType = "crypto"
	AssetTypeOther  AssetType = "other"
)

// validAssetTypes lists the asset types a transaction may carry.
var validAssetTypes = map[AssetType]bool{
	AssetTypeStock:  true,
	AssetTypeETF:    true,
	AssetTypeCrypto: true,
	AssetTypeOther:  true,
}

// ValidAssetType returns true if t is a valid asset type.
func ValidAssetType(t AssetType) bool {
	return validAssetTypes[t]
}

// NormalizeAssetType maps a raw asset type string to its canonical form.
// Unknown or empty values group under AssetTypeOther. The legacy "eth"
// sub-tag maps to crypto. Applied once at construction, not at read time.
func NormalizeAssetType(raw string) AssetType {
	switch AssetType(strings.ToLower(strings.TrimSpace(raw))) {
	case AssetTypeStock:
		return AssetTypeStock
	case AssetTypeETF:
		return AssetTypeETF
	case AssetTypeCrypto, "eth":
		return AssetTypeCrypto
	default:
		return AssetTypeOther
	}
}

// TransactionType categorizes a ledger transaction.
type TransactionType string

const (
	TxBuy  TransactionType = "buy"
	TxSell TransactionType = "sell"
)

// Transaction is a single immutable ledger entry. There is no edit
// operation — entries are created once and only ever deleted.
//
// Sell entries are representable but nothing in the system produces them,
// and cost computations do not net them against buys.
type Transaction struct {
	ID        string          `json:"id"`
	AssetName string          `json:"asset_name"`
	AssetType AssetType       `json:"asset_type"`
	Amount    float64         `json:"amount"`
	Price     float64         `json:"price"`
	Type      TransactionType `json:"type"`
	CoinID    string          `json:"coin_id,omitempty"` // CoinGecko id for crypto lookups
	Date      time.Time       `json:"date"`
}

// CostValue returns the cost contribution of this transaction (amount × price).
func (t Transaction) CostValue() float64 {
	return t.Amount * t.Price
}

// NewID returns a time-derived unique identifier for ledger records.
func NewID(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}
