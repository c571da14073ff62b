package models

import "time"

// CashMovementType categorizes a cash balance mutation.
type CashMovementType string

const (
	CashDeposit    CashMovementType = "deposit"
	CashWithdraw   CashMovementType = "withdraw"
	CashSetBalance CashMovementType = "set_balance"
)

// validCashMovementTypes lists all accepted movement types.
var validCashMovementTypes = map[CashMovementType]bool{
	CashDeposit:    true,
	CashWithdraw:   true,
	CashSetBalance: true,
}

// ValidCashMovementType returns true if t is a valid cash movement type.
func ValidCashMovementType(t CashMovementType) bool {
	return validCashMovementTypes[t]
}

// MovementTypeForDelta derives the movement type from the sign of a delta.
func MovementTypeForDelta(delta float64) CashMovementType {
	if delta >= 0 {
		return CashDeposit
	}
	return CashWithdraw
}

// CashMovement is one entry in the append-only cash audit trail.
// Amount is the signed delta; Balance is the resulting balance snapshot.
// Movements are never deleted — the cash balance scalar is authoritative
// for "current cash", the trail exists for history only.
type CashMovement struct {
	ID      string           `json:"id"`
	Date    time.Time        `json:"date"`
	Amount  float64          `json:"amount"`
	Balance float64          `json:"balance"`
	Type    CashMovementType `json:"type"`
}
