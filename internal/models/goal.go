package models

import "time"

// Goal is a manually tracked savings target. CurrentAmount is updated by
// the user, never derived from the ledger.
type Goal struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	TargetAmount  float64   `json:"target_amount"`
	CurrentAmount float64   `json:"current_amount"`
	CreatedAt     time.Time `json:"created_at"`
}

// Progress returns completion as a percentage, capped at 100.
// A zero target reports 0 rather than dividing by zero.
func (g Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	pct := g.CurrentAmount / g.TargetAmount * 100
	if pct > 100 {
		return 100
	}
	return pct
}
