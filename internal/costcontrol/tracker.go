package costcontrol

import (
	"log"
	"sync"
)

// Tracker enforces a per-run budget on LLM CLI calls: a hard cap on the
// number of calls and a spend ceiling fed by the costUSD the claude CLI
// reports. A zero limit means unlimited.
type Tracker struct {
	mu         sync.Mutex
	callLimit  int
	spendLimit float64

	calls int
	spend float64
}

// NewTracker creates a tracker with the given limits.
func NewTracker(callLimit int, spendLimit float64) *Tracker {
	return &Tracker{
		callLimit:  callLimit,
		spendLimit: spendLimit,
	}
}

// CanMakeCall reports whether another external call fits the budget.
func (t *Tracker) CanMakeCall() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.callLimit > 0 && t.calls >= t.callLimit {
		log.Printf("[CostControl] Call limit reached: %d/%d", t.calls, t.callLimit)
		return false
	}
	if t.spendLimit > 0 && t.spend >= t.spendLimit {
		log.Printf("[CostControl] Spend limit reached: $%.4f/$%.2f", t.spend, t.spendLimit)
		return false
	}
	return true
}

// RecordCall records one completed call and its reported cost.
func (t *Tracker) RecordCall(costUSD float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls++
	t.spend += costUSD
}

// Totals returns the calls made and dollars spent so far.
func (t *Tracker) Totals() (calls int, spendUSD float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls, t.spend
}
