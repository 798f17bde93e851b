package aijokes

import (
	"sync"
	"time"
)

// Per-million-token prices in USD by model
var modelPricing = map[string]struct {
	Input  float64
	Output float64
}{
	"gpt-4o-mini": {Input: 0.150, Output: 0.600},
	"gpt-4o":      {Input: 2.50, Output: 10.00},
	"gpt-4.1":     {Input: 2.00, Output: 8.00},
}

// EstimateCost converts a token usage into an estimated dollar cost.
// Unknown models are billed at the gpt-4o-mini rate.
func EstimateCost(model string, promptTokens, completionTokens int) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		pricing = modelPricing["gpt-4o-mini"]
	}
	return float64(promptTokens)/1_000_000*pricing.Input +
		float64(completionTokens)/1_000_000*pricing.Output
}

// CostTracker accumulates generation spend across calls and enforces
// optional daily and monthly budgets. Safe for concurrent use.
type CostTracker struct {
	mu               sync.Mutex
	totalCost        float64
	promptTokens     int
	completionTokens int
	calls            int

	dailyBudget   float64
	monthlyBudget float64
	dayCost       float64
	monthCost     float64
	dayStart      time.Time
	monthStart    time.Time
}

// NewCostTracker creates a tracker with no budget limits
func NewCostTracker() *CostTracker {
	return NewCostTrackerWithBudgets(0, 0)
}

// NewCostTrackerWithBudgets creates a tracker that refuses spend past the
// given daily and monthly dollar budgets. Zero disables a limit.
func NewCostTrackerWithBudgets(daily, monthly float64) *CostTracker {
	now := time.Now()
	return &CostTracker{
		dailyBudget:   daily,
		monthlyBudget: monthly,
		dayStart:      now.Truncate(24 * time.Hour),
		monthStart:    time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
	}
}

// rollWindows resets the day and month accumulators when their windows
// have passed. Caller must hold t.mu.
func (t *CostTracker) rollWindows(now time.Time) {
	if now.Sub(t.dayStart) >= 24*time.Hour {
		t.dayStart = now.Truncate(24 * time.Hour)
		t.dayCost = 0
	}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if monthStart.After(t.monthStart) {
		t.monthStart = monthStart
		t.monthCost = 0
	}
}

// WithinBudget reports whether another generation call is allowed
func (t *CostTracker) WithinBudget() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollWindows(time.Now())

	if t.dailyBudget > 0 && t.dayCost >= t.dailyBudget {
		return false
	}
	if t.monthlyBudget > 0 && t.monthCost >= t.monthlyBudget {
		return false
	}
	return true
}

// Record adds one call's usage to the running totals and returns its cost
func (t *CostTracker) Record(model string, promptTokens, completionTokens int) float64 {
	cost := EstimateCost(model, promptTokens, completionTokens)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollWindows(time.Now())
	t.totalCost += cost
	t.dayCost += cost
	t.monthCost += cost
	t.promptTokens += promptTokens
	t.completionTokens += completionTokens
	t.calls++
	return cost
}

// Totals returns the accumulated spend and token counts
func (t *CostTracker) Totals() (cost float64, promptTokens, completionTokens, calls int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalCost, t.promptTokens, t.completionTokens, t.calls
}
