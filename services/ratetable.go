package services

import (
	"math"

	"github.com/AKhaldoun/tierlink_backend/models"
)

// RateTable maps (plan type, ancestor level) to a commission percentage and
// each plan to its price. It is the single authoritative source consulted by
// both the distributor and the earnings-preview feature, so a rate change can
// never desynchronize preview and payout.
type RateTable struct {
	prices map[string]float64
	rates  map[string][]float64 // index 0 = level 1
}

// NewRateTable builds a table from explicit configuration. Levels beyond the
// configured slice pay 0.
func NewRateTable(prices map[string]float64, rates map[string][]float64) *RateTable {
	return &RateTable{prices: prices, rates: rates}
}

// DefaultRateTable returns the production configuration.
func DefaultRateTable() *RateTable {
	return NewRateTable(
		map[string]float64{
			models.PlanBasic:   800,
			models.PlanPremium: 2000,
		},
		map[string][]float64{
			models.PlanBasic:   {10, 5, 3, 2, 1},
			models.PlanPremium: {12, 6, 4, 3, 2, 1, 1, 0.5, 0.5, 0.5},
		},
	)
}

// Rate returns the commission percentage for the plan at the given level, or
// 0 when the level exceeds the configured depth or the plan is unknown. A 0%
// entry is a deliberate "no payout at this level", not an error.
func (t *RateTable) Rate(planType string, level int) float64 {
	levels, ok := t.rates[planType]
	if !ok || level < 1 || level > len(levels) {
		return 0
	}
	return levels[level-1]
}

// PlanAmount returns the plan's price, or 0 for an unknown plan.
func (t *RateTable) PlanAmount(planType string) float64 {
	return t.prices[planType]
}

// CommissionAmount computes one ancestor's payout, rounded half-up to cents.
// Rounding is applied once per ancestor, never cumulatively across levels.
func (t *RateTable) CommissionAmount(planType string, level int) float64 {
	rate := t.Rate(planType, level)
	if rate <= 0 {
		return 0
	}
	return RoundToCents(t.PlanAmount(planType) * rate / 100)
}

// PotentialEarnings returns, per plan, the level-1 commission a user would
// earn when a direct recruit buys that plan. Used by the referral preview.
func (t *RateTable) PotentialEarnings() map[string]float64 {
	out := make(map[string]float64, len(t.prices))
	for plan := range t.prices {
		out[plan] = t.CommissionAmount(plan, 1)
	}
	return out
}

// RoundToCents rounds half-up to the currency's minor unit.
func RoundToCents(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
