package models

// Plan types available for purchase
const (
	PlanBasic   = "basic"
	PlanPremium = "premium"
)

// ValidPlanType reports whether s names a sellable plan.
func ValidPlanType(s string) bool {
	return s == PlanBasic || s == PlanPremium
}
