package core

// Warning messages, in the order Analyze emits them.
const (
	WarnFoodRatio     = "Food expenses are over 40% of income - consider reducing food spend next month"
	WarnSubscriptions = "Subscriptions are 30% of your income — too high! Consider cancelling unused apps"
	WarnOverspend     = "Your expenses exceed income. You need to reduce spending immediately"
	WarnNearTotal     = "You're spending over 90% of your income. Very little room for savings"
)

type (
	// CategoryBreakdown mirrors the five expense categories of a budget.
	CategoryBreakdown struct {
		MonthlyBills  float64 `json:"monthlyBills"`
		Food          float64 `json:"food"`
		Transport     float64 `json:"transport"`
		Subscriptions float64 `json:"subscriptions"`
		Miscellaneous float64 `json:"miscellaneous"`
	}

	// Analytics holds metrics derived from a single budget. It is computed
	// on demand and never persisted.
	Analytics struct {
		BurnRate           float64           `json:"burnRate"`
		SavingsPotential   float64           `json:"savingsPotential"`
		MonthEndPrediction float64           `json:"monthEndPrediction"`
		CategoryBreakdown  CategoryBreakdown `json:"categoryBreakdown"`
		Warnings           []string          `json:"warnings"`
	}
)

// TotalExpenses sums the five expense categories. Income is not an expense.
func TotalExpenses(b Budget) float64 {
	return b.MonthlyBills + b.Food + b.Transport + b.Subscriptions + b.Miscellaneous
}

// Analyze derives metrics and warnings from a budget. Pure function: the
// budget is not touched and repeated calls give identical results.
//
// BurnRate is expenses as a percentage of income, defined as 0 when income
// is 0 so a fresh budget never divides by zero. Each warning condition is
// evaluated independently; several may fire at once, always in the same
// order. All thresholds are strict comparisons, so e.g. food exactly at
// 40% of income does not warn.
func Analyze(b Budget) Analytics {
	total := TotalExpenses(b)

	burnRate := 0.0
	if b.Income > 0 {
		burnRate = total / b.Income * 100
	}
	savings := b.Income - total

	warnings := []string{}
	if b.Food > b.Income*0.4 {
		warnings = append(warnings, WarnFoodRatio)
	}
	if b.Subscriptions > b.Income*0.3 {
		warnings = append(warnings, WarnSubscriptions)
	}
	if savings < 0 {
		warnings = append(warnings, WarnOverspend)
	}
	if burnRate > 90 {
		warnings = append(warnings, WarnNearTotal)
	}

	return Analytics{
		BurnRate:           burnRate,
		SavingsPotential:   savings,
		MonthEndPrediction: savings,
		CategoryBreakdown: CategoryBreakdown{
			MonthlyBills:  b.MonthlyBills,
			Food:          b.Food,
			Transport:     b.Transport,
			Subscriptions: b.Subscriptions,
			Miscellaneous: b.Miscellaneous,
		},
		Warnings: warnings,
	}
}
