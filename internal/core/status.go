package core

// BudgetStatus is one row of a user's monthly budget report.
type BudgetStatus struct {
	Category   Category
	Limit      Money
	Spent      Money
	Remaining  Money
	Percentage float64
}

// NewBudgetStatus derives remaining and percentage. Remaining never goes
// below zero and percentage is clamped to [0, 100]; a zero limit reports 0%.
func NewBudgetStatus(cat Category, limit, spent Money) BudgetStatus {
	remaining := limit.Sub(spent)
	if remaining.IsNegative() {
		remaining = Money{}
	}

	var pct float64
	if limit.IsPositive() {
		pct = float64(spent.Cents) / float64(limit.Cents) * 100
		if pct > 100 {
			pct = 100
		}
		if pct < 0 {
			pct = 0
		}
	}

	return BudgetStatus{
		Category:   cat,
		Limit:      limit,
		Spent:      spent,
		Remaining:  remaining,
		Percentage: pct,
	}
}

// Alert is a category whose month-to-date spend reached its limit.
type Alert struct {
	User     User
	Category Category
	Limit    Money
	Spent    Money
}
