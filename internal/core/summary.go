package core

import "sort"

// CategoryAmount represents spending aggregated by category.
type CategoryAmount struct {
	Category string
	Amount   Money
	Percent  float64 // share of the month's total, 0-100
}

// MonthSummary is a compact overview for a user's month.
type MonthSummary struct {
	UserID     string
	Month      string // YYYY-MM
	Total      Money
	Remaining  Money // budget limit minus total, zero value when no budget set
	HasBudget  bool
	ByCategory []CategoryAmount
}

// SpendingByCategory aggregates transactions into per-category totals,
// sorted by amount descending (ties broken by category name for stable
// output).
func SpendingByCategory(txs []Transaction) []CategoryAmount {
	totals := make(map[string]int64)
	grand := int64(0)
	for _, t := range txs {
		totals[t.Category] += t.Amount.Cents
		grand += t.Amount.Cents
	}
	out := make([]CategoryAmount, 0, len(totals))
	for cat, cents := range totals {
		ca := CategoryAmount{Category: cat, Amount: Money{Cents: cents}}
		if grand > 0 {
			ca.Percent = float64(cents) / float64(grand) * 100
		}
		out = append(out, ca)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// BuildMonthSummary computes the month overview for the given transactions
// and optional budget.
func BuildMonthSummary(userID, month string, txs []Transaction, budget *Budget) MonthSummary {
	s := MonthSummary{
		UserID:     userID,
		Month:      month,
		ByCategory: SpendingByCategory(txs),
	}
	for _, t := range txs {
		s.Total.Cents += t.Amount.Cents
	}
	if budget != nil {
		s.HasBudget = true
		s.Remaining = Money{Cents: budget.Limit.Cents - s.Total.Cents}
	}
	return s
}
