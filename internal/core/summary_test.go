package core

import "testing"

func tx(cat string, cents int64) Transaction {
	return Transaction{
		UserID:   "u1",
		Merchant: "m",
		Amount:   Money{Cents: cents},
		Category: cat,
		Date:     NewDate(2025, 6, 1),
	}
}

func TestSpendingByCategory(t *testing.T) {
	got := SpendingByCategory([]Transaction{
		tx("Groceries", 3000),
		tx("Food and Drinks", 6000),
		tx("Groceries", 1000),
	})
	if len(got) != 2 {
		t.Fatalf("got %d categories, want 2", len(got))
	}
	if got[0].Category != "Food and Drinks" || got[0].Amount.Cents != 6000 {
		t.Fatalf("top category = %+v", got[0])
	}
	if got[1].Category != "Groceries" || got[1].Amount.Cents != 4000 {
		t.Fatalf("second category = %+v", got[1])
	}
	if got[0].Percent != 60 || got[1].Percent != 40 {
		t.Fatalf("percents = %g, %g", got[0].Percent, got[1].Percent)
	}
}

func TestSpendingByCategoryEmpty(t *testing.T) {
	if got := SpendingByCategory(nil); len(got) != 0 {
		t.Fatalf("expected empty, got %+v", got)
	}
}

func TestBuildMonthSummary(t *testing.T) {
	budget := &Budget{UserID: "u1", Month: "2025-06", Limit: Money{Cents: 10000}}
	s := BuildMonthSummary("u1", "2025-06", []Transaction{
		tx("Groceries", 3000),
		tx("Travel", 2500),
	}, budget)
	if s.Total.Cents != 5500 {
		t.Fatalf("total = %d", s.Total.Cents)
	}
	if !s.HasBudget || s.Remaining.Cents != 4500 {
		t.Fatalf("remaining = %d, hasBudget = %v", s.Remaining.Cents, s.HasBudget)
	}
}

func TestBuildMonthSummaryNoBudget(t *testing.T) {
	s := BuildMonthSummary("u1", "2025-06", []Transaction{tx("Travel", 2500)}, nil)
	if s.HasBudget {
		t.Fatalf("expected no budget")
	}
	if s.Total.Cents != 2500 {
		t.Fatalf("total = %d", s.Total.Cents)
	}
}
