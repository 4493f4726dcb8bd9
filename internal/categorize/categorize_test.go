package categorize

import (
	"context"
	"testing"

	"splitmint/internal/log"
)

func TestFallback(t *testing.T) {
	tests := []struct {
		merchant string
		want     string
	}{
		{"Domino's Pizza", "Food and Drinks"},
		{"Starbucks Coffee", "Food and Drinks"},
		{"BigBasket", "Groceries"},
		{"Amazon India", "Shopping"},
		{"Netflix", "Entertainment"},
		{"Uber", "Travel and Transport"},
		{"Airtel Recharge", "Bills and Utilities"},
		{"Apollo Pharmacy", "Healthcare"},
		{"Udemy", "Education"},
		{"Zerodha", "Investments"},
		{"Urban Company Salon", "Personal Care"},
		{"Adobe Creative Cloud", "Subscriptions"},
		{"Unknown Merchant XYZ", "Others"},
		{"", "Others"},
	}

	for _, tt := range tests {
		if got := Fallback(tt.merchant); got != tt.want {
			t.Errorf("Fallback(%q) = %q, want %q", tt.merchant, got, tt.want)
		}
	}
}

func TestFallbackOrderMatters(t *testing.T) {
	// "food court mall" hits both Food and Drinks and Shopping keywords;
	// the earlier rule wins.
	if got := Fallback("Food Court Mall"); got != "Food and Drinks" {
		t.Errorf("got %q, want Food and Drinks", got)
	}
}

func TestMatchCategory(t *testing.T) {
	tests := []struct {
		answer string
		want   string
		ok     bool
	}{
		{"Groceries", "Groceries", true},
		{"  Groceries \n", "Groceries", true},
		{"groceries", "Groceries", true},
		{"Category: Food and Drinks", "Food and Drinks", true},
		{"Travel", "Travel and Transport", true}, // partial in either direction
		{"Gambling", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := matchCategory(tt.answer)
		if got != tt.want || ok != tt.ok {
			t.Errorf("matchCategory(%q) = (%q, %v), want (%q, %v)", tt.answer, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCategorizeWithoutKey(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, "", "models/gemini-1.5-flash", log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := c.Categorize(ctx, "Swiggy"); got != "Food and Drinks" {
		t.Errorf("Categorize(Swiggy) = %q", got)
	}
	// Second call comes from the cache.
	if got := c.Categorize(ctx, "swiggy "); got != "Food and Drinks" {
		t.Errorf("cached Categorize(swiggy) = %q", got)
	}
	if c.Cache().Size() != 1 {
		t.Errorf("cache size = %d, want 1", c.Cache().Size())
	}

	if got := c.Categorize(ctx, ""); got != "Others" {
		t.Errorf("empty merchant = %q, want Others", got)
	}
}
