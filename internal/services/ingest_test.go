package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"splitmint/internal/core"
	"splitmint/internal/gmail"
	"splitmint/internal/store/memory"
)

type fakeFetcher struct {
	emails []gmail.Email
	err    error
}

func (f *fakeFetcher) FetchTransactionEmails(_ context.Context, _ time.Duration, _ int) ([]gmail.Email, error) {
	return f.emails, f.err
}

type fakeCategorizer struct{}

func (fakeCategorizer) Categorize(_ context.Context, merchant string) string {
	if merchant == "Dominos Pizza" {
		return "Food and Drinks"
	}
	return "Others"
}

func TestIngestRun(t *testing.T) {
	st := memory.New()
	fetcher := &fakeFetcher{emails: []gmail.Email{
		{
			MessageID: "m1",
			Subject:   "Transaction alert: Rs 450 spent at Dominos Pizza",
			Body:      "Rs 450 spent at Dominos Pizza on 15/01/2025",
		},
		{
			MessageID: "m2",
			Subject:   "Your weekly newsletter",
			Body:      "Nothing transactional here",
		},
	}}

	svc := NewIngestService(fetcher, fakeCategorizer{}, st, 7*24*time.Hour, 3)
	stats, err := svc.Run(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Fetched != 2 || stats.Parsed != 1 || stats.Inserted != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v", stats)
	}

	txs, err := st.ListTransactions(context.Background(), "user_1", "")
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("stored %d transactions, want 1", len(txs))
	}
	tx := txs[0]
	if tx.Merchant != "Dominos Pizza" {
		t.Errorf("merchant = %q", tx.Merchant)
	}
	if tx.Amount.Cents != 45000 {
		t.Errorf("amount = %d cents", tx.Amount.Cents)
	}
	if tx.Category != "Food and Drinks" {
		t.Errorf("category = %q", tx.Category)
	}
	if tx.EmailSubject == "" {
		t.Error("email subject not recorded")
	}
}

func TestIngestRunSkipsDuplicates(t *testing.T) {
	st := memory.New()
	email := gmail.Email{
		MessageID: "m1",
		Subject:   "Transaction alert: Rs 450 spent at Dominos Pizza",
		Body:      "Rs 450 spent at Dominos Pizza on 15/01/2025",
	}
	fetcher := &fakeFetcher{emails: []gmail.Email{email}}
	svc := NewIngestService(fetcher, fakeCategorizer{}, st, 7*24*time.Hour, 3)

	if _, err := svc.Run(context.Background(), "user_1"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	stats, err := svc.Run(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if stats.Duplicates != 1 || stats.Inserted != 0 {
		t.Errorf("stats = %+v, want 1 duplicate and 0 inserted", stats)
	}
	txs, _ := st.ListTransactions(context.Background(), "user_1", "")
	if len(txs) != 1 {
		t.Errorf("stored %d transactions, want 1", len(txs))
	}
}

func TestIngestRunFetchError(t *testing.T) {
	svc := NewIngestService(&fakeFetcher{err: errors.New("mailbox unavailable")},
		fakeCategorizer{}, memory.New(), 7*24*time.Hour, 3)

	if _, err := svc.Run(context.Background(), "user_1"); err == nil {
		t.Error("expected error when fetch fails")
	}
}

func TestIngestRunEmptyMailbox(t *testing.T) {
	svc := NewIngestService(&fakeFetcher{}, fakeCategorizer{}, memory.New(), 7*24*time.Hour, 3)

	stats, err := svc.Run(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats != (IngestStats{}) {
		t.Errorf("stats = %+v, want all zero", stats)
	}
}

func TestIngestUsesExtractedDate(t *testing.T) {
	st := memory.New()
	fetcher := &fakeFetcher{emails: []gmail.Email{{
		MessageID: "m1",
		Subject:   "Payment of Rs 1,299 to Amazon",
		Body:      "Payment of Rs 1,299 to Amazon on 20/01/2025 was successful",
	}}}
	svc := NewIngestService(fetcher, fakeCategorizer{}, st, 7*24*time.Hour, 3)

	if _, err := svc.Run(context.Background(), "user_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	txs, _ := st.ListTransactions(context.Background(), "user_1", "2025-01")
	if len(txs) != 1 {
		t.Fatalf("month filter returned %d transactions, want 1", len(txs))
	}
	want := core.NewDate(2025, 1, 20)
	if !txs[0].Date.Equal(want.Time) {
		t.Errorf("date = %v, want %v", txs[0].Date, want)
	}
}
