package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"splitmint/internal/core"
	"splitmint/internal/gmail"
	"splitmint/internal/mailparse"
	"splitmint/internal/store"
)

// EmailFetcher pulls recent transaction emails from a mailbox.
type EmailFetcher interface {
	FetchTransactionEmails(ctx context.Context, window time.Duration, limit int) ([]gmail.Email, error)
}

// MerchantCategorizer assigns a spending category to a merchant name.
type MerchantCategorizer interface {
	Categorize(ctx context.Context, merchant string) string
}

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	Fetched    int `json:"fetched"`
	Parsed     int `json:"parsed"`
	Duplicates int `json:"duplicates"`
	Inserted   int `json:"inserted"`
	Failed     int `json:"failed"`
}

// IngestService runs the email pipeline: fetch, parse, dedupe,
// categorize, persist.
type IngestService struct {
	fetcher     EmailFetcher
	categorizer MerchantCategorizer
	store       store.TransactionStore
	window      time.Duration
	limit       int
}

func NewIngestService(fetcher EmailFetcher, categorizer MerchantCategorizer, s store.TransactionStore, window time.Duration, limit int) *IngestService {
	return &IngestService{
		fetcher:     fetcher,
		categorizer: categorizer,
		store:       s,
		window:      window,
		limit:       limit,
	}
}

// Run processes one batch of transaction emails for userID. Emails that
// fail to parse or persist are counted and skipped; the run only fails
// outright when the mailbox itself cannot be read.
func (s *IngestService) Run(ctx context.Context, userID string) (IngestStats, error) {
	var stats IngestStats

	emails, err := s.fetcher.FetchTransactionEmails(ctx, s.window, s.limit)
	if err != nil {
		return stats, fmt.Errorf("fetch transaction emails: %w", err)
	}
	stats.Fetched = len(emails)
	if len(emails) == 0 {
		return stats, nil
	}

	for _, email := range emails {
		parsed, ok := mailparse.Parse(email.Subject, email.Body)
		if !ok {
			slog.DebugContext(ctx, "No transaction found in email",
				"message_id", email.MessageID, "subject", email.Subject)
			stats.Failed++
			continue
		}
		stats.Parsed++

		dup, err := s.store.HasTransaction(ctx, userID, parsed.Merchant, parsed.Amount, parsed.Date)
		if err != nil {
			slog.WarnContext(ctx, "Duplicate check failed", "merchant", parsed.Merchant, "error", err)
			stats.Failed++
			continue
		}
		if dup {
			slog.InfoContext(ctx, "Skipping duplicate transaction",
				"merchant", parsed.Merchant, "amount_cents", parsed.Amount.Cents)
			stats.Duplicates++
			continue
		}

		category := s.categorizer.Categorize(ctx, parsed.Merchant)

		tx := core.Transaction{
			UserID:       userID,
			Merchant:     parsed.Merchant,
			Amount:       parsed.Amount,
			Category:     category,
			Date:         parsed.Date,
			EmailSubject: email.Subject,
			CreatedAt:    time.Now().UTC(),
		}
		saved, err := s.store.InsertTransaction(ctx, tx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to save transaction",
				"merchant", parsed.Merchant, "error", err)
			stats.Failed++
			continue
		}

		slog.InfoContext(ctx, "Transaction ingested",
			"transaction_id", saved.ID,
			"merchant", saved.Merchant,
			"amount_cents", saved.Amount.Cents,
			"category", saved.Category)
		stats.Inserted++
	}

	return stats, nil
}
