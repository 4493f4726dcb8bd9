package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"splitmint/internal/core"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Ports for outbound persistence adapters.
type (
	TransactionStore interface {
		// InsertTransaction persists t, assigning an ID when empty, and
		// returns the stored record.
		InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)

		// ListTransactions returns a user's transactions, newest first.
		// month filters to a YYYY-MM key when non-empty.
		ListTransactions(ctx context.Context, userID, month string) ([]core.Transaction, error)

		// GetTransaction returns ErrNotFound when the transaction does not
		// exist or belongs to another user.
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)

		DeleteTransaction(ctx context.Context, userID, id string) error

		// HasTransaction reports whether a transaction with the same
		// merchant, amount and date already exists for the user. Used to
		// keep re-fetched emails from inserting duplicates.
		HasTransaction(ctx context.Context, userID, merchant string, amount core.Money, date core.Date) (bool, error)
	}

	BudgetStore interface {
		// UpsertBudget creates or replaces the budget for (user, month).
		UpsertBudget(ctx context.Context, b core.Budget) error

		// GetBudget returns ErrNotFound when no budget is set.
		GetBudget(ctx context.Context, userID, month string) (core.Budget, error)
	}

	SplitStore interface {
		// InsertSplit persists a new split. A transaction can be split at
		// most once; a second insert returns ErrDuplicate.
		InsertSplit(ctx context.Context, s core.Split) (core.Split, error)

		GetSplit(ctx context.Context, userID, transactionID string) (core.Split, error)

		DeleteSplit(ctx context.Context, userID, transactionID string) error

		// ListSplits returns a user's splits, newest first.
		ListSplits(ctx context.Context, userID string) ([]core.Split, error)
	}

	// Store is the unified persistence surface the service layer works
	// against.
	Store interface {
		TransactionStore
		BudgetStore
		SplitStore
	}
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// NewID returns a random 16-byte hex identifier for transactions.
func NewID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}
