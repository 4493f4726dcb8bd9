package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"splitmint/internal/core"
	"splitmint/internal/store"
)

// Store keeps everything in process memory. It is the default backend and
// the one the tests run against.
type Store struct {
	mu      sync.Mutex
	txs     []core.Transaction
	budgets map[string]core.Budget // key: userID + "/" + month
	splits  []core.Split
	nextID  int64
}

func New() *Store {
	return &Store{budgets: make(map[string]core.Budget)}
}

func budgetKey(userID, month string) string {
	return userID + "/" + month
}

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = store.NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.txs = append(s.txs, t)
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, userID, month string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txs {
		if t.UserID != userID {
			continue
		}
		if month != "" && t.Date.MonthKey() != month {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs {
		if t.UserID == userID && t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.txs {
		if t.UserID == userID && t.ID == id {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) HasTransaction(_ context.Context, userID, merchant string, amount core.Money, date core.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs {
		if t.UserID == userID && t.Merchant == merchant &&
			t.Amount.Cents == amount.Cents && sameDay(t.Date, date) {
			return true, nil
		}
	}
	return false, nil
}

func sameDay(a, b core.Date) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (s *Store) UpsertBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[budgetKey(b.UserID, b.Month)] = b
	return nil
}

func (s *Store) GetBudget(_ context.Context, userID, month string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[budgetKey(userID, month)]
	if !ok {
		return core.Budget{}, store.ErrNotFound
	}
	return b, nil
}

func (s *Store) InsertSplit(_ context.Context, sp core.Split) (core.Split, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.splits {
		if existing.UserID == sp.UserID && existing.TransactionID == sp.TransactionID {
			return core.Split{}, store.ErrDuplicate
		}
	}
	s.nextID++
	sp.ID = s.nextID
	now := time.Now().UTC()
	if sp.CreatedAt.IsZero() {
		sp.CreatedAt = now
	}
	sp.UpdatedAt = now
	// Deep-copy participants so callers cannot mutate stored state.
	sp.Participants = append([]core.Participant(nil), sp.Participants...)
	s.splits = append(s.splits, sp)
	return sp, nil
}

func (s *Store) GetSplit(_ context.Context, userID, transactionID string) (core.Split, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sp := range s.splits {
		if sp.UserID == userID && sp.TransactionID == transactionID {
			sp.Participants = append([]core.Participant(nil), sp.Participants...)
			return sp, nil
		}
	}
	return core.Split{}, store.ErrNotFound
}

func (s *Store) DeleteSplit(_ context.Context, userID, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sp := range s.splits {
		if sp.UserID == userID && sp.TransactionID == transactionID {
			s.splits = append(s.splits[:i], s.splits[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListSplits(_ context.Context, userID string) ([]core.Split, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Split
	for _, sp := range s.splits {
		if sp.UserID == userID {
			sp.Participants = append([]core.Participant(nil), sp.Participants...)
			out = append(out, sp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
