package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"splitmint/internal/core"
	"splitmint/internal/store"
)

type transactionJSON struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	Merchant     string  `json:"merchant"`
	Amount       float64 `json:"amount"`
	Category     string  `json:"category"`
	Date         string  `json:"date"`
	EmailSubject string  `json:"email_subject,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:           t.ID,
		UserID:       t.UserID,
		Merchant:     t.Merchant,
		Amount:       t.Amount.Rupees(),
		Category:     t.Category,
		Date:         t.Date.Format("2006-01-02"),
		EmailSubject: t.EmailSubject,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	month, ok := parseMonth(r)
	if !ok {
		respondError(w, http.StatusUnprocessableEntity, "invalid month format, use YYYY-MM (e.g. 2025-10)")
		return
	}

	key := s.txCacheKey(userID, month)
	txs, hit := s.txCache.Get(key)
	if !hit {
		var err error
		txs, err = s.store.ListTransactions(r.Context(), userID, month)
		if err != nil {
			slog.ErrorContext(r.Context(), "List transactions failed",
				"user_id", userID, "month", month, "error", err)
			respondDomainError(w, err)
			return
		}
		s.txCache.Set(key, txs)
	}

	totalSpent := int64(0)
	list := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		totalSpent += t.Amount.Cents
		list = append(list, toTransactionJSON(t))
	}

	respondCount(w, fmt.Sprintf("Retrieved %d transactions", len(list)), map[string]any{
		"transactions": list,
		"total_spent":  core.Money{Cents: totalSpent}.Rupees(),
	}, len(list))
}

type addTransactionRequest struct {
	UserID   string  `json:"user_id"`
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req addTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !core.ValidCategory(req.Category) {
		respondError(w, http.StatusUnprocessableEntity,
			"invalid category, must be one of: "+strings.Join(core.Categories, ", "))
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid date format, use YYYY-MM-DD")
		return
	}
	if req.Amount <= 0 {
		respondError(w, http.StatusUnprocessableEntity, "amount must be greater than zero")
		return
	}

	tx := core.Transaction{
		UserID:    strings.TrimSpace(req.UserID),
		Merchant:  sanitizeInput(req.Merchant),
		Amount:    core.FromFloat(req.Amount),
		Category:  req.Category,
		Date:      date,
		CreatedAt: time.Now().UTC(),
	}
	saved, err := s.store.InsertTransaction(r.Context(), tx)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	s.invalidateMonth(saved.UserID, saved.Date.MonthKey())
	respondOK(w, "Transaction added successfully", map[string]string{
		"transaction_id": saved.ID,
	})
}

type deleteTransactionRequest struct {
	UserID        string `json:"user_id"`
	TransactionID string `json:"transaction_id"`
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	var req deleteTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tx, err := s.store.GetTransaction(r.Context(), req.UserID, req.TransactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "transaction not found or doesn't belong to this user")
			return
		}
		respondDomainError(w, err)
		return
	}
	if err := s.store.DeleteTransaction(r.Context(), req.UserID, req.TransactionID); err != nil {
		respondDomainError(w, err)
		return
	}

	s.invalidateMonth(req.UserID, tx.Date.MonthKey())
	respondOK(w, "Transaction deleted successfully", nil)
}

type fetchTransactionsRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) handleFetchTransactions(w http.ResponseWriter, r *http.Request) {
	var req fetchTransactionsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if s.ingest == nil {
		respondError(w, http.StatusServiceUnavailable, "email ingestion not configured")
		return
	}

	stats, err := s.ingest.Run(r.Context(), req.UserID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Email ingestion failed", "user_id", req.UserID, "error", err)
		respondError(w, http.StatusBadGateway, "failed to fetch transaction emails")
		return
	}

	if stats.Inserted > 0 {
		// New transactions can land in any month; drop the list caches
		// we know about and let TTL handle the rest.
		s.invalidateMonth(req.UserID, time.Now().UTC().Format("2006-01"))
	}

	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully processed %d new transactions", stats.Inserted),
		Data:    stats,
		Count:   &stats.Inserted,
	})
}

type updateBudgetRequest struct {
	UserID string  `json:"user_id"`
	Income float64 `json:"income"`
	Budget float64 `json:"budget"`
	Month  string  `json:"month"`
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req updateBudgetRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !core.ValidMonth(req.Month) {
		respondError(w, http.StatusUnprocessableEntity, "invalid month format, use YYYY-MM (e.g. 2025-10)")
		return
	}
	if req.Income <= 0 || req.Budget <= 0 {
		respondError(w, http.StatusUnprocessableEntity, "income and budget must be greater than zero")
		return
	}

	b := core.Budget{
		UserID: strings.TrimSpace(req.UserID),
		Month:  req.Month,
		Income: core.FromFloat(req.Income),
		Limit:  core.FromFloat(req.Budget),
	}
	if err := s.store.UpsertBudget(r.Context(), b); err != nil {
		respondDomainError(w, err)
		return
	}

	s.summaryCache.Delete(s.txCacheKey(b.UserID, b.Month))
	respondOK(w, fmt.Sprintf("Budget updated successfully for %s", b.Month), nil)
}

type budgetJSON struct {
	Income     float64 `json:"income"`
	Budget     float64 `json:"budget"`
	TotalSpent float64 `json:"total_spent"`
	Remaining  float64 `json:"remaining"`
	Month      string  `json:"month"`
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if !core.ValidMonth(month) {
		respondError(w, http.StatusUnprocessableEntity, "invalid month format, use YYYY-MM (e.g. 2025-10)")
		return
	}

	budget, err := s.store.GetBudget(r.Context(), userID, month)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound,
				fmt.Sprintf("No budget found for user %s in %s", userID, month))
			return
		}
		respondDomainError(w, err)
		return
	}

	txs, err := s.store.ListTransactions(r.Context(), userID, month)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	totalSpent := int64(0)
	for _, t := range txs {
		totalSpent += t.Amount.Cents
	}

	respondOK(w, fmt.Sprintf("Budget retrieved for %s", month), budgetJSON{
		Income:     budget.Income.Rupees(),
		Budget:     budget.Limit.Rupees(),
		TotalSpent: core.Money{Cents: totalSpent}.Rupees(),
		Remaining:  core.Money{Cents: budget.Limit.Cents - totalSpent}.Rupees(),
		Month:      month,
	})
}

func (s *Server) handleSpendingByCategory(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if !core.ValidMonth(month) {
		respondError(w, http.StatusUnprocessableEntity, "invalid month format, use YYYY-MM (e.g. 2025-01)")
		return
	}

	key := s.txCacheKey(userID, month)
	summary, hit := s.summaryCache.Get(key)
	if !hit {
		txs, err := s.store.ListTransactions(r.Context(), userID, month)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		summary = core.BuildMonthSummary(userID, month, txs, nil)
		s.summaryCache.Set(key, summary)
	}

	breakdown := make([]map[string]any, 0, len(summary.ByCategory))
	for _, ca := range summary.ByCategory {
		breakdown = append(breakdown, map[string]any{
			"category":   ca.Category,
			"amount":     ca.Amount.Rupees(),
			"percentage": ca.Percent,
		})
	}

	respondOK(w, fmt.Sprintf("Spending breakdown for %s", month), map[string]any{
		"breakdown": breakdown,
		"total":     summary.Total.Rupees(),
		"month":     month,
	})
}
