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

type participantJSON struct {
	Name            string  `json:"name"`
	PhoneNumber     string  `json:"phone_number,omitempty"`
	AmountPaid      float64 `json:"amount_paid"`
	SharePercentage float64 `json:"share_percentage,omitempty"`
	ShareRatio      int     `json:"share_ratio,omitempty"`
	ShareAmount     float64 `json:"share_amount"`
	AmountOwed      float64 `json:"amount_owed"`
}

type splitJSON struct {
	TransactionID string            `json:"transaction_id"`
	Merchant      string            `json:"merchant"`
	TotalAmount   float64           `json:"total_amount"`
	Category      string            `json:"category"`
	Date          string            `json:"date"`
	SplitMethod   string            `json:"split_method"`
	Participants  []participantJSON `json:"participants"`
	Notes         string            `json:"notes,omitempty"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

func toSplitJSON(sp core.Split) splitJSON {
	parts := make([]participantJSON, len(sp.Participants))
	for i, p := range sp.Participants {
		parts[i] = participantJSON{
			Name:            p.Name,
			PhoneNumber:     p.Phone,
			AmountPaid:      p.AmountPaid.Rupees(),
			SharePercentage: p.SharePercentage,
			ShareRatio:      p.ShareRatio,
			ShareAmount:     p.ShareAmount.Rupees(),
			AmountOwed:      p.AmountOwed.Rupees(),
		}
	}
	return splitJSON{
		TransactionID: sp.TransactionID,
		Merchant:      sp.Merchant,
		TotalAmount:   sp.Total.Rupees(),
		Category:      sp.Category,
		Date:          sp.Date.Format("2006-01-02"),
		SplitMethod:   string(sp.Method),
		Participants:  parts,
		Notes:         sp.Notes,
		CreatedAt:     sp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     sp.UpdatedAt.Format(time.RFC3339),
	}
}

type splitParticipantRequest struct {
	Name            string  `json:"name"`
	PhoneNumber     string  `json:"phone_number"`
	AmountPaid      float64 `json:"amount_paid"`
	SharePercentage float64 `json:"share_percentage"`
	ShareRatio      int     `json:"share_ratio"`
}

type createSplitRequest struct {
	UserID        string                    `json:"user_id"`
	TransactionID string                    `json:"transaction_id"`
	Participants  []splitParticipantRequest `json:"participants"`
	SplitMethod   string                    `json:"split_method"`
	Notes         string                    `json:"notes"`
}

func (s *Server) handleCreateSplit(w http.ResponseWriter, r *http.Request) {
	var req createSplitRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	method := core.SplitMethod(req.SplitMethod)
	if err := method.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid split method, must be one of: equal, percentage, ratio")
		return
	}

	// Merchant, amount and date come from the transaction being split.
	tx, err := s.store.GetTransaction(r.Context(), req.UserID, req.TransactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "transaction not found")
			return
		}
		respondDomainError(w, err)
		return
	}

	parts := make([]core.Participant, len(req.Participants))
	for i, p := range req.Participants {
		parts[i] = core.Participant{
			Name:            sanitizeInput(p.Name),
			Phone:           strings.TrimSpace(p.PhoneNumber),
			AmountPaid:      core.FromFloat(p.AmountPaid),
			SharePercentage: p.SharePercentage,
			ShareRatio:      p.ShareRatio,
		}
	}

	sp := core.Split{
		UserID:        req.UserID,
		TransactionID: req.TransactionID,
		Merchant:      tx.Merchant,
		Total:         tx.Amount,
		Category:      tx.Category,
		Date:          tx.Date,
		Method:        method,
		Participants:  parts,
		Notes:         sanitizeInput(req.Notes),
	}

	saved, err := s.splits.CreateSplit(r.Context(), sp)
	if err != nil {
		slog.WarnContext(r.Context(), "Split creation rejected",
			"user_id", req.UserID, "transaction_id", req.TransactionID, "error", err)
		respondDomainError(w, err)
		return
	}

	respondOK(w, "Split created successfully", toSplitJSON(saved))
}

type splitLookupRequest struct {
	UserID        string `json:"user_id"`
	TransactionID string `json:"transaction_id"`
}

func (s *Server) handleGetSplit(w http.ResponseWriter, r *http.Request) {
	var req splitLookupRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	sp, err := s.splits.GetSplit(r.Context(), req.UserID, req.TransactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, apiResponse{
				Success: false,
				Message: "No split found for this transaction",
			})
			return
		}
		respondDomainError(w, err)
		return
	}

	respondOK(w, "Split found", toSplitJSON(sp))
}

func (s *Server) handleDeleteSplit(w http.ResponseWriter, r *http.Request) {
	var req splitLookupRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := s.splits.DeleteSplit(r.Context(), req.UserID, req.TransactionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Split not found")
			return
		}
		respondDomainError(w, err)
		return
	}

	respondOK(w, "Split deleted successfully", nil)
}

func (s *Server) handleListSplits(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("user_id"))
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	splits, err := s.splits.ListSplits(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	list := make([]splitJSON, 0, len(splits))
	for _, sp := range splits {
		list = append(list, toSplitJSON(sp))
	}
	respondCount(w, fmt.Sprintf("Found %d splits", len(list)), list, len(list))
}

type transferJSON struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

func (s *Server) handleSendReminders(w http.ResponseWriter, r *http.Request) {
	var req splitLookupRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	transfers, err := s.splits.SendReminders(r.Context(), req.UserID, req.TransactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Split not found")
			return
		}
		respondDomainError(w, err)
		return
	}

	list := make([]transferJSON, 0, len(transfers))
	for _, t := range transfers {
		list = append(list, transferJSON{From: t.From, To: t.To, Amount: t.Amount.Rupees()})
	}
	respondCount(w, fmt.Sprintf("Queued %d payment reminders", len(list)), list, len(list))
}
