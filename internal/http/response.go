package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"splitmint/internal/core"
	"splitmint/internal/store"
)

// apiResponse is the envelope every endpoint answers with.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: message, Data: data})
}

func respondCount(w http.ResponseWriter, message string, data any, count int) {
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: message, Data: data, Count: &count})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Success: false, Message: message})
}

// respondDomainError maps storage and validation errors onto status codes:
// missing records are 404, double splits 409, malformed input 400 and
// semantically invalid input 422.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicate):
		respondError(w, http.StatusConflict, "split already exists for this transaction")
	case isValidationError(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrEmptyUserID),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidMethod):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isValidationError(err error) bool {
	var (
		missingName *core.MissingNameError
		mismatch    *core.AmountMismatchError
		pctMismatch *core.PercentageMismatchError
		badRatio    *core.InvalidRatioError
		tooFew      *core.InsufficientParticipantsError
		badInput    *core.InvalidMethodInputError
	)
	return errors.As(err, &missingName) ||
		errors.As(err, &mismatch) ||
		errors.As(err, &pctMismatch) ||
		errors.As(err, &badRatio) ||
		errors.As(err, &tooFew) ||
		errors.As(err, &badInput) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyMerchant) ||
		errors.Is(err, core.ErrInvalidCategory) ||
		errors.Is(err, core.ErrNoReceiver)
}

// decodeBody decodes a JSON request body into dst, rejecting unknown
// fields and trailing garbage.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	return nil
}
