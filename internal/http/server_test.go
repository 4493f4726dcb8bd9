package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"splitmint/internal/gmail"
	"splitmint/internal/services"
	"splitmint/internal/store/memory"
)

type stubFetcher struct {
	emails []gmail.Email
}

func (f *stubFetcher) FetchTransactionEmails(_ context.Context, _ time.Duration, _ int) ([]gmail.Email, error) {
	return f.emails, nil
}

type stubCategorizer struct{}

func (stubCategorizer) Categorize(_ context.Context, _ string) string { return "Others" }

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	splits := services.NewSplitService(st, nil, nil)
	srv := NewServer(":0", st, splits, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, st
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func addTransaction(t *testing.T, srv *Server, userID, merchant string, amount float64, date string) string {
	t.Helper()
	body := fmt.Sprintf(`{"user_id":%q,"merchant":%q,"amount":%g,"category":"Food and Drinks","date":%q}`,
		userID, merchant, amount, date)
	rec := doJSON(t, srv, http.MethodPost, "/api/add-transaction", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("add-transaction status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	return data["transaction_id"].(string)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Error("health not successful")
	}
}

func TestAddAndListTransactions(t *testing.T) {
	srv, _ := newTestServer(t)
	addTransaction(t, srv, "user_1", "Dominos Pizza", 450, "2025-01-15")
	addTransaction(t, srv, "user_1", "Uber", 180, "2025-02-03")

	rec := doJSON(t, srv, http.MethodGet, "/api/transactions?user_id=user_1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp.Count == nil || *resp.Count != 2 {
		t.Errorf("count = %v, want 2", resp.Count)
	}
	data := resp.Data.(map[string]any)
	if got := data["total_spent"].(float64); got != 630 {
		t.Errorf("total_spent = %v, want 630", got)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions?user_id=user_1&month=2025-01", "")
	resp = decodeResponse(t, rec)
	if resp.Count == nil || *resp.Count != 1 {
		t.Errorf("month filter count = %v, want 1", resp.Count)
	}
}

func TestListTransactionsValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	if rec := doJSON(t, srv, http.MethodGet, "/api/transactions", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("missing user_id status = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodGet, "/api/transactions?user_id=u&month=2025-13", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad month status = %d, want 422", rec.Code)
	}
}

func TestAddTransactionValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad category", `{"user_id":"u","merchant":"X","amount":10,"category":"Gambling","date":"2025-01-15"}`, http.StatusUnprocessableEntity},
		{"bad date", `{"user_id":"u","merchant":"X","amount":10,"category":"Others","date":"15-01-2025"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"user_id":"u","merchant":"X","amount":0,"category":"Others","date":"2025-01-15"}`, http.StatusUnprocessableEntity},
		{"malformed body", `{"user_id":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/add-transaction", tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	srv, _ := newTestServer(t)
	id := addTransaction(t, srv, "user_1", "Dominos Pizza", 450, "2025-01-15")

	body := fmt.Sprintf(`{"user_id":"user_1","transaction_id":%q}`, id)
	if rec := doJSON(t, srv, http.MethodDelete, "/api/delete-transaction", body); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := doJSON(t, srv, http.MethodDelete, "/api/delete-transaction", body); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestBudgetLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	addTransaction(t, srv, "user_1", "Dominos Pizza", 450, "2025-01-15")

	rec := doJSON(t, srv, http.MethodPost, "/api/update-budget",
		`{"user_id":"user_1","income":50000,"budget":20000,"month":"2025-01"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update-budget status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/budget?user_id=user_1&month=2025-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get budget status = %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	if data["total_spent"].(float64) != 450 {
		t.Errorf("total_spent = %v, want 450", data["total_spent"])
	}
	if data["remaining"].(float64) != 19550 {
		t.Errorf("remaining = %v, want 19550", data["remaining"])
	}

	if rec := doJSON(t, srv, http.MethodGet, "/api/budget?user_id=user_1&month=2025-02", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing budget status = %d, want 404", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/update-budget",
		`{"user_id":"user_1","income":0,"budget":20000,"month":"2025-01"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("zero income status = %d, want 422", rec.Code)
	}
}

func TestSpendingByCategory(t *testing.T) {
	srv, _ := newTestServer(t)
	addTransaction(t, srv, "user_1", "Dominos Pizza", 450, "2025-01-15")
	addTransaction(t, srv, "user_1", "Pizza Hut", 550, "2025-01-20")

	rec := doJSON(t, srv, http.MethodGet, "/api/spending-by-category?user_id=user_1&month=2025-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	if data["total"].(float64) != 1000 {
		t.Errorf("total = %v, want 1000", data["total"])
	}
	breakdown := data["breakdown"].([]any)
	if len(breakdown) != 1 {
		t.Fatalf("breakdown has %d rows, want 1", len(breakdown))
	}
	row := breakdown[0].(map[string]any)
	if row["category"] != "Food and Drinks" || row["percentage"].(float64) != 100 {
		t.Errorf("row = %v", row)
	}
}

func TestFetchTransactionsNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/fetch-transactions", `{"user_id":"user_1"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestFetchTransactionsRunsPipeline(t *testing.T) {
	st := memory.New()
	fetcher := &stubFetcher{emails: []gmail.Email{{
		MessageID: "m1",
		Subject:   "Transaction alert: Rs 450 spent at Dominos Pizza",
		Body:      "Rs 450 spent at Dominos Pizza on 15/01/2025",
	}}}
	ingest := services.NewIngestService(fetcher, stubCategorizer{}, st, 7*24*time.Hour, 3)
	srv := NewServer(":0", st, services.NewSplitService(st, nil, nil), ingest)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	rec := doJSON(t, srv, http.MethodPost, "/api/fetch-transactions", `{"user_id":"user_1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp.Count == nil || *resp.Count != 1 {
		t.Errorf("count = %v, want 1", resp.Count)
	}
}

func TestSecurityHeadersAndSuspiciousRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/transactions?user_id=u", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions?user_id=../etc/passwd", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("suspicious request status = %d, want 400", rec.Code)
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	srv, _ := newTestServer(t)

	var last int
	for i := 0; i <= requestsPerMinute; i++ {
		rec := doJSON(t, srv, http.MethodPost, "/api/update-budget",
			`{"user_id":"user_1","income":1,"budget":1,"month":"2025-01"}`)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status after %d writes = %d, want 429", requestsPerMinute+1, last)
	}
}
