package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"splitmint/internal/cache"
	"splitmint/internal/core"
	"splitmint/internal/log"
	"splitmint/internal/services"
	"splitmint/internal/store"
)

// Server is the JSON API surface. It owns the response caches for month
// reads and a per-IP rate limiter for mutating requests.
type Server struct {
	http.Server

	store  store.Store
	splits *services.SplitService
	ingest *services.IngestService // nil when Gmail is not configured

	rateLimiter *rateLimiter
	metrics     *securityMetrics
	httpLog     *log.StructuredLogger

	txCache      *cache.LRUCache[[]core.Transaction]
	summaryCache *cache.LRUCache[core.MonthSummary]
	caches       *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
// ingest may be nil; /api/fetch-transactions then answers 503.
func NewServer(addr string, st store.Store, splits *services.SplitService, ingest *services.IngestService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:        st,
		splits:       splits,
		ingest:       ingest,
		rateLimiter:  newRateLimiter(),
		metrics:      &securityMetrics{},
		httpLog:      log.NewStructuredLogger(log.New(log.DefaultConfig())),
		txCache:      cache.NewLRUCache[[]core.Transaction](200, 5*time.Minute),
		summaryCache: cache.NewLRUCache[core.MonthSummary](100, 5*time.Minute),
		caches:       cache.NewManager(),
	}

	s.caches.Register(s.txCache)
	s.caches.Register(s.summaryCache)
	s.caches.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/transactions", s.withAPIHeaders(s.handleListTransactions))
	mux.HandleFunc("POST /api/add-transaction", s.withAPIHeaders(s.handleAddTransaction))
	mux.HandleFunc("DELETE /api/delete-transaction", s.withAPIHeaders(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/fetch-transactions", s.withAPIHeaders(s.handleFetchTransactions))

	mux.HandleFunc("GET /api/budget", s.withAPIHeaders(s.handleGetBudget))
	mux.HandleFunc("POST /api/update-budget", s.withAPIHeaders(s.handleUpdateBudget))
	mux.HandleFunc("GET /api/spending-by-category", s.withAPIHeaders(s.handleSpendingByCategory))

	mux.HandleFunc("POST /api/create-split", s.withAPIHeaders(s.handleCreateSplit))
	mux.HandleFunc("POST /api/get-split", s.withAPIHeaders(s.handleGetSplit))
	mux.HandleFunc("POST /api/delete-split", s.withAPIHeaders(s.handleDeleteSplit))
	mux.HandleFunc("GET /api/splits/{user_id}", s.withAPIHeaders(s.handleListSplits))
	mux.HandleFunc("POST /api/send-reminders", s.withAPIHeaders(s.handleSendReminders))

	return s
}

// withAPIHeaders adds security headers, rate limiting and request logging.
func (s *Server) withAPIHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.httpLog.LogHTTPStart(ctx, r, requestID, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request blocked",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}

		// Writes are rate limited; reads are not.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.httpLog.LogHTTPEnd(ctx, r, requestID, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, "healthy", map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Shutdown stops background cleanup goroutines and drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) txCacheKey(userID, month string) string {
	return userID + "|" + month
}

// invalidateMonth drops cached reads touched by a mutation. The unfiltered
// transaction list is keyed with an empty month and dropped as well.
func (s *Server) invalidateMonth(userID, month string) {
	s.txCache.Delete(s.txCacheKey(userID, month))
	s.txCache.Delete(s.txCacheKey(userID, ""))
	s.summaryCache.Delete(s.txCacheKey(userID, month))
}
