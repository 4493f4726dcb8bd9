package worker

import (
	"context"
	"log/slog"
	"time"

	"splitmint/internal/services"
)

// Monitor polls the mailbox on a fixed interval and feeds new transaction
// emails through the ingestion pipeline.
type Monitor struct {
	ingest   *services.IngestService
	userID   string
	interval time.Duration
}

func NewMonitor(ingest *services.IngestService, userID string, interval time.Duration) *Monitor {
	return &Monitor{
		ingest:   ingest,
		userID:   userID,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled. The first pass happens immediately so a
// restart does not wait a full interval to catch up.
func (m *Monitor) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Starting email monitor",
		"user_id", m.userID,
		"interval", m.interval)

	m.poll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping email monitor", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

// poll runs one ingestion pass. Failures are logged, not returned, so a
// transient Gmail outage does not kill the monitor loop.
func (m *Monitor) poll(ctx context.Context) {
	stats, err := m.ingest.Run(ctx, m.userID)
	if err != nil {
		slog.ErrorContext(ctx, "Email ingestion pass failed", "error", err)
		return
	}

	if stats.Inserted > 0 || stats.Failed > 0 {
		slog.InfoContext(ctx, "Email ingestion pass complete",
			"fetched", stats.Fetched,
			"parsed", stats.Parsed,
			"duplicates", stats.Duplicates,
			"inserted", stats.Inserted,
			"failed", stats.Failed)
	}
}
