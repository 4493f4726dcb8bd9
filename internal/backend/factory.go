package backend

import (
	"errors"
	"fmt"
	"log/slog"

	"splitmint/internal/storage"
	"splitmint/internal/store/memory"
)

// ErrMissingDBPath is returned when the sqlite backend has no database path.
var ErrMissingDBPath = errors.New("sqlite database path is required")

// InvalidTypeError reports an unknown backend type.
type InvalidTypeError struct {
	Type string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid backend type: %s", e.Type)
}

// Open creates the persistence backend described by config.
func Open(config Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	case MemoryBackend:
		logger.Info("Initialized memory backend")
		return &Result{Store: memory.New()}, nil

	default:
		return nil, &InvalidTypeError{Type: string(config.Type)}
	}
}
