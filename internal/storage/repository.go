package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"splitmint/internal/core"
	"splitmint/internal/store"

	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// SQLiteRepository implements store.Store on a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = store.NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, merchant, amount_cents, category, tx_date, email_subject, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Merchant, t.Amount.Cents, t.Category,
		t.Date.Format(dateLayout), t.EmailSubject, t.CreatedAt.Format(timeLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"merchant", t.Merchant,
		"amount_cents", t.Amount.Cents,
		"category", t.Category)

	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID, month string) ([]core.Transaction, error) {
	query := `
		SELECT id, user_id, merchant, amount_cents, category, tx_date, email_subject, created_at
		FROM transactions WHERE user_id = ?`
	args := []any{userID}
	if month != "" {
		query += ` AND tx_date LIKE ? || '-%'`
		args = append(args, month)
	}
	query += ` ORDER BY tx_date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var t core.Transaction
	var txDate, createdAt string
	if err := row.Scan(&t.ID, &t.UserID, &t.Merchant, &t.Amount.Cents,
		&t.Category, &txDate, &t.EmailSubject, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	d, err := time.Parse(dateLayout, txDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse tx_date %q: %w", txDate, err)
	}
	t.Date = core.Date{Time: d}
	if ts, err := time.Parse(timeLayout, createdAt); err == nil {
		t.CreatedAt = ts
	}
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, merchant, amount_cents, category, tx_date, email_subject, created_at
		FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	return t, err
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) HasTransaction(ctx context.Context, userID, merchant string, amount core.Money, date core.Date) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM transactions
		WHERE user_id = ? AND merchant = ? AND amount_cents = ? AND tx_date = ?
		LIMIT 1`,
		userID, merchant, amount.Cents, date.Format(dateLayout)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check duplicate transaction: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, month, income_cents, limit_cents)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, month) DO UPDATE SET
			income_cents = excluded.income_cents,
			limit_cents = excluded.limit_cents`,
		b.UserID, b.Month, b.Income.Cents, b.Limit.Cents)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, month string) (core.Budget, error) {
	b := core.Budget{UserID: userID, Month: month}
	err := r.db.QueryRowContext(ctx, `
		SELECT income_cents, limit_cents FROM budgets
		WHERE user_id = ? AND month = ?`,
		userID, month).Scan(&b.Income.Cents, &b.Limit.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, store.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// participantRow is the JSON shape participants are stored in.
type participantRow struct {
	Name            string  `json:"name"`
	Phone           string  `json:"phone_number,omitempty"`
	AmountPaid      int64   `json:"amount_paid_cents"`
	SharePercentage float64 `json:"share_percentage,omitempty"`
	ShareRatio      int     `json:"share_ratio,omitempty"`
	ShareAmount     int64   `json:"share_amount_cents"`
	AmountOwed      int64   `json:"amount_owed_cents"`
}

func encodeParticipants(parts []core.Participant) (string, error) {
	rows := make([]participantRow, len(parts))
	for i, p := range parts {
		rows[i] = participantRow{
			Name:            p.Name,
			Phone:           p.Phone,
			AmountPaid:      p.AmountPaid.Cents,
			SharePercentage: p.SharePercentage,
			ShareRatio:      p.ShareRatio,
			ShareAmount:     p.ShareAmount.Cents,
			AmountOwed:      p.AmountOwed.Cents,
		}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode participants: %w", err)
	}
	return string(b), nil
}

func decodeParticipants(raw string) ([]core.Participant, error) {
	var rows []participantRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	parts := make([]core.Participant, len(rows))
	for i, row := range rows {
		parts[i] = core.Participant{
			Name:            row.Name,
			Phone:           row.Phone,
			AmountPaid:      core.Money{Cents: row.AmountPaid},
			SharePercentage: row.SharePercentage,
			ShareRatio:      row.ShareRatio,
			ShareAmount:     core.Money{Cents: row.ShareAmount},
			AmountOwed:      core.Money{Cents: row.AmountOwed},
		}
	}
	return parts, nil
}

func (r *SQLiteRepository) InsertSplit(ctx context.Context, sp core.Split) (core.Split, error) {
	participants, err := encodeParticipants(sp.Participants)
	if err != nil {
		return core.Split{}, err
	}
	now := time.Now().UTC()
	if sp.CreatedAt.IsZero() {
		sp.CreatedAt = now
	}
	sp.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO splits (user_id, transaction_id, merchant, total_cents, category,
			split_date, method, participants, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.UserID, sp.TransactionID, sp.Merchant, sp.Total.Cents, sp.Category,
		sp.Date.Format(dateLayout), string(sp.Method), participants, sp.Notes,
		sp.CreatedAt.Format(timeLayout), sp.UpdatedAt.Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.Split{}, store.ErrDuplicate
		}
		return core.Split{}, fmt.Errorf("insert split: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		sp.ID = id
	}

	slog.InfoContext(ctx, "Split saved",
		"id", sp.ID,
		"transaction_id", sp.TransactionID,
		"method", string(sp.Method),
		"participants", len(sp.Participants))

	return sp, nil
}

func (r *SQLiteRepository) GetSplit(ctx context.Context, userID, transactionID string) (core.Split, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, transaction_id, merchant, total_cents, category,
			split_date, method, participants, notes, created_at, updated_at
		FROM splits WHERE user_id = ? AND transaction_id = ?`,
		userID, transactionID)
	sp, err := scanSplit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Split{}, store.ErrNotFound
	}
	return sp, err
}

func (r *SQLiteRepository) DeleteSplit(ctx context.Context, userID, transactionID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM splits WHERE user_id = ? AND transaction_id = ?`, userID, transactionID)
	if err != nil {
		return fmt.Errorf("delete split: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListSplits(ctx context.Context, userID string) ([]core.Split, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, transaction_id, merchant, total_cents, category,
			split_date, method, participants, notes, created_at, updated_at
		FROM splits WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list splits: %w", err)
	}
	defer rows.Close()

	var out []core.Split
	for rows.Next() {
		sp, err := scanSplit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSplit(row scanner) (core.Split, error) {
	var sp core.Split
	var method, splitDate, participants, createdAt, updatedAt string
	err := row.Scan(&sp.ID, &sp.UserID, &sp.TransactionID, &sp.Merchant,
		&sp.Total.Cents, &sp.Category, &splitDate, &method, &participants,
		&sp.Notes, &createdAt, &updatedAt)
	if err != nil {
		return core.Split{}, err
	}
	sp.Method = core.SplitMethod(method)
	d, err := time.Parse(dateLayout, splitDate)
	if err != nil {
		return core.Split{}, fmt.Errorf("parse split_date %q: %w", splitDate, err)
	}
	sp.Date = core.Date{Time: d}
	if ts, err := time.Parse(timeLayout, createdAt); err == nil {
		sp.CreatedAt = ts
	}
	if ts, err := time.Parse(timeLayout, updatedAt); err == nil {
		sp.UpdatedAt = ts
	}
	sp.Participants, err = decodeParticipants(participants)
	if err != nil {
		return core.Split{}, err
	}
	return sp, nil
}
