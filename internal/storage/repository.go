package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"budgetbox/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the local record store: one budget per (owner, period) key
// plus a singleton session row. It survives restarts and has no network
// dependency.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
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

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const budgetColumns = `id, owner, period, income, monthly_bills, food, transport,
	subscriptions, miscellaneous, created_at, updated_at, last_sync_at, sync_status`

// SaveBudget upserts a budget under its (owner, period) key. The write is
// idempotent: saving the same record twice leaves one row.
func (r *Repository) SaveBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}

	var lastSync any
	if b.LastSyncAt != nil {
		lastSync = b.LastSyncAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, owner, period, income, monthly_bills, food, transport,
			subscriptions, miscellaneous, created_at, updated_at, last_sync_at, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner, period) DO UPDATE SET
			id = excluded.id,
			income = excluded.income,
			monthly_bills = excluded.monthly_bills,
			food = excluded.food,
			transport = excluded.transport,
			subscriptions = excluded.subscriptions,
			miscellaneous = excluded.miscellaneous,
			updated_at = excluded.updated_at,
			last_sync_at = excluded.last_sync_at,
			sync_status = excluded.sync_status`,
		b.ID, b.Owner, b.Period, b.Income, b.MonthlyBills, b.Food, b.Transport,
		b.Subscriptions, b.Miscellaneous,
		b.CreatedAt.UTC().Format(time.RFC3339Nano),
		b.UpdatedAt.UTC().Format(time.RFC3339Nano),
		lastSync, string(b.SyncStatus))
	return wrap("save budget", err)
}

// GetBudget returns the budget for the key, or ErrNotFound.
func (r *Repository) GetBudget(ctx context.Context, owner, period string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE owner = ? AND period = ?`,
		owner, period)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, wrap("get budget", err)
	}
	return b, nil
}

// ListBudgets returns all budgets for an owner, newest period first.
func (r *Repository) ListBudgets(ctx context.Context, owner string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE owner = ? ORDER BY period DESC`,
		owner)
	if err != nil {
		return nil, wrap("list budgets", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, wrap("list budgets", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list budgets", err)
	}
	return out, nil
}

// LatestBudget returns the owner's most recently updated budget across all
// periods, or ErrNotFound.
func (r *Repository) LatestBudget(ctx context.Context, owner string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE owner = ?
		 ORDER BY updated_at DESC LIMIT 1`, owner)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, wrap("latest budget", err)
	}
	return b, nil
}

// DeleteBudget removes the record for the key. Deleting a missing record
// is not an error.
func (r *Repository) DeleteBudget(ctx context.Context, owner, period string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE owner = ? AND period = ?`, owner, period)
	return wrap("delete budget", err)
}

// SaveSession stores the logged-in identity, replacing any previous one.
func (r *Repository) SaveSession(ctx context.Context, id core.Identity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session (id, user_id, email, created_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			created_at = excluded.created_at`,
		id.ID, id.Email, time.Now().UTC().Format(time.RFC3339Nano))
	return wrap("save session", err)
}

// GetSession returns the stored identity, or ErrNotFound when logged out.
func (r *Repository) GetSession(ctx context.Context) (core.Identity, error) {
	var id core.Identity
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, email FROM session WHERE id = 1`).Scan(&id.ID, &id.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Identity{}, ErrNotFound
	}
	if err != nil {
		return core.Identity{}, wrap("get session", err)
	}
	return id, nil
}

// ClearSession logs out. Clearing an absent session is a no-op.
func (r *Repository) ClearSession(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`)
	return wrap("clear session", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b         core.Budget
		createdAt string
		updatedAt string
		lastSync  sql.NullString
		status    string
	)
	err := row.Scan(&b.ID, &b.Owner, &b.Period, &b.Income, &b.MonthlyBills,
		&b.Food, &b.Transport, &b.Subscriptions, &b.Miscellaneous,
		&createdAt, &updatedAt, &lastSync, &status)
	if err != nil {
		return core.Budget{}, err
	}

	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.Budget{}, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return core.Budget{}, fmt.Errorf("parse updated_at: %w", err)
	}
	if lastSync.Valid {
		t, err := time.Parse(time.RFC3339Nano, lastSync.String)
		if err != nil {
			return core.Budget{}, fmt.Errorf("parse last_sync_at: %w", err)
		}
		b.LastSyncAt = &t
	}
	b.SyncStatus = core.SyncStatus(status)
	return b, nil
}
