package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"budgetbox/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "budgetbox.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestBudgetRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	b := core.NewBudget("user-1", "2025-08")
	if err := b.ApplyField(core.FieldIncome, 3000); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := b.ApplyField(core.FieldFood, 450.50); err != nil {
		t.Fatalf("apply: %v", err)
	}
	b.SyncStatus = core.StatusSyncPending

	if err := repo.SaveBudget(ctx, b); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetBudget(ctx, "user-1", "2025-08")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != b.ID || got.Owner != b.Owner || got.Period != b.Period {
		t.Fatalf("identity mismatch: %+v", got)
	}
	if got.Income != 3000 || got.Food != 450.50 {
		t.Fatalf("amounts mismatch: income=%v food=%v", got.Income, got.Food)
	}
	if got.SyncStatus != core.StatusSyncPending {
		t.Fatalf("status = %q", got.SyncStatus)
	}
	if !got.UpdatedAt.Equal(b.UpdatedAt) {
		t.Fatalf("updatedAt mismatch: %v vs %v", got.UpdatedAt, b.UpdatedAt)
	}
	if got.LastSyncAt != nil {
		t.Fatal("lastSyncAt should stay nil until a successful push")
	}
}

func TestSaveBudgetUpserts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	b := core.NewBudget("user-1", "2025-08")
	if err := repo.SaveBudget(ctx, b); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := b.ApplyField(core.FieldTransport, 120); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := repo.SaveBudget(ctx, b); err != nil {
		t.Fatalf("second save: %v", err)
	}

	list, err := repo.ListBudgets(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one row after upsert, got %d", len(list))
	}
	if list[0].Transport != 120 {
		t.Fatalf("transport = %v", list[0].Transport)
	}
}

func TestSaveBudgetRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)

	b := core.NewBudget("user-1", "2025-08")
	b.Period = "bad"
	if err := repo.SaveBudget(context.Background(), b); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestGetBudgetNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetBudget(context.Background(), "user-1", "2025-08")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListBudgetsOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, period := range []string{"2025-06", "2025-08", "2025-07"} {
		if err := repo.SaveBudget(ctx, core.NewBudget("user-1", period)); err != nil {
			t.Fatalf("save %s: %v", period, err)
		}
	}
	// Another owner's record must not leak in.
	if err := repo.SaveBudget(ctx, core.NewBudget("user-2", "2025-08")); err != nil {
		t.Fatalf("save: %v", err)
	}

	list, err := repo.ListBudgets(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2025-08", "2025-07", "2025-06"}
	if len(list) != len(want) {
		t.Fatalf("got %d budgets, want %d", len(list), len(want))
	}
	for i, period := range want {
		if list[i].Period != period {
			t.Fatalf("position %d: got %q, want %q", i, list[i].Period, period)
		}
	}
}

func TestLatestBudgetByUpdatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	older := core.NewBudget("user-1", "2025-08")
	older.UpdatedAt = time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := core.NewBudget("user-1", "2025-07")
	newer.UpdatedAt = time.Date(2025, 8, 2, 10, 0, 0, 0, time.UTC)

	if err := repo.SaveBudget(ctx, older); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveBudget(ctx, newer); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.LatestBudget(ctx, "user-1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.Period != "2025-07" {
		t.Fatalf("latest period = %q, want the more recently updated 2025-07", got.Period)
	}
}

func TestDeleteBudget(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveBudget(ctx, core.NewBudget("user-1", "2025-08")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.DeleteBudget(ctx, "user-1", "2025-08"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetBudget(ctx, "user-1", "2025-08"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Idempotent.
	if err := repo.DeleteBudget(ctx, "user-1", "2025-08"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSession(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before login, got %v", err)
	}

	id := core.Identity{ID: "demo-user-123", Email: "hire-me@anshumat.org"}
	if err := repo.SaveSession(ctx, id); err != nil {
		t.Fatalf("save session: %v", err)
	}

	got, err := repo.GetSession(ctx)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got != id {
		t.Fatalf("session = %+v, want %+v", got, id)
	}

	// A second login replaces the singleton row.
	other := core.Identity{ID: "user-2", Email: "other@example.com"}
	if err := repo.SaveSession(ctx, other); err != nil {
		t.Fatalf("replace session: %v", err)
	}
	got, err = repo.GetSession(ctx)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got != other {
		t.Fatalf("session = %+v, want %+v", got, other)
	}

	if err := repo.ClearSession(ctx); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	if _, err := repo.GetSession(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after logout, got %v", err)
	}
}
