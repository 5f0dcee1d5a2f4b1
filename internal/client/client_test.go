package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"budgetbox/internal/auth"
	"budgetbox/internal/core"
	"budgetbox/internal/httpapi"
	"budgetbox/internal/log"
	"budgetbox/internal/remote"
)

func newTestPair(t *testing.T) (*Client, *remote.MemoryStore, *httptest.Server) {
	t.Helper()
	store := remote.NewMemoryStore()
	logger := log.New(log.Config{Level: slog.LevelError, Component: log.ComponentApp})
	srv := httpapi.NewServer("127.0.0.1:0", store, auth.NewAuthenticator(), nil, logger)

	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(ts.Close)

	return New(ts.URL, 5*time.Second), store, ts
}

func testBudget(owner, period string) core.Budget {
	b := core.NewBudget(owner, period)
	b.Income = 2500
	b.Transport = 120
	return b
}

func TestPushAndFetchRoundTrip(t *testing.T) {
	c, _, _ := newTestPair(t)
	ctx := context.Background()

	accepted, err := c.Push(ctx, testBudget("user-1", "2025-08"))
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if accepted.SyncStatus != core.StatusSynced {
		t.Fatalf("syncStatus = %q, want %q", accepted.SyncStatus, core.StatusSynced)
	}
	if accepted.LastSyncAt == nil {
		t.Fatal("push should stamp lastSyncAt")
	}

	got, err := c.Fetch(ctx, "user-1", "2025-08")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.Transport != 120 {
		t.Fatalf("transport = %v, want 120", got.Transport)
	}
}

func TestFetchLatest(t *testing.T) {
	c, store, _ := newTestPair(t)
	ctx := context.Background()

	if _, err := store.Push(ctx, testBudget("user-1", "2025-07")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := store.Push(ctx, testBudget("user-1", "2025-08")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := c.FetchLatest(ctx, "user-1")
	if err != nil {
		t.Fatalf("fetchLatest: %v", err)
	}
	if got.Period != "2025-08" {
		t.Fatalf("period = %q, want 2025-08", got.Period)
	}
}

func TestFetchMissingMapsToNotFound(t *testing.T) {
	c, _, _ := newTestPair(t)

	_, err := c.Fetch(context.Background(), "user-1", "2025-08")
	if !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("err = %v, want remote.ErrNotFound", err)
	}
}

func TestPushRejectionIsNetworkError(t *testing.T) {
	c, _, _ := newTestPair(t)

	_, err := c.Push(context.Background(), testBudget("", "2025-08"))
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want *NetworkError", err)
	}
	if netErr.StatusCode != 400 {
		t.Fatalf("statusCode = %d, want 400", netErr.StatusCode)
	}
}

func TestUnreachableServerIsNetworkError(t *testing.T) {
	c, _, ts := newTestPair(t)
	ts.Close()

	_, err := c.Push(context.Background(), testBudget("user-1", "2025-08"))
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want *NetworkError", err)
	}
	if netErr.StatusCode != 0 {
		t.Fatalf("statusCode = %d, want 0 for transport failure", netErr.StatusCode)
	}
}

func TestLogin(t *testing.T) {
	c, _, _ := newTestPair(t)
	ctx := context.Background()

	user, err := c.Login(ctx, auth.Fallback.Email, "HireMe@2025!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != auth.Fallback.ID {
		t.Fatalf("user id = %q, want %q", user.ID, auth.Fallback.ID)
	}

	if _, err := c.Login(ctx, auth.Fallback.Email, "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want auth.ErrInvalidCredentials", err)
	}
}

func TestPing(t *testing.T) {
	c, _, ts := newTestPair(t)

	if !c.Ping(context.Background()) {
		t.Fatal("ping should succeed against a live server")
	}

	ts.Close()
	if c.Ping(context.Background()) {
		t.Fatal("ping should fail once the server is gone")
	}
}
