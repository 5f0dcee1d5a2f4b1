package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budgetbox/internal/amqp"
	"budgetbox/internal/auth"
	"budgetbox/internal/core"
	"budgetbox/internal/log"
	"budgetbox/internal/remote"
)

type recordingPublisher struct {
	messages []*amqp.BudgetSyncedMessage
}

func (p *recordingPublisher) PublishBudgetSynced(_ context.Context, msg *amqp.BudgetSyncedMessage) error {
	p.messages = append(p.messages, msg)
	return nil
}

func newTestServer(t *testing.T) (*Server, *remote.MemoryStore, *recordingPublisher) {
	t.Helper()
	store := remote.NewMemoryStore()
	events := &recordingPublisher{}
	logger := log.New(log.Config{Level: slog.LevelError, Component: log.ComponentApp})
	srv := NewServer("127.0.0.1:0", store, auth.NewAuthenticator(), events, logger)
	return srv, store, events
}

func doJSON(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func testBudget(owner, period string) core.Budget {
	b := core.NewBudget(owner, period)
	b.Income = 3000
	b.Food = 400
	return b
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Server.Handler, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("status = %q, want ok", resp.Status)
	}
	if resp.Timestamp.IsZero() {
		t.Fatal("timestamp should be set")
	}
}

func TestPushStoresAndStamps(t *testing.T) {
	srv, store, events := newTestServer(t)

	rec := doJSON(t, srv.Server.Handler, http.MethodPost, "/sync", testBudget("user-1", "2025-08"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp syncResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success")
	}
	if resp.Data.SyncStatus != core.StatusSynced {
		t.Fatalf("syncStatus = %q, want %q", resp.Data.SyncStatus, core.StatusSynced)
	}
	if resp.Timestamp.IsZero() {
		t.Fatal("timestamp should carry the sync stamp")
	}

	stored, err := store.Fetch(context.Background(), "user-1", "2025-08")
	if err != nil {
		t.Fatalf("fetch stored record: %v", err)
	}
	if stored.Food != 400 {
		t.Fatalf("food = %v, want 400", stored.Food)
	}

	if len(events.messages) != 1 {
		t.Fatalf("published %d events, want 1", len(events.messages))
	}
	if events.messages[0].Owner != "user-1" || events.messages[0].Period != "2025-08" {
		t.Fatalf("event key = %s-%s", events.messages[0].Owner, events.messages[0].Period)
	}
}

func TestPushRejectsMissingKey(t *testing.T) {
	srv, _, events := newTestServer(t)

	b := testBudget("", "2025-08")
	rec := doJSON(t, srv.Server.Handler, http.MethodPost, "/sync", b)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(events.messages) != 0 {
		t.Fatal("rejected push must not publish an event")
	}
}

func TestPushRejectsMalformedBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/sync", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFetchByKeyAndLatest(t *testing.T) {
	srv, store, _ := newTestServer(t)

	ctx := context.Background()
	if _, err := store.Push(ctx, testBudget("user-1", "2025-07")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := store.Push(ctx, testBudget("user-1", "2025-08")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doJSON(t, srv.Server.Handler, http.MethodGet, "/sync?owner=user-1&period=2025-07", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var b core.Budget
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Period != "2025-07" {
		t.Fatalf("period = %q, want 2025-07", b.Period)
	}

	rec = doJSON(t, srv.Server.Handler, http.MethodGet, "/sync?owner=user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("latest status = %d, want 200", rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	if b.Period != "2025-08" {
		t.Fatalf("latest period = %q, want 2025-08", b.Period)
	}
}

func TestFetchMissingRecord(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Server.Handler, http.MethodGet, "/sync?owner=user-1&period=2025-08", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestFetchRequiresOwner(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Server.Handler, http.MethodGet, "/sync?period=2025-08", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLoginWithFallbackCredentials(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Server.Handler, http.MethodPost, "/login", loginRequest{
		Email:    auth.Fallback.Email,
		Password: "HireMe@2025!",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.User.ID != auth.Fallback.ID {
		t.Fatalf("unexpected login response: %+v", resp)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Server.Handler, http.MethodPost, "/login", loginRequest{
		Email:    auth.Fallback.Email,
		Password: "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLoginRequiresFields(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Server.Handler, http.MethodPost, "/login", loginRequest{Email: "a@b.c"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var last int
	for i := 0; i < loginRateLimit+1; i++ {
		rec := doJSON(t, srv.Server.Handler, http.MethodPost, "/login", loginRequest{
			Email:    auth.Fallback.Email,
			Password: "wrong",
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("status after %d attempts = %d, want 429", loginRateLimit+1, last)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	doJSON(t, srv.Server.Handler, http.MethodPost, "/sync", testBudget("user-1", "2025-08"))

	rec := doJSON(t, srv.Server.Handler, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "budgetbox_pushes_total") {
		t.Fatal("metrics output should include the push counter")
	}
}
