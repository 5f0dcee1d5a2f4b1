package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"budgetbox/internal/core"
	"budgetbox/internal/storage"
)

var (
	ErrNoSession     = errors.New("no active session")
	ErrOffline       = errors.New("connectivity is absent")
	ErrNoBudget      = errors.New("no budget for the current period")
	ErrOwnerMismatch = errors.New("budget owner does not match the session")
	ErrPushInFlight  = errors.New("a push is already in flight")
)

type (
	// BudgetStore is what the coordinator needs from the local record
	// store. GetBudget reports a missing key with storage.ErrNotFound.
	BudgetStore interface {
		SaveBudget(ctx context.Context, b core.Budget) error
		GetBudget(ctx context.Context, owner, period string) (core.Budget, error)
	}

	// Pusher sends a whole budget record to the remote store and returns
	// the accepted copy.
	Pusher interface {
		Push(ctx context.Context, b core.Budget) (core.Budget, error)
	}
)

// CoordinatorConfig holds tuning knobs for the sync coordinator.
type CoordinatorConfig struct {
	// DebounceWindow is how long to coalesce edits before pushing, so a
	// burst of keystrokes produces one network call (default: 1s).
	DebounceWindow time.Duration

	// Clock overrides time.Now, used by tests to pin the current period.
	Clock func() time.Time
}

// DefaultCoordinatorConfig returns sensible defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		DebounceWindow: time.Second,
		Clock:          time.Now,
	}
}

// SyncCoordinator owns the current month's budget for one session and
// drives its sync status: local edits persist locally first, then a
// coalesced push attempt runs when connectivity allows. A failed push
// never escalates; the record stays sync-pending until the next edit,
// reconnect or manual sync.
//
// At most one push is outstanding at a time. An edit arriving while a
// push is in flight marks the coordinator dirty and a fresh push with the
// latest state follows once the flight resolves, so the remote copy
// always converges on the newest aggregate content.
type SyncCoordinator struct {
	store  BudgetStore
	pusher Pusher
	deb    *debouncer
	clock  func() time.Time

	mu       sync.Mutex
	session  *core.Identity
	current  *core.Budget
	online   bool
	inFlight bool
	rePush   bool
}

func NewSyncCoordinator(store BudgetStore, pusher Pusher, cfg CoordinatorConfig) *SyncCoordinator {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &SyncCoordinator{
		store:  store,
		pusher: pusher,
		deb:    newDebouncer(cfg.DebounceWindow),
		clock:  cfg.Clock,
	}
}

// SetSession installs the logged-in identity. Passing nil logs out and
// drops the cached aggregate.
func (c *SyncCoordinator) SetSession(id *core.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = id
	c.current = nil
}

// SetOnline records the connectivity state. A transition from absent to
// present schedules one push attempt of the current aggregate if one
// exists, regardless of its status.
func (c *SyncCoordinator) SetOnline(ctx context.Context, online bool) {
	c.mu.Lock()
	wasOnline := c.online
	c.online = online

	schedule := false
	if online && !wasOnline && c.session != nil {
		if c.current == nil {
			period := core.CurrentPeriod(c.clock())
			if b, err := c.store.GetBudget(ctx, c.session.ID, period); err == nil {
				c.current = &b
			}
		}
		schedule = c.current != nil
	}
	c.mu.Unlock()

	if schedule {
		slog.InfoContext(ctx, "Connectivity restored, scheduling push")
		c.schedule()
	}
}

// Apply sets one category field on the current month's budget, creating
// the budget if the user has none for this period. The edit is persisted
// locally before any network attempt; when online the record goes
// sync-pending and a coalesced push is scheduled, when offline it stays
// local-only and no push is attempted.
func (c *SyncCoordinator) Apply(ctx context.Context, field string, amount float64) (core.Budget, error) {
	c.mu.Lock()

	if c.session == nil {
		c.mu.Unlock()
		return core.Budget{}, ErrNoSession
	}

	period := core.CurrentPeriod(c.clock())
	if c.current == nil || c.current.Period != period || c.current.Owner != c.session.ID {
		b, err := c.store.GetBudget(ctx, c.session.ID, period)
		switch {
		case err == nil:
			c.current = &b
		case errors.Is(err, storage.ErrNotFound):
			nb := core.NewBudget(c.session.ID, period)
			c.current = &nb
		default:
			c.mu.Unlock()
			return core.Budget{}, err
		}
	}

	if err := c.current.ApplyField(field, amount); err != nil {
		c.mu.Unlock()
		return core.Budget{}, err
	}

	if c.online {
		c.current.SyncStatus = core.StatusSyncPending
	} else {
		c.current.SyncStatus = core.StatusLocalOnly
	}

	// Local durability comes first: if this fails the edit is reported as
	// failed, not silently dropped.
	if err := c.store.SaveBudget(ctx, *c.current); err != nil {
		c.mu.Unlock()
		return core.Budget{}, err
	}

	snapshot := *c.current
	online := c.online
	c.mu.Unlock()

	if online {
		c.schedule()
	}

	return snapshot, nil
}

// Sync performs a manual, synchronous push attempt. With no session, no
// aggregate for the current period, or connectivity absent it reports the
// failure without side effects.
func (c *SyncCoordinator) Sync(ctx context.Context) (core.Budget, error) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return core.Budget{}, ErrNoSession
	}
	if !c.online {
		c.mu.Unlock()
		return core.Budget{}, ErrOffline
	}
	if c.current == nil {
		b, err := c.store.GetBudget(ctx, c.session.ID, core.CurrentPeriod(c.clock()))
		if err != nil {
			c.mu.Unlock()
			if errors.Is(err, storage.ErrNotFound) {
				return core.Budget{}, ErrNoBudget
			}
			return core.Budget{}, err
		}
		c.current = &b
	}
	c.mu.Unlock()

	return c.pushCurrent(ctx)
}

// Current returns the aggregate for the current period, loading it from
// the local store when not cached.
func (c *SyncCoordinator) Current(ctx context.Context) (core.Budget, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return core.Budget{}, ErrNoSession
	}
	period := core.CurrentPeriod(c.clock())
	if c.current != nil && c.current.Period == period && c.current.Owner == c.session.ID {
		return *c.current, nil
	}
	b, err := c.store.GetBudget(ctx, c.session.ID, period)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Budget{}, ErrNoBudget
	}
	if err != nil {
		return core.Budget{}, err
	}
	c.current = &b
	return b, nil
}

// Close flushes any pending coalesced push and stops the debouncer. Meant
// for one-shot callers that must not exit before a scheduled push fires.
func (c *SyncCoordinator) Close() {
	c.deb.Flush()
	c.deb.Stop()
}

func (c *SyncCoordinator) schedule() {
	c.deb.Trigger(func() {
		if _, err := c.pushCurrent(context.Background()); err != nil && !errors.Is(err, ErrPushInFlight) {
			slog.Warn("Push attempt failed, will retry on next edit or reconnect", "error", err)
		}
	})
}

// pushCurrent sends the latest aggregate state to the remote store. The
// snapshot is taken under the lock at send time, never stale. On success
// the accepted sync stamps are persisted locally, unless a newer edit
// landed during the flight, in which case that edit's own push owns the
// final state.
func (c *SyncCoordinator) pushCurrent(ctx context.Context) (core.Budget, error) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return core.Budget{}, ErrNoSession
	}
	if !c.online {
		c.mu.Unlock()
		return core.Budget{}, ErrOffline
	}
	if c.current == nil {
		c.mu.Unlock()
		return core.Budget{}, ErrNoBudget
	}
	if c.current.Owner != c.session.ID {
		c.mu.Unlock()
		return core.Budget{}, ErrOwnerMismatch
	}
	if c.inFlight {
		c.rePush = true
		c.mu.Unlock()
		return core.Budget{}, ErrPushInFlight
	}
	c.inFlight = true
	snapshot := *c.current
	c.mu.Unlock()

	accepted, err := c.pusher.Push(ctx, snapshot)

	c.mu.Lock()
	c.inFlight = false
	redo := c.rePush
	c.rePush = false

	if err != nil {
		// Status stays whatever it was; local data is the fallback
		// source of truth.
		c.mu.Unlock()
		if redo {
			c.schedule()
		}
		return core.Budget{}, err
	}

	result := snapshot
	if c.current != nil &&
		c.current.Owner == snapshot.Owner &&
		c.current.Period == snapshot.Period &&
		c.current.UpdatedAt.Equal(snapshot.UpdatedAt) {
		c.current.SyncStatus = core.StatusSynced
		c.current.LastSyncAt = accepted.LastSyncAt
		if saveErr := c.store.SaveBudget(ctx, *c.current); saveErr != nil {
			slog.WarnContext(ctx, "Failed to persist sync stamps locally", "error", saveErr)
		}
		result = *c.current
	} else if c.current != nil {
		result = *c.current
	}

	slog.InfoContext(ctx, "Budget pushed to remote store",
		"owner", snapshot.Owner,
		"period", snapshot.Period,
		"sync_status", result.SyncStatus)
	c.mu.Unlock()

	if redo {
		c.schedule()
	}
	return result, nil
}
