// Package remote holds the server-side budget store: a keyed mirror of
// client budgets with last-write-wins semantics. Pushes are whole-record
// replacements; there is no merge and no version vector.
package remote

import (
	"context"
	"errors"

	"budgetbox/internal/core"
)

// ErrNotFound is returned when no record exists for the requested key.
var ErrNotFound = errors.New("budget not found")

// Store accepts pushes and serves the latest record per owner and period.
// Implementations must serialize writes per key so two concurrent pushes
// never interleave partial fields.
type Store interface {
	// Push replaces whatever is stored under the record's (owner, period)
	// key and returns the accepted record with syncStatus=synced and
	// lastSyncAt set to the acceptance time.
	Push(ctx context.Context, b core.Budget) (core.Budget, error)

	// Fetch returns the record for the key, or ErrNotFound.
	Fetch(ctx context.Context, owner, period string) (core.Budget, error)

	// FetchLatest returns the owner's most recently updated record across
	// all periods, or ErrNotFound.
	FetchLatest(ctx context.Context, owner string) (core.Budget, error)
}
