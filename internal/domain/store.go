package domain

import (
	"context"
	"time"
)

// AirspaceStore persists restrictions. Implementations must make each record
// visible to readers only once it is fully written.
type AirspaceStore interface {
	// InsertBatch persists records, skipping any whose non-empty NoticeID is
	// already stored. It assigns the store ID to each inserted element of
	// records in place (skipped elements keep ID 0) and returns the number
	// inserted. Existing records are never updated.
	InsertBatch(ctx context.Context, records []AirspaceRestriction) (int, error)

	// Active returns records whose window covers now, optionally restricted
	// to one FIR (empty fir means all), most recent start first.
	Active(ctx context.Context, now time.Time, fir string) ([]AirspaceRestriction, error)

	// List returns up to limit records ordered by start descending,
	// optionally restricted to one FIR. A non-positive limit means no limit.
	List(ctx context.Context, fir string, limit int) ([]AirspaceRestriction, error)

	// CleanupExpired deletes non-permanent records whose end is before now
	// and returns the number removed.
	CleanupExpired(ctx context.Context, now time.Time) (int, error)

	// DeleteAll removes every record, ahead of a full refetch.
	DeleteAll(ctx context.Context) (int, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
