package tracker

import (
	"context"
	"errors"
	"time"
)

// Cycle abort conditions. A cycle that returns one of these left the
// store untouched; the previous snapshot keeps serving.
var (
	// ErrNoTitles means the title listing came back empty or failed.
	ErrNoTitles = errors.New("no titles listed")
	// ErrNoContent means every content fetch failed.
	ErrNoContent = errors.New("no title content fetched")
)

// CatalogClient fetches title metadata and content from the remote API.
// Both calls isolate their own failures: the caller decides whether a
// missing result aborts the cycle.
type CatalogClient interface {
	ListTitles(ctx context.Context) ([]TitleDescriptor, error)
	FetchTitleContent(ctx context.Context, number int) (TitleSize, error)
}

// SnapshotStore holds the single current snapshot. Publish replaces it
// atomically; a concurrent Current observes either the previous or the
// new snapshot, never a partial one.
type SnapshotStore interface {
	Publish(ctx context.Context, snap Snapshot) error
	Current() (Snapshot, bool)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
