// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/airseries/schema"
)

// HistoryClient defines the operations needed from the remote history API.
// This allows the reconciler to be tested without network access.
type HistoryClient interface {
	// FetchHistory returns the rows available for a sensor inside the query window.
	// Rows are returned in whatever order the remote produces (newest first in practice).
	FetchHistory(ctx context.Context, sensorID int, q schema.HistoryQuery) (*schema.HistoryResponse, error)
}

// SegmentSource defines read access to persisted segment files.
type SegmentSource interface {
	// Segments returns every segment of a sensor ordered by start time.
	Segments(sensorID int) ([]schema.Segment, error)

	// ReadSegment returns the header and rows of a segment file.
	ReadSegment(seg schema.Segment) ([]string, []schema.Row, error)
}

// IndexStore defines the interface for the queryable index of segment rows.
// This allows mocking the store for testing.
type IndexStore interface {
	// Migrate applies every pending schema migration in ascending version order.
	Migrate(ctx context.Context) error

	// AlreadyIndexed reports whether the segment range is covered by indexed data.
	AlreadyIndexed(ctx context.Context, sensorID int, start, end int64) (bool, error)

	// IndexSegments loads every segment of the given sensors not already indexed.
	IndexSegments(ctx context.Context, src SegmentSource, sensorIDs []int) (schema.IndexResult, error)

	// Readings returns the rows of one channel at or after since, ordered by time.
	Readings(ctx context.Context, ch schema.Channel, since time.Time) ([]schema.Reading, error)

	// AllReadings returns every indexed row for export.
	AllReadings(ctx context.Context) ([]schema.IndexedRecord, error)

	// Status returns status information about the index store.
	Status(ctx context.Context) (schema.IndexStatus, error)

	// Close releases the underlying database handle.
	Close() error
}

// Clock returns the current time. Production code uses time.Now.
type Clock func() time.Time
