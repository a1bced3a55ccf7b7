// Package store persists interview records.
//
// Two implementations are provided: [PostgresStore] for production and
// [MemStore] for tests and single-process development setups.
package store

import (
	"context"

	"github.com/voxprep/voxprep/internal/interview"
)

// Store provides persistence for interview records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create inserts a new interview record and fills in rec.ID.
	Create(ctx context.Context, rec *interview.Record) error

	// Get retrieves an interview record by ID. Returns (nil, nil) if not
	// found.
	Get(ctx context.Context, id string) (*interview.Record, error)

	// ListByUser returns all interview records belonging to the given user,
	// newest first.
	ListByUser(ctx context.Context, userID string) ([]interview.Record, error)
}
