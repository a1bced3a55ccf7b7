package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/voxprep/voxprep/internal/interview"
)

// MemStore is an in-memory [Store] for tests and single-process development
// setups. All data is lost on restart.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]interview.Record
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]interview.Record)}
}

// Create inserts a new interview record. When rec.ID is empty a new UUID is
// assigned before the insert.
func (s *MemStore) Create(_ context.Context, rec *interview.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("store: interview with id %q already exists", rec.ID)
	}
	s.records[rec.ID] = cloneRecord(*rec)
	return nil
}

// Get retrieves an interview record by ID. It returns (nil, nil) if no record
// with the given ID exists.
func (s *MemStore) Get(_ context.Context, id string) (*interview.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	out := cloneRecord(rec)
	return &out, nil
}

// ListByUser returns all interview records belonging to the given user,
// newest first. RFC 3339 timestamps sort correctly as strings.
func (s *MemStore) ListByUser(_ context.Context, userID string) ([]interview.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []interview.Record
	for _, rec := range s.records {
		if rec.UserID == userID {
			recs = append(recs, cloneRecord(rec))
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt > recs[j].CreatedAt
	})
	return recs, nil
}

// cloneRecord deep-copies a record so callers cannot mutate stored state
// through returned slices.
func cloneRecord(rec interview.Record) interview.Record {
	out := rec
	out.Techstack = append([]string(nil), rec.Techstack...)
	out.Questions = append([]string(nil), rec.Questions...)
	return out
}
