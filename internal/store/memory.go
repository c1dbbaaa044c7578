package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tharushi1019/GeoInsightDashboard/internal/models"
)

// MemoryStore is a concurrency-safe in-memory implementation of Store.
// Used for development and tests; state does not survive restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []models.Snapshot // insertion order
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Create implements Store.Create. IDs are uuids and are never reused, even
// after the record is deleted.
func (s *MemoryStore) Create(ctx context.Context, snap *models.Snapshot) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateRequired(snap); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *snap
	stored.ID = uuid.New().String()
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.Metadata.Languages = append([]string(nil), snap.Metadata.Languages...)

	s.entries = append(s.entries, stored)

	out := stored
	return &out, nil
}

// List implements Store.List: createdAt descending, ties broken by insertion
// order with the most recently inserted record first.
func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Snapshot, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		snap := s.entries[i]
		if filter.OwnerID != "" && snap.OwnerID != filter.OwnerID {
			continue
		}
		out = append(out, snap)
	}
	// Entries are appended in creation order, so the reverse walk already
	// yields createdAt descending with insertion-order tie-breaking.
	return out, nil
}

// DeleteByID implements Store.DeleteByID.
func (s *MemoryStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Stats implements Store.Stats.
func (s *MemoryStore) Stats(ctx context.Context, filter Filter) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	countries := make(map[string]struct{})
	var total int
	for _, e := range s.entries {
		if filter.OwnerID != "" && e.OwnerID != filter.OwnerID {
			continue
		}
		total++
		countries[e.Country] = struct{}{}
	}
	return Stats{TotalRecords: total, UniqueCountriesCount: len(countries)}, nil
}

// Close implements Store.Close. No resources to release.
func (s *MemoryStore) Close() error { return nil }
