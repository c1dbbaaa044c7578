package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dsn)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TestSQLiteStore_Suite runs the shared Store contract against SQLite.
func TestSQLiteStore_Suite(t *testing.T) {
	runStoreSuite(t, newTestSQLiteStore)
}

// TestSQLiteStore_Reopen verifies data survives closing and reopening the
// database file.
func TestSQLiteStore_Reopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dsn)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}

	ctx := context.Background()
	if _, err := s.Create(ctx, makeSnapshot("u1", "Norway")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := NewSQLiteStore(dsn)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer s2.Close()

	list, err := s2.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].Country != "Norway" {
		t.Errorf("List() after reopen = %+v, want one Norway record", list)
	}
}
