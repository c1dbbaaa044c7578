package store

import (
	"context"
	"os"
	"testing"
)

// newTestPostgresStore connects to the database named by POSTGRES_TEST_DSN,
// skipping when the variable is unset. The test database is truncated before
// each suite entry.
func newTestPostgresStore(t *testing.T) Store {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set, skipping postgres tests")
	}
	s, err := NewPostgresStore(dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	if _, err := s.DB().ExecContext(context.Background(), "TRUNCATE snapshots"); err != nil {
		t.Fatalf("truncating snapshots: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TestPostgresStore_Suite runs the shared Store contract against PostgreSQL.
func TestPostgresStore_Suite(t *testing.T) {
	runStoreSuite(t, newTestPostgresStore)
}
