package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tharushi1019/GeoInsightDashboard/internal/models"
	"github.com/tharushi1019/GeoInsightDashboard/internal/store"
)

func newTestRecordsService(t *testing.T, window time.Duration) (*RecordsService, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return NewRecordsService(st, window, nil), st
}

func testSnapshot(country string) models.Snapshot {
	return models.Snapshot{
		Country: country,
		Metadata: models.Metadata{
			Capital: "Colombo",
		},
		Weather: models.Weather{
			Temperature: models.Float64Ptr(28),
			Description: "clear sky",
		},
	}
}

// TestRecordsService_Create verifies owner assignment, validation, and id
// assignment.
func TestRecordsService_Create(t *testing.T) {
	s, _ := newTestRecordsService(t, time.Minute)
	ctx := context.Background()

	created, err := s.Create(ctx, "u1", testSnapshot("Sri Lanka"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" || created.OwnerID != "u1" {
		t.Errorf("created = %+v, want assigned id and owner u1", created)
	}

	// Owner comes from the authenticated context, never the body.
	snap := testSnapshot("Kenya")
	snap.OwnerID = "intruder"
	created, err = s.Create(ctx, "u1", snap)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.OwnerID != "u1" {
		t.Errorf("OwnerID = %q, want u1 (body value overridden)", created.OwnerID)
	}

	if _, err := s.Create(ctx, "u1", testSnapshot("")); !errors.Is(err, store.ErrValidation) {
		t.Errorf("Create(no country) error = %v, want ErrValidation", err)
	}
	if _, err := s.Create(ctx, "", testSnapshot("Kenya")); !errors.Is(err, store.ErrValidation) {
		t.Errorf("Create(no owner) error = %v, want ErrValidation", err)
	}
}

// TestRecordsService_Create_DerivesAQIStatus verifies a reading without a
// status gets one from the severity scale, and a client-supplied status is
// kept.
func TestRecordsService_Create_DerivesAQIStatus(t *testing.T) {
	s, _ := newTestRecordsService(t, time.Minute)
	ctx := context.Background()

	snap := testSnapshot("Sri Lanka")
	snap.AirQuality = models.AirQuality{Parameter: "pm25", Value: models.Float64Ptr(40), Unit: "µg/m³"}
	created, err := s.Create(ctx, "u1", snap)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.AirQuality.Status != models.AQISensitive {
		t.Errorf("Status = %q, want %q", created.AirQuality.Status, models.AQISensitive)
	}

	snap = testSnapshot("Kenya")
	snap.AirQuality = models.AirQuality{Parameter: "pm25", Value: models.Float64Ptr(40), Status: models.AQIGood}
	created, err = s.Create(ctx, "u1", snap)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.AirQuality.Status != models.AQIGood {
		t.Errorf("Status = %q, want client-supplied %q", created.AirQuality.Status, models.AQIGood)
	}
}

// TestRecordsService_List verifies newest-first ordering and owner scoping.
func TestRecordsService_List(t *testing.T) {
	s, _ := newTestRecordsService(t, time.Minute)
	ctx := context.Background()

	for _, country := range []string{"Kenya", "Brazil", "Japan"} {
		if _, err := s.Create(ctx, "u1", testSnapshot(country)); err != nil {
			t.Fatalf("Create(%s) error = %v", country, err)
		}
	}
	if _, err := s.Create(ctx, "u2", testSnapshot("Chile")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	records, err := s.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(records))
	}
	want := []string{"Japan", "Brazil", "Kenya"}
	for i, country := range want {
		if records[i].Country != country {
			t.Errorf("records[%d].Country = %q, want %q", i, records[i].Country, country)
		}
	}
}

// TestRecordsService_Delete_PendingThenCommit verifies the optimistic delete:
// hidden from the list at once, still in the store during the window, gone
// after the window elapses.
func TestRecordsService_Delete_PendingThenCommit(t *testing.T) {
	s, st := newTestRecordsService(t, 30*time.Millisecond)
	ctx := context.Background()

	created, err := s.Create(ctx, "u1", testSnapshot("Sri Lanka"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	outcome, err := s.Delete(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !outcome.Pending || outcome.CommitAt == nil {
		t.Errorf("outcome = %+v, want pending with deadline", outcome)
	}

	// Hidden from the owner's list immediately.
	records, err := s.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("List() returned %d records during window, want 0", len(records))
	}

	// The store still holds the row until the window elapses.
	if stats, _ := st.Stats(ctx, store.Filter{OwnerID: "u1"}); stats.TotalRecords != 1 {
		t.Errorf("store rows = %d during window, want 1", stats.TotalRecords)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		stats, err := st.Stats(ctx, store.Filter{OwnerID: "u1"})
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.TotalRecords == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("store row never committed after the grace window")
}

// TestRecordsService_Delete_Undo verifies an undo inside the window restores
// the record and the store row survives.
func TestRecordsService_Delete_Undo(t *testing.T) {
	s, st := newTestRecordsService(t, 50*time.Millisecond)
	ctx := context.Background()

	created, err := s.Create(ctx, "u1", testSnapshot("Sri Lanka"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := s.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if !s.Undo(ctx, "u1", created.ID) {
		t.Fatal("Undo() = false, want true")
	}

	records, err := s.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != created.ID {
		t.Errorf("List() after undo = %+v, want the restored record", records)
	}

	// Wait past the original window; the store row must survive.
	time.Sleep(120 * time.Millisecond)
	if stats, _ := st.Stats(ctx, store.Filter{OwnerID: "u1"}); stats.TotalRecords != 1 {
		t.Errorf("store rows = %d after undo, want 1", stats.TotalRecords)
	}

	// A late undo is a no-op.
	if s.Undo(ctx, "u1", created.ID) {
		t.Error("second Undo() = true, want false")
	}
}

// TestRecordsService_Delete_Rejections verifies unknown ids and re-entrant
// deletes.
func TestRecordsService_Delete_Rejections(t *testing.T) {
	s, _ := newTestRecordsService(t, time.Minute)
	ctx := context.Background()

	created, err := s.Create(ctx, "u1", testSnapshot("Sri Lanka"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := s.Delete(ctx, "u1", "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Delete(ctx, "u1", created.ID); !errors.Is(err, ErrAlreadyPending) {
		t.Errorf("second Delete() error = %v, want ErrAlreadyPending", err)
	}

	// Another owner cannot delete or undo u1's pending record.
	if _, err := s.Delete(ctx, "u2", created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-owner Delete() error = %v, want ErrNotFound", err)
	}
	if s.Undo(ctx, "u2", created.ID) {
		t.Error("cross-owner Undo() = true, want false")
	}
	s.Drain()
}

// TestRecordsService_Delete_ImmediateMode verifies a zero undo window turns
// DELETE into a synchronous store delete.
func TestRecordsService_Delete_ImmediateMode(t *testing.T) {
	s, st := newTestRecordsService(t, 0)
	ctx := context.Background()

	created, err := s.Create(ctx, "u1", testSnapshot("Sri Lanka"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	outcome, err := s.Delete(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if outcome.Pending || outcome.CommitAt != nil {
		t.Errorf("outcome = %+v, want immediate (not pending)", outcome)
	}
	if stats, _ := st.Stats(ctx, store.Filter{OwnerID: "u1"}); stats.TotalRecords != 0 {
		t.Errorf("store rows = %d after immediate delete, want 0", stats.TotalRecords)
	}

	if _, err := s.Delete(ctx, "u1", created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("repeat Delete() error = %v, want ErrNotFound", err)
	}
}

// TestRecordsService_Stats verifies owner-scoped aggregate counts.
func TestRecordsService_Stats(t *testing.T) {
	s, _ := newTestRecordsService(t, time.Minute)
	ctx := context.Background()

	for _, country := range []string{"Sri Lanka", "Sri Lanka", "Kenya"} {
		if _, err := s.Create(ctx, "u1", testSnapshot(country)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	stats, err := s.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalRecords != 3 || stats.UniqueCountriesCount != 2 {
		t.Errorf("Stats() = %+v, want {3 2}", stats)
	}
}

// TestRecordsService_DrainCommitsPending verifies shutdown flushes pending
// deletes to the store.
func TestRecordsService_DrainCommitsPending(t *testing.T) {
	s, st := newTestRecordsService(t, time.Hour)
	ctx := context.Background()

	created, err := s.Create(ctx, "u1", testSnapshot("Sri Lanka"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := s.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	s.Drain()

	if stats, _ := st.Stats(ctx, store.Filter{OwnerID: "u1"}); stats.TotalRecords != 0 {
		t.Errorf("store rows = %d after Drain, want 0", stats.TotalRecords)
	}
}
