package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tharushi1019/GeoInsightDashboard/internal/models"
)

// makeSnapshot builds a valid snapshot for the given owner and country.
func makeSnapshot(owner, country string) *models.Snapshot {
	return &models.Snapshot{
		OwnerID: owner,
		Country: country,
		Metadata: models.Metadata{
			Capital:    "Colombo",
			Population: models.Int64Ptr(21919000),
			Currency:   "LKR",
			Languages:  []string{"Sinhala", "Tamil"},
		},
		Weather: models.Weather{
			Temperature: models.Float64Ptr(28),
			Humidity:    models.IntPtr(80),
			Description: "clear sky",
		},
		AirQuality: models.AirQuality{
			Parameter: "pm25",
			Value:     models.Float64Ptr(15),
			Unit:      "µg/m³",
			Status:    models.AQIModerate,
		},
		FetchedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// runStoreSuite exercises the Store contract shared by every backend.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		s := newStore(t)
		got, err := s.Create(ctx, makeSnapshot("u1", "Sri Lanka"))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if got.ID == "" {
			t.Error("Create() returned empty id")
		}
		if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
			t.Error("Create() did not set timestamps")
		}
		if got.OwnerID != "u1" || got.Country != "Sri Lanka" {
			t.Errorf("Create() stored %q/%q, want u1/Sri Lanka", got.OwnerID, got.Country)
		}
	})

	t.Run("create rejects missing required fields", func(t *testing.T) {
		s := newStore(t)
		for _, snap := range []*models.Snapshot{
			{OwnerID: "u1"},
			{Country: "Sri Lanka"},
		} {
			if _, err := s.Create(ctx, snap); !errors.Is(err, ErrValidation) {
				t.Errorf("Create(%+v) error = %v, want ErrValidation", snap, err)
			}
		}
		list, err := s.List(ctx, Filter{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(list) != 0 {
			t.Errorf("rejected writes persisted %d records", len(list))
		}
	})

	t.Run("ids never reused after delete", func(t *testing.T) {
		s := newStore(t)
		seen := make(map[string]bool)
		for i := 0; i < 5; i++ {
			got, err := s.Create(ctx, makeSnapshot("u1", "Japan"))
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if seen[got.ID] {
				t.Fatalf("id %q reused", got.ID)
			}
			seen[got.ID] = true
			if ok, err := s.DeleteByID(ctx, got.ID); err != nil || !ok {
				t.Fatalf("DeleteByID() = %v, %v, want true, nil", ok, err)
			}
		}
	})

	t.Run("list is createdAt descending", func(t *testing.T) {
		s := newStore(t)
		countries := []string{"Japan", "Brazil", "Kenya"}
		for _, c := range countries {
			if _, err := s.Create(ctx, makeSnapshot("u1", c)); err != nil {
				t.Fatalf("Create(%s) error = %v", c, err)
			}
		}
		list, err := s.List(ctx, Filter{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("List() returned %d records, want 3", len(list))
		}
		// Most recently created first; equal timestamps fall back to
		// insertion order.
		want := []string{"Kenya", "Brazil", "Japan"}
		for i, c := range want {
			if list[i].Country != c {
				t.Errorf("list[%d].Country = %q, want %q", i, list[i].Country, c)
			}
		}
		for i := 1; i < len(list); i++ {
			if list[i].CreatedAt.After(list[i-1].CreatedAt) {
				t.Errorf("list not sorted: %v before %v", list[i-1].CreatedAt, list[i].CreatedAt)
			}
		}
	})

	t.Run("list after creates and deletes", func(t *testing.T) {
		s := newStore(t)
		var ids []string
		for i := 0; i < 4; i++ {
			got, err := s.Create(ctx, makeSnapshot("u1", "India"))
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			ids = append(ids, got.ID)
		}
		for _, id := range ids[:2] {
			if ok, err := s.DeleteByID(ctx, id); err != nil || !ok {
				t.Fatalf("DeleteByID(%s) = %v, %v", id, ok, err)
			}
		}
		list, err := s.List(ctx, Filter{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(list) != 2 {
			t.Errorf("List() returned %d records, want 2", len(list))
		}
	})

	t.Run("delete unknown id is not found", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Create(ctx, makeSnapshot("u1", "Chile")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		ok, err := s.DeleteByID(ctx, "no-such-id")
		if err != nil {
			t.Fatalf("DeleteByID() error = %v", err)
		}
		if ok {
			t.Error("DeleteByID(unknown) = true, want false")
		}
		list, _ := s.List(ctx, Filter{})
		if len(list) != 1 {
			t.Errorf("store contents changed: %d records, want 1", len(list))
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		got, err := s.Create(ctx, makeSnapshot("u1", "Chile"))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if ok, _ := s.DeleteByID(ctx, got.ID); !ok {
			t.Fatal("first DeleteByID() = false, want true")
		}
		if ok, err := s.DeleteByID(ctx, got.ID); err != nil || ok {
			t.Errorf("second DeleteByID() = %v, %v, want false, nil", ok, err)
		}
	})

	t.Run("stats counts records and distinct countries", func(t *testing.T) {
		s := newStore(t)
		for _, c := range []string{"Sri Lanka", "Sri Lanka", "Germany"} {
			if _, err := s.Create(ctx, makeSnapshot("u1", c)); err != nil {
				t.Fatalf("Create(%s) error = %v", c, err)
			}
		}
		stats, err := s.Stats(ctx, Filter{})
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.TotalRecords != 3 || stats.UniqueCountriesCount != 2 {
			t.Errorf("Stats() = %+v, want {3 2}", stats)
		}
	})

	t.Run("owner scoping", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Create(ctx, makeSnapshot("u1", "Japan")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, err := s.Create(ctx, makeSnapshot("u2", "Japan")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		list, err := s.List(ctx, Filter{OwnerID: "u1"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(list) != 1 || list[0].OwnerID != "u1" {
			t.Errorf("List(owner u1) = %+v, want one u1 record", list)
		}
		stats, err := s.Stats(ctx, Filter{OwnerID: "u2"})
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if stats.TotalRecords != 1 {
			t.Errorf("Stats(owner u2).TotalRecords = %d, want 1", stats.TotalRecords)
		}
	})

	t.Run("optional fields round-trip", func(t *testing.T) {
		s := newStore(t)
		snap := makeSnapshot("u1", "Sri Lanka")
		snap.Weather.FeelsLike = nil
		snap.Weather.Pressure = nil
		got, err := s.Create(ctx, snap)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		list, err := s.List(ctx, Filter{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("List() returned %d records, want 1", len(list))
		}
		stored := list[0]
		if stored.ID != got.ID {
			t.Errorf("stored.ID = %q, want %q", stored.ID, got.ID)
		}
		if stored.Weather.FeelsLike != nil || stored.Weather.Pressure != nil {
			t.Error("nil optional fields came back non-nil")
		}
		if stored.Weather.Temperature == nil || *stored.Weather.Temperature != 28 {
			t.Errorf("Temperature = %v, want 28", stored.Weather.Temperature)
		}
		if len(stored.Metadata.Languages) != 2 || stored.Metadata.Languages[0] != "Sinhala" {
			t.Errorf("Languages = %v, want [Sinhala Tamil]", stored.Metadata.Languages)
		}
		if stored.Metadata.Population == nil || *stored.Metadata.Population != 21919000 {
			t.Errorf("Population = %v, want 21919000", stored.Metadata.Population)
		}
	})
}
