package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/tharushi1019/GeoInsightDashboard/internal/models"
)

// ErrValidation is returned when a snapshot is missing a required field.
// Nothing is persisted for a rejected write.
var ErrValidation = errors.New("snapshot validation failed")

// ErrUnavailable wraps backend failures (connection refused, I/O errors).
// Callers may retry; the store performs no retries itself.
var ErrUnavailable = errors.New("store unavailable")

// Filter optionally scopes List and Stats to a single owner.
// The zero value means no scoping.
type Filter struct {
	OwnerID string
}

// Stats holds aggregate counts over the (optionally owner-scoped) collection.
type Stats struct {
	TotalRecords         int `json:"totalRecords"`
	UniqueCountriesCount int `json:"uniqueCountriesCount"`
}

// Store defines the interface for snapshot persistence. The memory, sqlite,
// and postgres implementations satisfy this interface.
type Store interface {
	// Create validates required fields, assigns ID and timestamps, and
	// persists the snapshot. Returns the stored record.
	Create(ctx context.Context, snap *models.Snapshot) (*models.Snapshot, error)

	// List returns snapshots ordered by createdAt descending, ties broken by
	// insertion order (most recently inserted first). An empty collection
	// yields an empty slice, not an error.
	List(ctx context.Context, filter Filter) ([]models.Snapshot, error)

	// DeleteByID removes the snapshot with the given id. Returns whether a
	// record was actually removed; deleting an unknown id is not an error.
	DeleteByID(ctx context.Context, id string) (bool, error)

	// Stats returns aggregate counts consistent with store state at some
	// instant during the call.
	Stats(ctx context.Context, filter Filter) (Stats, error)

	// Close releases backend resources.
	Close() error
}

// validateRequired enforces the fields every implementation must reject
// before persisting anything.
func validateRequired(snap *models.Snapshot) error {
	if snap == nil {
		return ErrValidation
	}
	if snap.Country == "" {
		return fmt.Errorf("%w: country is required", ErrValidation)
	}
	if snap.OwnerID == "" {
		return fmt.Errorf("%w: ownerId is required", ErrValidation)
	}
	return nil
}
