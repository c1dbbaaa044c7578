package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tharushi1019/GeoInsightDashboard/internal/models"
	"github.com/tharushi1019/GeoInsightDashboard/internal/observability"
	"github.com/tharushi1019/GeoInsightDashboard/internal/session"
	"github.com/tharushi1019/GeoInsightDashboard/internal/store"
)

// ErrNotFound is returned when a delete names an id the owner does not have.
var ErrNotFound = errors.New("snapshot not found")

// ErrAlreadyPending is re-exported so handlers depend on one package.
var ErrAlreadyPending = session.ErrAlreadyPending

// DeleteOutcome describes an accepted delete. Immediate deletes (undo window
// zero) have no deadline.
type DeleteOutcome struct {
	ID       string     `json:"id"`
	Pending  bool       `json:"pending"`
	CommitAt *time.Time `json:"commitAt,omitempty"`
	UndoPath string     `json:"undoPath,omitempty"`
}

// RecordsService owns the snapshot CRUD operations and hosts the
// optimistic-delete sessions, one view per owner.
type RecordsService struct {
	store    store.Store
	registry *session.Registry
	window   time.Duration
	validate *validator.Validate
	logger   *zap.Logger
}

// createParams is what must hold before a snapshot reaches the store.
type createParams struct {
	OwnerID string `validate:"required"`
	Country string `validate:"required,min=1,max=100"`
}

// NewRecordsService creates the service. window is the undo grace window;
// zero makes every delete commit immediately.
func NewRecordsService(st store.Store, window time.Duration, logger *zap.Logger) *RecordsService {
	s := &RecordsService{
		store:    st,
		window:   window,
		validate: validator.New(),
		logger:   logger,
	}
	s.registry = session.NewRegistry(window, s.commitDelete, logger)
	return s
}

// Create validates and persists a snapshot for the owner. The owner id always
// comes from the authenticated context, never the request body.
func (s *RecordsService) Create(ctx context.Context, ownerID string, snap models.Snapshot) (models.Snapshot, error) {
	snap.OwnerID = ownerID
	if err := s.validate.Struct(createParams{OwnerID: snap.OwnerID, Country: snap.Country}); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %v", store.ErrValidation, err)
	}
	if snap.AirQuality.Status == "" && snap.AirQuality.Value != nil {
		snap.AirQuality.Status = models.CategorizeAQI(snap.AirQuality.Parameter, *snap.AirQuality.Value)
	}

	start := time.Now()
	created, err := s.store.Create(ctx, &snap)
	observability.StoreOpDuration.WithLabelValues("create").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.StoreOpsTotal.WithLabelValues("create", "error").Inc()
		return models.Snapshot{}, err
	}
	observability.StoreOpsTotal.WithLabelValues("create", "success").Inc()
	if s.logger != nil {
		s.logger.Info("snapshot created",
			zap.String("snapshot_id", created.ID),
			zap.String("country", created.Country))
	}
	return *created, nil
}

// List returns the owner's snapshots, newest first, with records pending
// delete filtered out. Listing is also the reconciliation point: it refreshes
// the owner's session view from the store.
func (s *RecordsService) List(ctx context.Context, ownerID string) ([]models.Snapshot, error) {
	view, err := s.refreshView(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return view.Records(), nil
}

// Delete removes the snapshot from the owner's visible list immediately. With
// a non-zero undo window the store commit is deferred until the window
// elapses; otherwise the store delete runs inline. Unknown ids report
// ErrNotFound; an id already pending reports ErrAlreadyPending.
func (s *RecordsService) Delete(ctx context.Context, ownerID, id string) (DeleteOutcome, error) {
	view, err := s.refreshView(ctx, ownerID)
	if err != nil {
		return DeleteOutcome{}, err
	}

	if s.window <= 0 {
		// Ownership check first: a cross-owner id must look identical to an
		// unknown one.
		if !view.Contains(id) {
			return DeleteOutcome{}, ErrNotFound
		}
		found, err := s.deleteFromStore(ctx, id)
		if err != nil {
			return DeleteOutcome{}, err
		}
		if !found {
			return DeleteOutcome{}, ErrNotFound
		}
		return DeleteOutcome{ID: id}, nil
	}

	deadline, err := view.Delete(id)
	if err != nil {
		if errors.Is(err, session.ErrNotVisible) {
			return DeleteOutcome{}, ErrNotFound
		}
		return DeleteOutcome{}, err
	}
	return DeleteOutcome{
		ID:       id,
		Pending:  true,
		CommitAt: &deadline,
		UndoPath: "/api/records/" + id + "/undo",
	}, nil
}

// Undo cancels a pending delete inside its grace window. Returns false when
// nothing is pending for the id (late undo, unknown id, or already committed).
func (s *RecordsService) Undo(ctx context.Context, ownerID, id string) bool {
	return s.registry.ViewFor(ownerID).Undo(id)
}

// Stats returns aggregate counts over the owner's snapshots.
func (s *RecordsService) Stats(ctx context.Context, ownerID string) (store.Stats, error) {
	start := time.Now()
	stats, err := s.store.Stats(ctx, store.Filter{OwnerID: ownerID})
	observability.StoreOpDuration.WithLabelValues("stats").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.StoreOpsTotal.WithLabelValues("stats", "error").Inc()
		return store.Stats{}, err
	}
	observability.StoreOpsTotal.WithLabelValues("stats", "success").Inc()
	return stats, nil
}

// Drain commits every unresolved pending delete. Called at shutdown so an
// accepted delete is never silently dropped.
func (s *RecordsService) Drain() {
	s.registry.Drain()
}

func (s *RecordsService) refreshView(ctx context.Context, ownerID string) (*session.View, error) {
	start := time.Now()
	records, err := s.store.List(ctx, store.Filter{OwnerID: ownerID})
	observability.StoreOpDuration.WithLabelValues("list").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.StoreOpsTotal.WithLabelValues("list", "error").Inc()
		return nil, err
	}
	observability.StoreOpsTotal.WithLabelValues("list", "success").Inc()

	view := s.registry.ViewFor(ownerID)
	view.Refresh(records)
	return view, nil
}

// commitDelete is the session commit callback. It runs after the grace window
// on a timer goroutine, so it carries its own timeout rather than a request
// context.
func (s *RecordsService) commitDelete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	found, err := s.deleteFromStore(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		// Already gone server-side; the delete converges to the same state.
		if s.logger != nil {
			s.logger.Debug("pending delete found nothing to remove", zap.String("snapshot_id", id))
		}
	}
	return nil
}

func (s *RecordsService) deleteFromStore(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	found, err := s.store.DeleteByID(ctx, id)
	observability.StoreOpDuration.WithLabelValues("delete").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.StoreOpsTotal.WithLabelValues("delete", "error").Inc()
		return false, err
	}
	observability.StoreOpsTotal.WithLabelValues("delete", "success").Inc()
	return found, nil
}
