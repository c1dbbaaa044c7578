package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/tharushi1019/GeoInsightDashboard/internal/models"
)

// PostgresStore implements Store backed by PostgreSQL via the pgx stdlib
// driver.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to PostgreSQL and runs migrations. dsn is a
// standard postgres connection string.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, unavailable("connecting to postgres", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations/postgres"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// DB returns the underlying database connection for migration tooling.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Create implements Store.Create.
func (s *PostgresStore) Create(ctx context.Context, snap *models.Snapshot) (*models.Snapshot, error) {
	if err := validateRequired(snap); err != nil {
		return nil, err
	}

	stored := *snap
	stored.ID = uuid.New().String()
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	args, err := insertArgs(&stored)
	if err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (`+snapshotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		args...,
	)
	if err != nil {
		return nil, unavailable("saving snapshot", err)
	}
	return &stored, nil
}

// List implements Store.List.
func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]models.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots`
	var args []any
	if filter.OwnerID != "" {
		query += ` WHERE owner_id = $1`
		args = append(args, filter.OwnerID)
	}
	query += ` ORDER BY created_at DESC, seq DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("listing snapshots", err)
	}
	defer rows.Close()

	out := make([]models.Snapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("listing snapshots", err)
	}
	return out, nil
}

// DeleteByID implements Store.DeleteByID.
func (s *PostgresStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = $1`, id)
	if err != nil {
		return false, unavailable("deleting snapshot", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting snapshot: %w", err)
	}
	return n > 0, nil
}

// Stats implements Store.Stats.
func (s *PostgresStore) Stats(ctx context.Context, filter Filter) (Stats, error) {
	query := `SELECT COUNT(*), COUNT(DISTINCT country) FROM snapshots`
	var args []any
	if filter.OwnerID != "" {
		query += ` WHERE owner_id = $1`
		args = append(args, filter.OwnerID)
	}

	var stats Stats
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&stats.TotalRecords, &stats.UniqueCountriesCount); err != nil {
		return Stats{}, unavailable("computing stats", err)
	}
	return stats, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
