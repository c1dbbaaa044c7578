package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tharushi1019/GeoInsightDashboard/internal/models"
)

// snapshotColumns is the column list shared by the sqlite and postgres
// implementations. Order must match insertArgs and scanSnapshot.
const snapshotColumns = `id, owner_id, country,
	capital, population, currency, languages, flag, region, subregion,
	temperature, feels_like, humidity, pressure, weather_description,
	aq_parameter, aq_value, aq_unit, aq_status,
	fetched_at, created_at, updated_at`

// insertArgs flattens a snapshot into driver arguments in snapshotColumns
// order. Languages are stored as a JSON array.
func insertArgs(snap *models.Snapshot) ([]any, error) {
	langs, err := json.Marshal(snap.Metadata.Languages)
	if err != nil {
		return nil, fmt.Errorf("encoding languages: %w", err)
	}
	return []any{
		snap.ID, snap.OwnerID, snap.Country,
		snap.Metadata.Capital, nullInt64(snap.Metadata.Population), snap.Metadata.Currency,
		string(langs), snap.Metadata.Flag, snap.Metadata.Region, snap.Metadata.Subregion,
		nullFloat64(snap.Weather.Temperature), nullFloat64(snap.Weather.FeelsLike),
		nullInt(snap.Weather.Humidity), nullInt(snap.Weather.Pressure), snap.Weather.Description,
		snap.AirQuality.Parameter, nullFloat64(snap.AirQuality.Value),
		snap.AirQuality.Unit, string(snap.AirQuality.Status),
		nullTime(snap.FetchedAt), snap.CreatedAt.UTC(), snap.UpdatedAt.UTC(),
	}, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSnapshot reads one row in snapshotColumns order.
func scanSnapshot(row rowScanner) (models.Snapshot, error) {
	var (
		snap       models.Snapshot
		population sql.NullInt64
		languages  string
		temp       sql.NullFloat64
		feelsLike  sql.NullFloat64
		humidity   sql.NullInt64
		pressure   sql.NullInt64
		aqValue    sql.NullFloat64
		aqStatus   string
		fetchedAt  sql.NullTime
	)
	err := row.Scan(
		&snap.ID, &snap.OwnerID, &snap.Country,
		&snap.Metadata.Capital, &population, &snap.Metadata.Currency,
		&languages, &snap.Metadata.Flag, &snap.Metadata.Region, &snap.Metadata.Subregion,
		&temp, &feelsLike, &humidity, &pressure, &snap.Weather.Description,
		&snap.AirQuality.Parameter, &aqValue, &snap.AirQuality.Unit, &aqStatus,
		&fetchedAt, &snap.CreatedAt, &snap.UpdatedAt,
	)
	if err != nil {
		return models.Snapshot{}, err
	}

	if population.Valid {
		snap.Metadata.Population = &population.Int64
	}
	if languages != "" {
		if err := json.Unmarshal([]byte(languages), &snap.Metadata.Languages); err != nil {
			return models.Snapshot{}, fmt.Errorf("decoding languages: %w", err)
		}
	}
	if temp.Valid {
		snap.Weather.Temperature = &temp.Float64
	}
	if feelsLike.Valid {
		snap.Weather.FeelsLike = &feelsLike.Float64
	}
	if humidity.Valid {
		v := int(humidity.Int64)
		snap.Weather.Humidity = &v
	}
	if pressure.Valid {
		v := int(pressure.Int64)
		snap.Weather.Pressure = &v
	}
	if aqValue.Valid {
		snap.AirQuality.Value = &aqValue.Float64
	}
	snap.AirQuality.Status = models.AQIStatus(aqStatus)
	if fetchedAt.Valid {
		snap.FetchedAt = fetchedAt.Time
	}
	return snap, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// unavailable wraps a backend failure so callers can match ErrUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
