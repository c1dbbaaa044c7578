package models

import "time"

// Metadata holds country facts captured at fetch time. Fields the upstream
// provider omitted are nil/empty rather than sentinel strings.
type Metadata struct {
	Capital    string   `json:"capital,omitempty"`
	Population *int64   `json:"population,omitempty"`
	Currency   string   `json:"currency,omitempty"`
	Languages  []string `json:"languages,omitempty"`
	Flag       string   `json:"flag,omitempty"`
	Region     string   `json:"region,omitempty"`
	Subregion  string   `json:"subregion,omitempty"`
}

// Weather holds the weather reading for the country's capital. Pointer fields
// are nil when the provider response did not include them.
type Weather struct {
	Temperature *float64 `json:"temperature,omitempty"`
	FeelsLike   *float64 `json:"feelsLike,omitempty"`
	Humidity    *int     `json:"humidity,omitempty"`
	Pressure    *int     `json:"pressure,omitempty"`
	Description string   `json:"description,omitempty"`
}

// AirQuality holds a single pollutant reading and its categorical status.
type AirQuality struct {
	Parameter string    `json:"parameter,omitempty"`
	Value     *float64  `json:"value,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	Status    AQIStatus `json:"status,omitempty"`
}

// Snapshot is the persisted record: one country's metadata, weather, and
// air-quality readings at a point in time. ID and the Created/Updated
// timestamps are server-assigned; FetchedAt is supplied by the client and
// records when the upstream data was retrieved.
type Snapshot struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"ownerId"`
	Country    string     `json:"country"`
	Metadata   Metadata   `json:"metadata"`
	Weather    Weather    `json:"weather"`
	AirQuality AirQuality `json:"airQuality"`
	FetchedAt  time.Time  `json:"fetchedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Float64Ptr returns a pointer to v. Convenience for building optional fields.
func Float64Ptr(v float64) *float64 { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }
