package models

import "time"

// CountryResult is the geo proxy response for a country metadata lookup.
type CountryResult struct {
	Country   string    `json:"country"`
	Metadata  Metadata  `json:"metadata"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// WeatherResult is the geo proxy response for a city weather lookup.
type WeatherResult struct {
	City      string    `json:"city"`
	Weather   Weather   `json:"weather"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// AirQualityObservation is a single pollutant measurement as exposed by the
// air-quality proxy (provider response shape, preserved for the dashboard).
type AirQualityObservation struct {
	Parameter string  `json:"parameter"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
}

// AirQualityResult is the geo proxy response for a city air-quality lookup.
// Placeholder is true when no provider is configured and deterministic
// fallback data was returned instead.
type AirQualityResult struct {
	Results     []AirQualityObservation `json:"results"`
	Placeholder bool                    `json:"placeholder,omitempty"`
	FetchedAt   time.Time               `json:"fetchedAt"`
}
