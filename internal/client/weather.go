package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tharushi1019/GeoInsightDashboard/internal/models"
)

// WeatherClient fetches a current weather reading by city.
type WeatherClient interface {
	GetWeather(ctx context.Context, city string) (models.WeatherResult, error)
	ValidateAPIKey(ctx context.Context) error
}

// OpenWeatherClient implements WeatherClient against the OpenWeatherMap
// current weather API.
type OpenWeatherClient struct {
	apiKey  string
	apiURL  string
	timeout time.Duration
	api     *apiClient
}

// NewOpenWeatherClient creates an OpenWeatherMap client. apiURL is the current
// weather endpoint (e.g. "https://api.openweathermap.org/data/2.5/weather").
func NewOpenWeatherClient(apiKey, apiURL string, timeout time.Duration, retry RetryConfig) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}

	return &OpenWeatherClient{
		apiKey:  apiKey,
		apiURL:  apiURL,
		timeout: timeout,
		api:     newAPIClient("openweathermap", timeout, retry),
	}, nil
}

type openWeatherResponse struct {
	Main struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *int     `json:"humidity"`
		Pressure  *int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Name string `json:"name"`
}

// GetWeather fetches the current reading for the city. An unknown city
// reports ErrPlaceNotFound.
func (c *OpenWeatherClient) GetWeather(ctx context.Context, city string) (models.WeatherResult, error) {
	var apiResp openWeatherResponse
	if err := c.api.getJSON(ctx, c.requestURL(city), &apiResp); err != nil {
		return models.WeatherResult{}, fmt.Errorf("openweathermap %q: %w", city, err)
	}
	return mapWeather(apiResp, city), nil
}

func (c *OpenWeatherClient) requestURL(city string) string {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	return c.apiURL + "?" + params.Encode()
}

func mapWeather(apiResp openWeatherResponse, city string) models.WeatherResult {
	description := ""
	if len(apiResp.Weather) > 0 {
		description = apiResp.Weather[0].Main
		if apiResp.Weather[0].Description != "" {
			description = apiResp.Weather[0].Description
		}
	}

	displayName := apiResp.Name
	if displayName == "" {
		displayName = city
	}

	return models.WeatherResult{
		City: displayName,
		Weather: models.Weather{
			Temperature: apiResp.Main.Temp,
			FeelsLike:   apiResp.Main.FeelsLike,
			Humidity:    apiResp.Main.Humidity,
			Pressure:    apiResp.Main.Pressure,
			Description: description,
		},
		FetchedAt: time.Now().UTC(),
	}
}

// ValidateAPIKey checks the configured key against the live API at startup.
func (c *OpenWeatherClient) ValidateAPIKey(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL("London"), nil)
	if err != nil {
		return fmt.Errorf("build validation request: %w", err)
	}

	resp, err := c.api.client.Do(req)
	if err != nil {
		return fmt.Errorf("validation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: API key is invalid or not activated", ErrInvalidAPIKey)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("validation failed: HTTP %d", resp.StatusCode)
	}
	return nil
}
