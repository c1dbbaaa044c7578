package client

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tharushi1019/GeoInsightDashboard/internal/models"
)

// CountryClient fetches country metadata by name.
type CountryClient interface {
	GetCountry(ctx context.Context, name string) (models.CountryResult, error)
}

// RestCountriesClient implements CountryClient against the RestCountries API.
type RestCountriesClient struct {
	baseURL string
	api     *apiClient
}

// NewRestCountriesClient creates a client for the RestCountries API. baseURL
// is the API root (e.g. "https://restcountries.com/v3.1").
func NewRestCountriesClient(baseURL string, timeout time.Duration, retry RetryConfig) *RestCountriesClient {
	return &RestCountriesClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		api:     newAPIClient("restcountries", timeout, retry),
	}
}

// restCountriesEntry mirrors the subset of the RestCountries v3.1 response
// this service consumes. Fields absent upstream decode to zero values and are
// mapped to nil pointers, never placeholder strings.
type restCountriesEntry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	Capital    []string `json:"capital"`
	Population *int64   `json:"population"`
	Currencies map[string]struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"currencies"`
	Languages map[string]string `json:"languages"`
	Flags     struct {
		PNG string `json:"png"`
		SVG string `json:"svg"`
	} `json:"flags"`
	Region    string `json:"region"`
	Subregion string `json:"subregion"`
}

// GetCountry fetches metadata for the named country. A name matching no
// country reports ErrPlaceNotFound.
func (c *RestCountriesClient) GetCountry(ctx context.Context, name string) (models.CountryResult, error) {
	u := fmt.Sprintf("%s/name/%s?fullText=false", c.baseURL, url.PathEscape(name))

	var entries []restCountriesEntry
	if err := c.api.getJSON(ctx, u, &entries); err != nil {
		return models.CountryResult{}, fmt.Errorf("restcountries %q: %w", name, err)
	}
	if len(entries) == 0 {
		return models.CountryResult{}, fmt.Errorf("restcountries %q: %w", name, ErrPlaceNotFound)
	}

	return mapCountry(entries[0]), nil
}

func mapCountry(e restCountriesEntry) models.CountryResult {
	meta := models.Metadata{
		Population: e.Population,
		Flag:       e.Flags.PNG,
		Region:     e.Region,
		Subregion:  e.Subregion,
	}
	if len(e.Capital) > 0 {
		meta.Capital = e.Capital[0]
	}
	meta.Currency = formatCurrencies(e.Currencies)
	meta.Languages = sortedValues(e.Languages)

	return models.CountryResult{
		Country:   e.Name.Common,
		Metadata:  meta,
		FetchedAt: time.Now().UTC(),
	}
}

// formatCurrencies renders the currencies map as "Name (Symbol)" entries
// joined with ", ". Map iteration order is randomized, so codes are sorted
// for a stable rendering.
func formatCurrencies(currencies map[string]struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}) string {
	codes := make([]string, 0, len(currencies))
	for code := range currencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		cur := currencies[code]
		name := cur.Name
		if name == "" {
			name = code
		}
		if cur.Symbol != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", name, cur.Symbol))
		} else {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ", ")
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
