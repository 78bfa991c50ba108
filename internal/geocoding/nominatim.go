package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/UnknownOlympus/periplus/internal/models"
	"golang.org/x/time/rate"
)

// NominatimProvider implements the Provider interface using OpenStreetMap's
// Nominatim API. This is a free geocoding service with usage limits
// (1 request/second for fair use), enforced here with a rate limiter.
type NominatimProvider struct {
	client     HTTPClient    // HTTP client for making requests
	searchURL  string        // URL of the forward geocoding endpoint
	reverseURL string        // URL of the reverse geocoding endpoint
	log        *slog.Logger  // Logger for logging operations
	limiter    *rate.Limiter // Rate limiter, pinned to the usage policy
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// nominatimResponse represents one JSON search result from Nominatim API.
type nominatimResponse struct {
	Lat string `json:"lat"` // Latitude as string
	Lon string `json:"lon"` // Longitude as string
}

// nominatimReverseResponse represents the JSON reverse lookup response.
// Nominatim reports "unable to geocode" with HTTP 200 and an error field.
type nominatimReverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		Country      string `json:"country"`
	} `json:"address"`
	Error string `json:"error"`
}

// Common errors for Nominatim provider.
var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
	ErrNominatimNoAddress     = errors.New("nominatim API found no address for location")
)

const nominatimUserAgent = "Periplus-Geomatcher/1.0 (https://github.com/UnknownOlympus/periplus)"

// NewNominatimProvider creates a new Nominatim geocoding provider.
// Uses the public Nominatim API endpoint by default.
func NewNominatimProvider(log *slog.Logger) *NominatimProvider {
	const timeout = 10
	return &NominatimProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		searchURL:  "https://nominatim.openstreetmap.org/search",
		reverseURL: "https://nominatim.openstreetmap.org/reverse",
		log:        log,
		// One request per second per the Nominatim usage policy:
		// https://operations.osmfoundation.org/policies/nominatim/
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		// User-Agent MUST include valid contact info per the same policy.
		userAgent: nominatimUserAgent,
	}
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom
// HTTP client and rate limiter. Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, limiter *rate.Limiter, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:     client,
		searchURL:  "https://nominatim.openstreetmap.org/search",
		reverseURL: "https://nominatim.openstreetmap.org/reverse",
		log:        log,
		limiter:    limiter,
		userAgent:  nominatimUserAgent,
	}
}

// Geocode converts a place name to geographic coordinates using the
// Nominatim API. It respects Nominatim's usage policy by including a
// User-Agent header and keeping under one request per second.
//
// Uses a progressive fallback strategy for multi-part queries:
// 1. Try the full query
// 2. Try the query without its last comma-separated component
// 3. Try the query without its last two components
// 4. Try the first component alone
func (np *NominatimProvider) Geocode(ctx context.Context, place string) (*models.Coordinates, error) {
	np.log.DebugContext(ctx, "Geocoding using Nominatim", "place", place)

	// Try each query variation until one returns results
	variations := np.generateQueryFallbacks(place)
	for idx, variation := range variations {
		coords, err := np.geocodeSingleQuery(ctx, variation)
		if err == nil {
			if idx > 0 {
				np.log.InfoContext(ctx, "Geocoded using fallback query",
					"original", place,
					"fallback", variation,
					"fallback_level", idx)
			}
			return coords, nil
		}

		// Anything except an empty result set fails immediately
		if !errors.Is(err, ErrNominatimEmptyResponse) {
			return nil, err
		}

		np.log.DebugContext(ctx, "Query variation returned no results, trying fallback",
			"variation", variation,
			"fallback_level", idx)
	}

	np.log.WarnContext(ctx, "All query fallbacks exhausted",
		"place", place,
		"variations_tried", len(variations))
	return nil, ErrNominatimEmptyResponse
}

// ReverseGeocode describes a coordinate using the Nominatim reverse endpoint.
func (np *NominatimProvider) ReverseGeocode(ctx context.Context, point models.Coordinates) (*models.Address, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	np.log.DebugContext(ctx, "Reverse geocoding using Nominatim", "lat", point.Latitude, "lon", point.Longitude)

	reqURL, err := url.Parse(np.reverseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("format", "json")
	query.Set("lat", fmt.Sprintf("%f", point.Latitude))
	query.Set("lon", fmt.Sprintf("%f", point.Longitude))
	query.Set("addressdetails", "1")
	query.Set("accept-language", "en")
	reqURL.RawQuery = query.Encode()

	body, err := np.get(ctx, reqURL.String())
	if err != nil {
		return nil, err
	}

	var result nominatimReverseResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNominatimNoAddress, result.Error)
	}

	// Nominatim names the locality differently depending on its size.
	city := result.Address.City
	for _, fallback := range []string{result.Address.Town, result.Address.Village, result.Address.Municipality} {
		if city != "" {
			break
		}
		city = fallback
	}

	return &models.Address{
		Country:   result.Address.Country,
		City:      city,
		Formatted: result.DisplayName,
	}, nil
}

// generateQueryFallbacks creates a list of progressively simpler query variations.
func (np *NominatimProvider) generateQueryFallbacks(place string) []string {
	if place == "" {
		return []string{""}
	}

	// Use a map to track unique variations and preserve order
	seen := make(map[string]bool)
	variations := []string{}

	addVariation := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			variations = append(variations, v)
		}
	}

	// Start with the full query
	addVariation(place)

	// Split by comma to get query components
	parts := strings.Split(place, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	// If we have multiple parts, create fallbacks by removing from the end
	if len(parts) > 1 {
		addVariation(strings.Join(parts[:len(parts)-1], ", "))

		const lenComponents = 2
		if len(parts) > lenComponents {
			addVariation(strings.Join(parts[:len(parts)-2], ", "))
		}

		// Try just the first component (village/town/city)
		addVariation(parts[0])
	}

	return variations
}

// geocodeSingleQuery performs a single geocoding request without fallback logic.
func (np *NominatimProvider) geocodeSingleQuery(ctx context.Context, place string) (*models.Coordinates, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	reqURL, err := url.Parse(np.searchURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", place)
	query.Set("format", "json")
	query.Set("limit", "1") // Only need the top result
	query.Set("accept-language", "en")
	reqURL.RawQuery = query.Encode()

	body, err := np.get(ctx, reqURL.String())
	if err != nil {
		return nil, err
	}

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	np.log.DebugContext(ctx, "Nominatim found result", "lat", results[0].Lat, "lon", results[0].Lon)

	// Coordinates arrive as strings
	var lat, lon float64
	if _, err = fmt.Sscanf(results[0].Lat, "%f", &lat); err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, results[0].Lat)
	}
	if _, err = fmt.Sscanf(results[0].Lon, "%f", &lon); err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, results[0].Lon)
	}

	return &models.Coordinates{
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

// get executes one GET request with the policy headers applied and returns
// the body of a 200 response.
func (np *NominatimProvider) get(ctx context.Context, requestURL string) ([]byte, error) {
	np.log.DebugContext(ctx, "Nominatim request URL", "url", requestURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set required headers per Nominatim usage policy
	req.Header.Set("User-Agent", np.userAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	np.log.DebugContext(ctx, "Nominatim raw response", "body", string(body))

	return body, nil
}
