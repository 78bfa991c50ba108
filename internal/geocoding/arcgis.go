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
	"strconv"
	"time"

	"github.com/UnknownOlympus/periplus/internal/models"
	"golang.org/x/time/rate"
)

// ArcGISBaseURL -- ArcGIS World Geocoding Service base URL.
const ArcGISBaseURL = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer"

// ArcGISProvider implements geocoding using the ArcGIS World Geocoding
// Service. Single-line forward lookups and reverse lookups both work without
// an API key as long as results are not stored.
type ArcGISProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the ArcGIS geocoding service
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// Common errors for ArcGIS provider.
var (
	ErrArcGISEmptyResponse = errors.New("arcgis API returned no candidates")
	ErrArcGISEmptyPlace    = errors.New("arcgis provider got empty place name")
	ErrArcGISNoAddress     = errors.New("arcgis API found no address for location")
)

// arcgisCandidatesResponse is the findAddressCandidates payload, trimmed to
// the fields the provider consumes.
type arcgisCandidatesResponse struct {
	Candidates []struct {
		Address  string `json:"address"`
		Location struct {
			X float64 `json:"x"` // longitude
			Y float64 `json:"y"` // latitude
		} `json:"location"`
	} `json:"candidates"`
}

// arcgisReverseResponse is the reverseGeocode payload. The service reports
// lookup failures with HTTP 200 and an error object in the body.
type arcgisReverseResponse struct {
	Address struct {
		MatchAddr string `json:"Match_addr"`
		City      string `json:"City"`
		CntryName string `json:"CntryName"`
	} `json:"address"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewArcGISProvider creates a new ArcGIS geocoding provider.
func NewArcGISProvider(rateLimit int, log *slog.Logger) *ArcGISProvider {
	const timeout = 10

	return &ArcGISProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: ArcGISBaseURL,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewArcGISProviderWithClient allows injecting custom HTTP client.
func NewArcGISProviderWithClient(client HTTPClient, limiter *rate.Limiter, log *slog.Logger) *ArcGISProvider {
	return &ArcGISProvider{
		client:  client,
		baseURL: ArcGISBaseURL,
		log:     log,
		limiter: limiter,
	}
}

// Geocode converts a place name into geographic coordinates using the
// findAddressCandidates operation, keeping only the best-scored candidate.
func (ap *ArcGISProvider) Geocode(ctx context.Context, place string) (*models.Coordinates, error) {
	// Rate limit
	if err := ap.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	ap.log.DebugContext(ctx, "Geocoding using ArcGIS", "place", place)

	if place == "" {
		return nil, ErrArcGISEmptyPlace
	}

	reqURL, err := url.Parse(ap.baseURL + "/findAddressCandidates")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("f", "json")
	query.Set("singleLine", place)
	query.Set("maxLocations", "1")
	query.Set("outFields", "Match_addr")
	reqURL.RawQuery = query.Encode()

	body, err := ap.get(ctx, reqURL.String())
	if err != nil {
		return nil, err
	}

	var result arcgisCandidatesResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode arcgis response: %w", err)
	}

	if len(result.Candidates) == 0 {
		return nil, ErrArcGISEmptyResponse
	}

	location := result.Candidates[0].Location
	ap.log.InfoContext(ctx, "ArcGIS found result", "place", place, "lat", location.Y, "lon", location.X)

	return &models.Coordinates{
		Latitude:  location.Y,
		Longitude: location.X,
	}, nil
}

// ReverseGeocode describes a coordinate using the reverseGeocode operation.
func (ap *ArcGISProvider) ReverseGeocode(ctx context.Context, point models.Coordinates) (*models.Address, error) {
	// Rate limit
	if err := ap.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	ap.log.DebugContext(ctx, "Reverse geocoding using ArcGIS", "lat", point.Latitude, "lon", point.Longitude)

	reqURL, err := url.Parse(ap.baseURL + "/reverseGeocode")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	// The location parameter takes the simple "lon,lat" syntax.
	location := strconv.FormatFloat(point.Longitude, 'f', -1, 64) +
		"," + strconv.FormatFloat(point.Latitude, 'f', -1, 64)

	query := reqURL.Query()
	query.Set("f", "json")
	query.Set("location", location)
	reqURL.RawQuery = query.Encode()

	body, err := ap.get(ctx, reqURL.String())
	if err != nil {
		return nil, err
	}

	var result arcgisReverseResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode arcgis response: %w", err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrArcGISNoAddress, result.Error.Message)
	}

	ap.log.InfoContext(ctx, "ArcGIS resolved address", "address", result.Address.MatchAddr)

	return &models.Address{
		Country:   result.Address.CntryName,
		City:      result.Address.City,
		Formatted: result.Address.MatchAddr,
	}, nil
}

// get executes one GET request against the service and returns the body of a
// 200 response.
func (ap *ArcGISProvider) get(ctx context.Context, requestURL string) ([]byte, error) {
	ap.log.DebugContext(ctx, "ArcGIS request URL", "url", requestURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Headers
	req.Header.Set("Accept", "application/json")

	resp, err := ap.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		ap.log.ErrorContext(ctx, "ArcGIS API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("arcgis API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	ap.log.DebugContext(ctx, "ArcGIS raw response", "body", string(body))

	return body, nil
}
