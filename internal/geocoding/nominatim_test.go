package geocoding_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/periplus/internal/geocoding"
	"github.com/UnknownOlympus/periplus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func TestNominatimProvider_Geocode(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	defaultRL := rate.NewLimiter(rate.Inf, 0)

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				// Verify request parameters
				assert.Equal(t, "GET", req.Method)
				assert.Contains(t, req.URL.String(), "nominatim.openstreetmap.org")
				assert.Equal(t, "1600 Amphitheatre Parkway, Mountain View, CA", req.URL.Query().Get("q"))
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t, "1", req.URL.Query().Get("limit"))
				assert.Equal(t, "en", req.URL.Query().Get("accept-language"))
				assert.Equal(
					t,
					"Periplus-Geomatcher/1.0 (https://github.com/UnknownOlympus/periplus)",
					req.Header.Get("User-Agent"),
				)

				// Return mock response
				responseBody := `[{"lat":"37.4224764","lon":"-122.0842499"}]`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "1600 Amphitheatre Parkway, Mountain View, CA")

		require.NoError(t, err)
		require.NotNil(t, coords)
		assert.InEpsilon(t, 37.4224764, coords.Latitude, 0.0001)
		assert.InEpsilon(t, -122.0842499, coords.Longitude, 0.0001)
	})

	t.Run("empty response from API", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `[]`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "invalid address")

		require.Error(t, err)
		require.Nil(t, coords)
		assert.ErrorIs(t, err, geocoding.ErrNominatimEmptyResponse)
	})

	t.Run("HTTP error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `{"error":"Rate limit exceeded"}`
				return &http.Response{
					StatusCode: http.StatusTooManyRequests,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		assert.Contains(t, err.Error(), "nominatim API returned status 429")
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `invalid json`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		assert.Contains(t, err.Error(), "failed to decode nominatim response")
	})

	t.Run("invalid latitude in response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `[{"lat":"invalid","lon":"-122.0842499"}]`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		require.ErrorIs(t, err, geocoding.ErrNominatimInvalidCoords)
		assert.Contains(t, err.Error(), "invalid latitude")
	})

	t.Run("invalid longitude in response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `[{"lat":"37.4224764","lon":"invalid"}]`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		require.ErrorIs(t, err, geocoding.ErrNominatimInvalidCoords)
		assert.Contains(t, err.Error(), "invalid longitude")
	})

	t.Run("HTTP client returns error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
		assert.Contains(t, err.Error(), "failed to execute geocoding request")
	})

	t.Run("context cancellation", func(t *testing.T) {
		newCtx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, req.Context().Err()
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(newCtx, "some address")

		require.Error(t, err)
		require.Nil(t, coords)
	})
}

func TestNominatimProvider_QueryFallback(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	defaultRL := rate.NewLimiter(rate.Inf, 0)

	t.Run("fallback to town name when full query fails", func(t *testing.T) {
		requestCount := 0
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				requestCount++
				query := req.URL.Query().Get("q")

				// First request (full query) returns empty
				if query == "Hrusice, Polni, 3" {
					return &http.Response{
						StatusCode: http.StatusOK,
						Body:       io.NopCloser(bytes.NewBufferString(`[]`)),
					}, nil
				}

				// Second request (without house number) returns empty
				if query == "Hrusice, Polni" {
					return &http.Response{
						StatusCode: http.StatusOK,
						Body:       io.NopCloser(bytes.NewBufferString(`[]`)),
					}, nil
				}

				// Third request (town only) succeeds
				if query == "Hrusice" {
					return &http.Response{
						StatusCode: http.StatusOK,
						Body:       io.NopCloser(bytes.NewBufferString(`[{"lat":"49.9087","lon":"14.7374"}]`)),
					}, nil
				}

				t.Fatalf("Unexpected query: %s", query)
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "Hrusice, Polni, 3")

		require.NoError(t, err)
		require.NotNil(t, coords)
		assert.InEpsilon(t, 49.9087, coords.Latitude, 0.0001)
		assert.InEpsilon(t, 14.7374, coords.Longitude, 0.0001)
		assert.Equal(t, 3, requestCount, "should try 3 fallback levels")
	})

	t.Run("success on first try with full query", func(t *testing.T) {
		requestCount := 0
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				requestCount++
				// Full query succeeds immediately
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`[{"lat":"50.0874","lon":"14.4213"}]`)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "Praha, Karlova, 1")

		require.NoError(t, err)
		require.NotNil(t, coords)
		assert.Equal(t, 1, requestCount, "should succeed on first try")
	})

	t.Run("all fallbacks fail", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				// All requests return empty
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`[]`)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "Nowhere, Unknown Street, 999")

		require.Error(t, err)
		require.Nil(t, coords)
		assert.ErrorIs(t, err, geocoding.ErrNominatimEmptyResponse)
	})

	t.Run("single-part query no fallback", func(t *testing.T) {
		requestCount := 0
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				requestCount++
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`[{"lat":"49.1951","lon":"16.6068"}]`)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "Brno")

		require.NoError(t, err)
		require.NotNil(t, coords)
		assert.Equal(t, 1, requestCount, "single-part query should only try once")
	})
}

func TestNominatimProvider_ReverseGeocode(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	defaultRL := rate.NewLimiter(rate.Inf, 0)
	point := models.Coordinates{Latitude: 50.0755, Longitude: 14.4378}

	t.Run("successful reverse geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				// Verify request parameters
				assert.Contains(t, req.URL.String(), "nominatim.openstreetmap.org/reverse")
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t, "50.075500", req.URL.Query().Get("lat"))
				assert.Equal(t, "14.437800", req.URL.Query().Get("lon"))
				assert.Equal(t, "1", req.URL.Query().Get("addressdetails"))

				responseBody := `{
					"display_name": "Old Town Square, Prague, Czechia",
					"address": {"city": "Prague", "country": "Czechia"}
				}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		address, err := provider.ReverseGeocode(ctx, point)

		require.NoError(t, err)
		require.NotNil(t, address)
		assert.Equal(t, "Czechia", address.Country)
		assert.Equal(t, "Prague", address.City)
		assert.Equal(t, "Old Town Square, Prague, Czechia", address.Formatted)
	})

	t.Run("falls back to town when city is missing", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `{
					"display_name": "Hrusice, Central Bohemia, Czechia",
					"address": {"town": "Hrusice", "country": "Czechia"}
				}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		address, err := provider.ReverseGeocode(ctx, point)

		require.NoError(t, err)
		require.NotNil(t, address)
		assert.Equal(t, "Hrusice", address.City)
	})

	t.Run("error field in response body", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `{"error": "Unable to geocode"}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		address, err := provider.ReverseGeocode(ctx, models.Coordinates{Latitude: 89.9, Longitude: 0})

		require.Error(t, err)
		require.Nil(t, address)
		require.ErrorIs(t, err, geocoding.ErrNominatimNoAddress)
		assert.Contains(t, err.Error(), "Unable to geocode")
	})

	t.Run("HTTP error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusServiceUnavailable,
					Body:       io.NopCloser(bytes.NewBufferString(`unavailable`)),
				}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, defaultRL, logger)
		address, err := provider.ReverseGeocode(ctx, point)

		require.Error(t, err)
		require.Nil(t, address)
		assert.Contains(t, err.Error(), "nominatim API returned status 503")
	})

	t.Run("rate limit exceeded", func(t *testing.T) {
		rateCtx, cancel := context.WithCancel(context.Background())
		cancel() // cancel immediately
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				t.Fatal("HTTP client should not be called when rate limit blocks")
				return &http.Response{}, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, rate.NewLimiter(rate.Limit(1), 1), logger)
		address, err := provider.ReverseGeocode(rateCtx, point)

		require.Error(t, err)
		require.Nil(t, address)
		assert.ErrorContains(t, err, "rate limit exceeded")
	})
}

func TestNewNominatimProvider(t *testing.T) {
	logger := slog.Default()

	provider := geocoding.NewNominatimProvider(logger)

	require.NotNil(t, provider)
}
