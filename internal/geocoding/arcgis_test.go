package geocoding_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/UnknownOlympus/periplus/internal/geocoding"
	"github.com/UnknownOlympus/periplus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestArcGISProvider_Geocode(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	defaultRL := rate.NewLimiter(rate.Inf, 0)

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				// Verify request parameters
				assert.Equal(t, "GET", req.Method)
				assert.Contains(t, req.URL.String(), geocoding.ArcGISBaseURL)
				assert.Contains(t, req.URL.Path, "findAddressCandidates")
				assert.Equal(t, "json", req.URL.Query().Get("f"))
				assert.Equal(t, "Prague", req.URL.Query().Get("singleLine"))
				assert.Equal(t, "1", req.URL.Query().Get("maxLocations"))
				assert.Equal(t, "application/json", req.Header.Get("Accept"))

				// Return mock response
				responseBody := `{"candidates":[{"address":"Praha, Hlavní město Praha","location":{"x":14.4378,"y":50.0755}}]}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewArcGISProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "Prague")

		require.NoError(t, err)
		require.NotNil(t, coords)
		assert.InEpsilon(t, 50.0755, coords.Latitude, 0.0001)
		assert.InEpsilon(t, 14.4378, coords.Longitude, 0.0001)
	})

	t.Run("no candidates", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`{"candidates":[]}`)),
				}, nil
			},
		}

		provider := geocoding.NewArcGISProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "Atlantis")

		require.Error(t, err)
		assert.Nil(t, coords)
		assert.ErrorIs(t, err, geocoding.ErrArcGISEmptyResponse)
	})

	t.Run("empty place name", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				t.Fatal("HTTP client should not be called for an empty place")
				return &http.Response{}, nil
			},
		}

		provider := geocoding.NewArcGISProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "")

		require.Error(t, err)
		assert.Nil(t, coords)
		assert.ErrorIs(t, err, geocoding.ErrArcGISEmptyPlace)
	})

	t.Run("HTTP error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusBadGateway,
					Body:       io.NopCloser(bytes.NewBufferString(`bad gateway`)),
				}, nil
			},
		}

		provider := geocoding.NewArcGISProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "Prague")

		require.Error(t, err)
		assert.Nil(t, coords)
		assert.Contains(t, err.Error(), "arcgis API returned status 502")
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(`invalid json`)),
				}, nil
			},
		}

		provider := geocoding.NewArcGISProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "Prague")

		require.Error(t, err)
		assert.Nil(t, coords)
		assert.Contains(t, err.Error(), "failed to decode arcgis response")
	})

	t.Run("HTTP client returns error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewArcGISProviderWithClient(mockClient, defaultRL, logger)
		coords, err := provider.Geocode(ctx, "Prague")

		require.Error(t, err)
		assert.Nil(t, coords)
		assert.Contains(t, err.Error(), "failed to execute geocoding request")
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

		limiter := rate.NewLimiter(rate.Every(time.Second), 1)

		provider := geocoding.NewArcGISProviderWithClient(mockClient, limiter, logger)
		coords, err := provider.Geocode(rateCtx, "Prague")

		require.Error(t, err)
		assert.Nil(t, coords)
		assert.ErrorContains(t, err, "rate limit exceeded")
	})
}

func TestArcGISProvider_ReverseGeocode(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()
	defaultRL := rate.NewLimiter(rate.Inf, 0)
	point := models.Coordinates{Latitude: 50.0755, Longitude: 14.4378}

	t.Run("successful reverse geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				// Verify request parameters
				assert.Contains(t, req.URL.Path, "reverseGeocode")
				assert.Equal(t, "json", req.URL.Query().Get("f"))
				assert.Equal(t, "14.4378,50.0755", req.URL.Query().Get("location"))

				responseBody := `{"address":{"Match_addr":"Old Town Square, Prague","City":"Prague","CntryName":"Czechia"}}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewArcGISProviderWithClient(mockClient, defaultRL, logger)
		address, err := provider.ReverseGeocode(ctx, point)

		require.NoError(t, err)
		require.NotNil(t, address)
		assert.Equal(t, "Czechia", address.Country)
		assert.Equal(t, "Prague", address.City)
		assert.Equal(t, "Old Town Square, Prague", address.Formatted)
	})

	t.Run("error object in response body", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				responseBody := `{"error":{"code":400,"message":"Unable to complete operation."}}`
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(bytes.NewBufferString(responseBody)),
				}, nil
			},
		}

		provider := geocoding.NewArcGISProviderWithClient(mockClient, defaultRL, logger)
		address, err := provider.ReverseGeocode(ctx, models.Coordinates{Latitude: 0, Longitude: -179.9})

		require.Error(t, err)
		assert.Nil(t, address)
		require.ErrorIs(t, err, geocoding.ErrArcGISNoAddress)
		assert.Contains(t, err.Error(), "Unable to complete operation.")
	})

	t.Run("HTTP error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusInternalServerError,
					Body:       io.NopCloser(bytes.NewBufferString(`server error`)),
				}, nil
			},
		}

		provider := geocoding.NewArcGISProviderWithClient(mockClient, defaultRL, logger)
		address, err := provider.ReverseGeocode(ctx, point)

		require.Error(t, err)
		assert.Nil(t, address)
		assert.Contains(t, err.Error(), "arcgis API returned status 500")
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

		limiter := rate.NewLimiter(rate.Every(time.Second), 1)

		provider := geocoding.NewArcGISProviderWithClient(mockClient, limiter, logger)
		address, err := provider.ReverseGeocode(rateCtx, point)

		require.Error(t, err)
		assert.Nil(t, address)
		assert.ErrorContains(t, err, "rate limit exceeded")
	})
}

func TestNewArcGISProvider(t *testing.T) {
	logger := slog.Default()

	provider := geocoding.NewArcGISProvider(10, logger)

	require.NotNil(t, provider)
}
