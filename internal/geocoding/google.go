package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/periplus/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services.
type GoogleProvider struct {
	client GoogleAPIClient // client is the Google Maps API client
	log    *slog.Logger    // log is the logger for logging operations
}

// GoogleAPIClient covers the two geocoding calls the provider makes, so
// tests can substitute the real Google Maps client.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
var ErrEmptyResponse = errors.New("get empty response from Google Maps API")

// NewGoogleProvider initializes a new GoogleProvider with the given API client and logger.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Geocode takes a context and a place name as input, and returns the
// geographical coordinates of the place using the Google Maps Geocoding API.
// If the place cannot be geocoded or if the response is empty, it returns an
// appropriate error.
func (gp *GoogleProvider) Geocode(ctx context.Context, place string) (*models.Coordinates, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "place", place)

	req := maps.GeocodingRequest{Address: place}
	geocodeResponse, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode place: %w", err)
	}

	if len(geocodeResponse) == 0 {
		return nil, ErrEmptyResponse
	}
	coords := geocodeResponse[0].Geometry.Location

	return &models.Coordinates{Latitude: coords.Lat, Longitude: coords.Lng}, nil
}

// ReverseGeocode resolves a coordinate to its address using the Google Maps
// Geocoding API. The city and country are taken from the locality and
// country address components of the top result.
func (gp *GoogleProvider) ReverseGeocode(ctx context.Context, point models.Coordinates) (*models.Address, error) {
	gp.log.DebugContext(ctx, "Reverse geocoding using Google Maps", "lat", point.Latitude, "lon", point.Longitude)

	req := maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: point.Latitude, Lng: point.Longitude}}
	geocodeResponse, err := gp.client.ReverseGeocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to reverse geocode location: %w", err)
	}

	if len(geocodeResponse) == 0 {
		return nil, ErrEmptyResponse
	}
	result := geocodeResponse[0]

	address := models.Address{Formatted: result.FormattedAddress}
	for _, component := range result.AddressComponents {
		for _, componentType := range component.Types {
			switch componentType {
			case "locality":
				address.City = component.LongName
			case "country":
				address.Country = component.LongName
			}
		}
	}

	return &address, nil
}
