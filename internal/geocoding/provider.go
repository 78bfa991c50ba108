package geocoding

import (
	"context"

	"github.com/UnknownOlympus/periplus/internal/models"
)

// Provider is the interface geocoding backends implement.
// Geocode resolves a free-form place name to geographic coordinates.
// ReverseGeocode describes a coordinate with the address fields the backend
// knows for it. Both return an error when the backend has no answer.
type Provider interface {
	Geocode(ctx context.Context, place string) (*models.Coordinates, error)
	ReverseGeocode(ctx context.Context, point models.Coordinates) (*models.Address, error)
}
