package models

// NamedCity is a place name resolved to a geographical point.
type NamedCity struct {
	Name     string      // Name is the place name as it appeared in the input.
	Location Coordinates // Location is the geocoded position of the place.
}
