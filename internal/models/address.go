package models

// Address holds the descriptive fields a reverse geocoder reports for a point.
type Address struct {
	Country   string // Country name, empty when the provider reports none.
	City      string // City (or nearest locality) name.
	Formatted string // Formatted is the provider's full display address.
}

// AnnotatedCoordinate pairs an input coordinate with its reverse-geocoded address.
type AnnotatedCoordinate struct {
	Location Coordinates
	Address  Address
}
