package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
)

var (
	// ErrLocationDenied means the patient refused to share a location
	ErrLocationDenied = errors.New("location access denied")

	// ErrLocationUnavailable means no location could be determined
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrAddressNotFound means the geocoder knows no place matching the query
	ErrAddressNotFound = errors.New("address not found")
)

// LocationHint is what the client knows about the patient's whereabouts.
// Device coordinates take precedence over an address.
type LocationHint struct {
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Denied    bool     `json:"denied,omitempty"`
	Address   string   `json:"address,omitempty"`
}

// LocationProvider resolves the patient's position for facility ranking
type LocationProvider interface {
	// Locate returns the patient location, ErrLocationDenied or ErrLocationUnavailable
	Locate(ctx context.Context, hint LocationHint) (*entities.Location, error)
}

// Geocoder defines the interface for address geocoding services
type Geocoder interface {
	// Geocode resolves an address, including its coordinates
	Geocode(ctx context.Context, address string) (*GeocodedAddress, error)

	// ReverseGeocode converts coordinates to an address
	ReverseGeocode(ctx context.Context, lat, lon float64) (*GeocodedAddress, error)
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeocodedAddress represents a geocoded address
type GeocodedAddress struct {
	FormattedAddress string      `json:"formatted_address"`
	Street           string      `json:"street,omitempty"`
	City             string      `json:"city,omitempty"`
	State            string      `json:"state,omitempty"`
	Country          string      `json:"country,omitempty"`
	Coordinates      Coordinates `json:"coordinates"`
}
