package geolocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
	"github.com/zatekoja/Patientbookingtriage/pkg/utils"
)

// DeviceLocator resolves a patient location from what the client sent:
// device coordinates first, then a typed address through the geocoder.
type DeviceLocator struct {
	geocoder providers.Geocoder
}

var _ providers.LocationProvider = (*DeviceLocator)(nil)

// NewDeviceLocator creates a locator. A nil geocoder ignores addresses.
func NewDeviceLocator(geocoder providers.Geocoder) *DeviceLocator {
	return &DeviceLocator{geocoder: geocoder}
}

// Locate implements providers.LocationProvider
func (l *DeviceLocator) Locate(ctx context.Context, hint providers.LocationHint) (*entities.Location, error) {
	if hint.Denied {
		return nil, providers.ErrLocationDenied
	}

	if hint.Latitude != nil && hint.Longitude != nil {
		loc := &entities.Location{Latitude: *hint.Latitude, Longitude: *hint.Longitude}
		if err := utils.ValidateStruct(loc); err != nil {
			return nil, fmt.Errorf("%w: %s", providers.ErrLocationUnavailable, utils.FormatFirstValidationError(err))
		}
		return loc, nil
	}

	address := strings.TrimSpace(hint.Address)
	if address == "" || l.geocoder == nil {
		return nil, providers.ErrLocationUnavailable
	}

	geocoded, err := l.geocoder.Geocode(ctx, address)
	if err != nil {
		log.Debug().Err(err).Str("address", address).Msg("geocoding patient address failed")
		return nil, fmt.Errorf("%w: %v", providers.ErrLocationUnavailable, err)
	}
	return &entities.Location{
		Latitude:  geocoded.Coordinates.Latitude,
		Longitude: geocoded.Coordinates.Longitude,
	}, nil
}
