package geolocation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
)

// mockCities are the city centres the mock geocoder knows about
var mockCities = map[string]providers.Coordinates{
	"luanda":   {Latitude: -8.8390, Longitude: 13.2894},
	"viana":    {Latitude: -8.9035, Longitude: 13.3747},
	"benguela": {Latitude: -12.5763, Longitude: 13.4055},
	"huambo":   {Latitude: -12.7761, Longitude: 15.7392},
	"lubango":  {Latitude: -14.9177, Longitude: 13.4925},
	"cabinda":  {Latitude: -5.5500, Longitude: 12.2000},
}

// MockGeolocationProvider geocodes by city name, for development and tests
type MockGeolocationProvider struct{}

// NewMockGeolocationProvider creates a new mock geolocation provider
func NewMockGeolocationProvider() providers.Geocoder {
	return &MockGeolocationProvider{}
}

// Geocode returns the centre of the first known city named in address
func (m *MockGeolocationProvider) Geocode(ctx context.Context, address string) (*providers.GeocodedAddress, error) {
	lower := strings.ToLower(address)
	for _, city := range sortedCityNames() {
		if strings.Contains(lower, city) {
			return &providers.GeocodedAddress{
				FormattedAddress: strings.TrimSpace(address),
				City:             strings.ToUpper(city[:1]) + city[1:],
				Country:          "Angola",
				Coordinates:      mockCities[city],
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", providers.ErrAddressNotFound, address)
}

// ReverseGeocode echoes the coordinates back as an address
func (m *MockGeolocationProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	return &providers.GeocodedAddress{
		FormattedAddress: fmt.Sprintf("%f, %f", lat, lon),
		Country:          "Angola",
		Coordinates: providers.Coordinates{
			Latitude:  lat,
			Longitude: lon,
		},
	}, nil
}

func sortedCityNames() []string {
	names := make([]string, 0, len(mockCities))
	for name := range mockCities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
