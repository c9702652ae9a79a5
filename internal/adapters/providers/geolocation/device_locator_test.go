package geolocation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
)

func ptr(v float64) *float64 { return &v }

func TestDeviceLocator_Locate(t *testing.T) {
	locator := NewDeviceLocator(NewMockGeolocationProvider())
	ctx := context.Background()

	t.Run("device coordinates win over address", func(t *testing.T) {
		loc, err := locator.Locate(ctx, providers.LocationHint{Latitude: ptr(-8.8), Longitude: ptr(13.2), Address: "Huambo"})
		require.NoError(t, err)
		assert.Equal(t, -8.8, loc.Latitude)
		assert.Equal(t, 13.2, loc.Longitude)
	})

	t.Run("address is geocoded", func(t *testing.T) {
		loc, err := locator.Locate(ctx, providers.LocationHint{Address: "Rua Rainha Ginga, Luanda"})
		require.NoError(t, err)
		assert.InDelta(t, -8.839, loc.Latitude, 0.001)
	})

	t.Run("denied", func(t *testing.T) {
		_, err := locator.Locate(ctx, providers.LocationHint{Denied: true, Latitude: ptr(-8.8), Longitude: ptr(13.2)})
		assert.ErrorIs(t, err, providers.ErrLocationDenied)
	})

	t.Run("out of range coordinates", func(t *testing.T) {
		_, err := locator.Locate(ctx, providers.LocationHint{Latitude: ptr(120), Longitude: ptr(13.2)})
		assert.ErrorIs(t, err, providers.ErrLocationUnavailable)
	})

	t.Run("unknown address", func(t *testing.T) {
		_, err := locator.Locate(ctx, providers.LocationHint{Address: "Atlantis"})
		assert.ErrorIs(t, err, providers.ErrLocationUnavailable)
	})

	t.Run("nothing to go on", func(t *testing.T) {
		_, err := locator.Locate(ctx, providers.LocationHint{})
		assert.ErrorIs(t, err, providers.ErrLocationUnavailable)
	})
}
