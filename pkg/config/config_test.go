package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FACILITY_SOURCE", "")
	t.Setenv("BOOKING_SINK", "")
	t.Setenv("SESSION_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Sources.Facilities)
	assert.Equal(t, "http", cfg.Sources.Bookings)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.False(t, cfg.UsesPostgres())
}

func TestLoad_CareAPIConfig(t *testing.T) {
	t.Setenv("CARE_API_URL", "http://directory:9000")
	t.Setenv("CARE_API_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://directory:9000", cfg.CareAPI.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.CareAPI.Timeout)
}

func TestLoad_PostgresSources(t *testing.T) {
	t.Setenv("FACILITY_SOURCE", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UsesPostgres())
}

func TestLoad_RejectsUnknownSource(t *testing.T) {
	t.Setenv("BOOKING_SINK", "kafka")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "BOOKING_SINK")
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.ao, ,https://admin.example.ao")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://app.example.ao", "https://admin.example.ao"}, cfg.Server.AllowedOrigins)
}

func TestLoad_GeolocationConfig(t *testing.T) {
	t.Setenv("GEOLOCATION_PROVIDER", "google")
	t.Setenv("GEOLOCATION_REGION", "mz")
	t.Setenv("GEOLOCATION_LANGUAGE", "pt-PT")
	t.Setenv("GEOLOCATION_CACHE_TTL", "48h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "google", cfg.Geolocation.Provider)
	assert.Equal(t, "mz", cfg.Geolocation.Region)
	assert.Equal(t, "pt-PT", cfg.Geolocation.Language)
	assert.Equal(t, 48*time.Hour, cfg.Geolocation.CacheTTL)
}
