package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
	"github.com/zatekoja/Patientbookingtriage/pkg/utils"
)

// GeolocationHandler handles geolocation endpoints.
type GeolocationHandler struct {
	geocoder providers.Geocoder
}

// NewGeolocationHandler creates a new geolocation handler.
func NewGeolocationHandler(geocoder providers.Geocoder) *GeolocationHandler {
	return &GeolocationHandler{geocoder: geocoder}
}

// Geocode handles GET /api/geocode?address=...
func (h *GeolocationHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respondWithError(w, http.StatusBadRequest, "address parameter is required")
		return
	}

	geocoded, err := h.geocoder.Geocode(r.Context(), address)
	if errors.Is(err, providers.ErrAddressNotFound) {
		respondWithError(w, http.StatusNotFound, "address not found")
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("geocode failed")
		respondWithError(w, http.StatusBadGateway, "failed to geocode address")
		return
	}

	respondWithJSON(w, http.StatusOK, geocoded)
}

// ReverseGeocode handles GET /api/reverse-geocode?lat=...&lon=...
func (h *GeolocationHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	latStr := strings.TrimSpace(r.URL.Query().Get("lat"))
	lonStr := strings.TrimSpace(r.URL.Query().Get("lon"))
	if latStr == "" || lonStr == "" {
		respondWithError(w, http.StatusBadRequest, "lat and lon parameters are required")
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lat parameter")
		return
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lon parameter")
		return
	}
	if err := utils.ValidateStruct(entities.Location{Latitude: lat, Longitude: lon}); err != nil {
		respondWithError(w, http.StatusBadRequest, utils.FormatFirstValidationError(err))
		return
	}

	address, err := h.geocoder.ReverseGeocode(r.Context(), lat, lon)
	if err != nil {
		log.Warn().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("reverse geocode failed")
		respondWithError(w, http.StatusBadGateway, "failed to reverse geocode")
		return
	}

	respondWithJSON(w, http.StatusOK, address)
}
