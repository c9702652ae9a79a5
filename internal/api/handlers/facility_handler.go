package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/Patientbookingtriage/internal/application/services"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
	"github.com/zatekoja/Patientbookingtriage/pkg/utils"
)

const (
	defaultSuggestLimit = 10
	maxSuggestLimit     = 50
)

// FacilityCatalog is the read side of the facility catalog used by the handler
type FacilityCatalog interface {
	Rank(ctx context.Context, specialty string, patient *entities.Location) ([]entities.RankedFacility, error)
	SuggestSpecialties(ctx context.Context, prefix string, limit int) ([]services.SpecialtyCount, error)
}

// FacilityHandler handles facility-related HTTP requests
type FacilityHandler struct {
	catalog FacilityCatalog
}

// NewFacilityHandler creates a new facility handler
func NewFacilityHandler(catalog FacilityCatalog) *FacilityHandler {
	return &FacilityHandler{
		catalog: catalog,
	}
}

// RankFacilities handles GET /api/facilities/ranked?specialty=...&lat=...&lon=...
func (h *FacilityHandler) RankFacilities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	specialty := strings.TrimSpace(query.Get("specialty"))
	if specialty == "" {
		respondWithAppError(w, r, apperrors.NewRefusal(apperrors.ReasonSpecialtyRequired))
		return
	}

	patient, err := parsePatientLocation(query.Get("lat"), query.Get("lon"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	ranked, err := h.catalog.Rank(r.Context(), specialty, patient)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"specialty":  specialty,
		"facilities": ranked,
		"count":      len(ranked),
	})
}

// SuggestSpecialties handles GET /api/specialties?q=...&limit=...
func (h *FacilityHandler) SuggestSpecialties(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := defaultSuggestLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = min(parsed, maxSuggestLimit)
	}

	specialties, err := h.catalog.SuggestSpecialties(r.Context(), strings.TrimSpace(query.Get("q")), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if specialties == nil {
		specialties = []services.SpecialtyCount{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"specialties": specialties,
		"count":       len(specialties),
	})
}

// parsePatientLocation reads optional coordinates; both or neither must be given
func parsePatientLocation(latStr, lonStr string) (*entities.Location, error) {
	latStr, lonStr = strings.TrimSpace(latStr), strings.TrimSpace(lonStr)
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, apperrors.NewValidationError("lat and lon must be given together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid lat parameter")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid lon parameter")
	}

	loc := &entities.Location{Latitude: lat, Longitude: lon}
	if err := utils.ValidateStruct(loc); err != nil {
		return nil, apperrors.NewValidationError(utils.FormatFirstValidationError(err))
	}
	return loc, nil
}
