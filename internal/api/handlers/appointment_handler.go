package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Patientbookingtriage/internal/api/loaders"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

const (
	defaultAppointmentLimit = 20
	maxAppointmentLimit     = 100
)

// AppointmentReader lists the appointments booked for a patient
type AppointmentReader interface {
	ListByPatient(ctx context.Context, patientID string, filter repositories.AppointmentFilter) ([]*entities.Appointment, error)
}

// AppointmentHandler handles appointment requests
type AppointmentHandler struct {
	appointments AppointmentReader
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(appointments AppointmentReader) *AppointmentHandler {
	return &AppointmentHandler{
		appointments: appointments,
	}
}

// AppointmentView is an appointment with its facility, when still in the directory
type AppointmentView struct {
	*entities.Appointment
	Facility *entities.Facility `json:"facility,omitempty"`
}

// ListPatientAppointments handles GET /api/patients/{id}/appointments
func (h *AppointmentHandler) ListPatientAppointments(w http.ResponseWriter, r *http.Request) {
	patientID := r.PathValue("id")
	if patientID == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	filter, err := parseAppointmentFilter(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	appointments, err := h.appointments.ListByPatient(r.Context(), patientID, filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	views := attachFacilities(r.Context(), appointments)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": views,
		"count":        len(views),
	})
}

// attachFacilities resolves facilities through the request's dataloader so
// appointments at the same facility cost one directory lookup.
func attachFacilities(ctx context.Context, appointments []*entities.Appointment) []AppointmentView {
	views := make([]AppointmentView, len(appointments))
	for i, a := range appointments {
		views[i] = AppointmentView{Appointment: a}
	}

	l := loaders.For(ctx)
	if l == nil || len(appointments) == 0 {
		return views
	}

	ids := make([]string, 0, len(appointments))
	for _, a := range appointments {
		if a.FacilityID != "" {
			ids = append(ids, a.FacilityID)
		}
	}
	facilities, errs := l.FacilityLoader.LoadMany(ctx, ids)()

	next := 0
	for i, a := range appointments {
		if a.FacilityID == "" {
			continue
		}
		if len(errs) > next && errs[next] != nil {
			log.Debug().Err(errs[next]).Str("facility_id", a.FacilityID).Msg("facility not resolved for appointment")
		} else if next < len(facilities) {
			views[i].Facility = facilities[next]
		}
		next++
	}
	return views
}

func parseAppointmentFilter(r *http.Request) (repositories.AppointmentFilter, error) {
	query := r.URL.Query()
	filter := repositories.AppointmentFilter{Limit: defaultAppointmentLimit}

	switch status := entities.AppointmentStatus(query.Get("status")); status {
	case "":
	case entities.AppointmentStatusPending, entities.AppointmentStatusConfirmed, entities.AppointmentStatusCancelled:
		filter.Status = status
	default:
		return filter, apperrors.NewValidationError("status must be one of pending, confirmed, cancelled")
	}

	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, apperrors.NewValidationError(name + " must be an RFC3339 timestamp")
		}
		*dst = &t
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, apperrors.NewValidationError("invalid limit parameter")
		}
		filter.Limit = min(limit, maxAppointmentLimit)
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, apperrors.NewValidationError("invalid offset parameter")
		}
		filter.Offset = offset
	}
	return filter, nil
}
