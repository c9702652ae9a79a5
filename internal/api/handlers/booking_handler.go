package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/Patientbookingtriage/internal/application/services"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
)

// BookingService is the session-based booking flow behind the handler
type BookingService interface {
	Start(ctx context.Context, patientID string, hint *providers.LocationHint) (*services.BookingView, error)
	Get(ctx context.Context, sessionID string) (*services.BookingView, error)
	SelectSpecialty(ctx context.Context, sessionID, specialty string) (*services.BookingView, error)
	SelectFacility(ctx context.Context, sessionID, facilityID string) (*services.BookingView, error)
	SelectDate(ctx context.Context, sessionID string, date time.Time) (*services.BookingView, error)
	UpdateLocation(ctx context.Context, sessionID string, hint providers.LocationHint) (*services.BookingView, error)
	Answer(ctx context.Context, sessionID, questionID string, answer entities.TriageAnswer) (*services.BookingView, error)
	CompleteTriage(ctx context.Context, sessionID string) (*services.BookingView, error)
	GoBack(ctx context.Context, sessionID string, target entities.BookingState) (*services.BookingView, error)
	Confirm(ctx context.Context, sessionID string) (*services.BookingView, error)
	Abandon(ctx context.Context, sessionID string) error
}

// BookingHandler handles booking session HTTP requests
type BookingHandler struct {
	service BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

type startBookingRequest struct {
	PatientID string                  `json:"patient_id" validate:"required"`
	Location  *providers.LocationHint `json:"location,omitempty"`
}

type selectSpecialtyRequest struct {
	Specialty string `json:"specialty" validate:"required"`
}

type selectFacilityRequest struct {
	FacilityID string `json:"facility_id" validate:"required"`
}

type selectDateRequest struct {
	Date time.Time `json:"date" validate:"required"`
}

type answerRequest struct {
	Answer entities.TriageAnswer `json:"answer"`
}

type goBackRequest struct {
	State entities.BookingState `json:"state" validate:"required,oneof=selecting_specialty selecting_facility selecting_date triage"`
}

// StartBooking handles POST /api/bookings
func (h *BookingHandler) StartBooking(w http.ResponseWriter, r *http.Request) {
	var req startBookingRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	view, err := h.service.Start(r.Context(), req.PatientID, req.Location)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, view)
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), r.PathValue("id"))
	h.respond(w, r, view, err)
}

// SelectSpecialty handles PUT /api/bookings/{id}/specialty
func (h *BookingHandler) SelectSpecialty(w http.ResponseWriter, r *http.Request) {
	var req selectSpecialtyRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	view, err := h.service.SelectSpecialty(r.Context(), r.PathValue("id"), req.Specialty)
	h.respond(w, r, view, err)
}

// SelectFacility handles PUT /api/bookings/{id}/facility
func (h *BookingHandler) SelectFacility(w http.ResponseWriter, r *http.Request) {
	var req selectFacilityRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	view, err := h.service.SelectFacility(r.Context(), r.PathValue("id"), req.FacilityID)
	h.respond(w, r, view, err)
}

// SelectDate handles PUT /api/bookings/{id}/date
func (h *BookingHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req selectDateRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	view, err := h.service.SelectDate(r.Context(), r.PathValue("id"), req.Date)
	h.respond(w, r, view, err)
}

// UpdateLocation handles PUT /api/bookings/{id}/location
func (h *BookingHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var hint providers.LocationHint
	if err := decodeAndValidate(r, &hint, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	view, err := h.service.UpdateLocation(r.Context(), r.PathValue("id"), hint)
	h.respond(w, r, view, err)
}

// AnswerQuestion handles PUT /api/bookings/{id}/answers/{questionId}
func (h *BookingHandler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	view, err := h.service.Answer(r.Context(), r.PathValue("id"), r.PathValue("questionId"), req.Answer)
	h.respond(w, r, view, err)
}

// CompleteTriage handles POST /api/bookings/{id}/triage/complete
func (h *BookingHandler) CompleteTriage(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.CompleteTriage(r.Context(), r.PathValue("id"))
	h.respond(w, r, view, err)
}

// GoBack handles POST /api/bookings/{id}/back
func (h *BookingHandler) GoBack(w http.ResponseWriter, r *http.Request) {
	var req goBackRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	view, err := h.service.GoBack(r.Context(), r.PathValue("id"), req.State)
	h.respond(w, r, view, err)
}

// Confirm handles POST /api/bookings/{id}/confirm
func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Confirm(r.Context(), r.PathValue("id"))
	h.respond(w, r, view, err)
}

// AbandonBooking handles DELETE /api/bookings/{id}
func (h *BookingHandler) AbandonBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Abandon(r.Context(), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BookingHandler) respond(w http.ResponseWriter, r *http.Request, view *services.BookingView, err error) {
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}
