package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

// BookingService runs booking workflows for patient sessions. Each call
// loads the session, applies one workflow operation and saves the result
// only when the operation succeeded.
type BookingService struct {
	sessions   repositories.SessionRepository
	catalog    *CatalogService
	scorer     *UrgencyScorer
	locator    providers.LocationProvider
	gateway    providers.BookingGateway
	eventBus   providers.EventBus
	sessionTTL time.Duration
	now        func() time.Time
}

// NewBookingService creates a booking service. locator and eventBus may be nil.
func NewBookingService(
	sessions repositories.SessionRepository,
	catalog *CatalogService,
	scorer *UrgencyScorer,
	locator providers.LocationProvider,
	gateway providers.BookingGateway,
	eventBus providers.EventBus,
	sessionTTL time.Duration,
) *BookingService {
	return &BookingService{
		sessions:   sessions,
		catalog:    catalog,
		scorer:     scorer,
		locator:    locator,
		gateway:    gateway,
		eventBus:   eventBus,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// SetClock overrides the time source, for tests
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

// BookingView is what a patient sees of a booking session
type BookingView struct {
	SessionID       string                    `json:"session_id"`
	PatientID       string                    `json:"patient_id"`
	State           entities.BookingState     `json:"state"`
	Specialty       string                    `json:"specialty,omitempty"`
	Facility        *entities.Facility        `json:"facility,omitempty"`
	Date            *time.Time                `json:"date,omitempty"`
	DateIssue       apperrors.Reason          `json:"date_issue,omitempty"`
	DateMessage     string                    `json:"date_message,omitempty"`
	Ranked          []entities.RankedFacility `json:"ranked_facilities,omitempty"`
	AvailableDates  []time.Time               `json:"available_dates,omitempty"`
	LocationIssue   apperrors.Reason          `json:"location_issue,omitempty"`
	LocationMessage string                    `json:"location_message,omitempty"`
	Responses       entities.TriageResponse   `json:"responses,omitempty"`
	Score           *entities.UrgencyScore    `json:"score,omitempty"`
	AppointmentID   string                    `json:"appointment_id,omitempty"`
	Appointment     *entities.Appointment     `json:"appointment,omitempty"`
}

// Start opens a session for patientID. The facility directory is loaded up
// front and the patient is located when a hint is given.
func (s *BookingService) Start(ctx context.Context, patientID string, hint *providers.LocationHint) (*BookingView, error) {
	ctx, span := startSpan(ctx, "BookingService.Start")
	defer span.End()

	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, apperrors.NewValidationError("patient id is required")
	}

	matcher, err := s.catalog.Matcher(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	wf := NewBookingWorkflow(matcher, s.scorer, s.now)
	if hint != nil {
		s.locate(ctx, wf, *hint)
	}

	now := s.now().UTC()
	session := &entities.BookingSession{
		ID:        uuid.NewString(),
		PatientID: patientID,
		CreatedAt: now,
	}
	if err := s.save(ctx, session, wf); err != nil {
		return nil, err
	}

	log.Info().Str("session_id", session.ID).Str("patient_id", patientID).Msg("booking session started")
	return s.view(session, wf), nil
}

// Get returns the current view of a session
func (s *BookingService) Get(ctx context.Context, sessionID string) (*BookingView, error) {
	session, wf, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(session, wf), nil
}

// SelectSpecialty reloads the directory when stale and ranks the facilities for specialty
func (s *BookingService) SelectSpecialty(ctx context.Context, sessionID, specialty string) (*BookingView, error) {
	ctx, span := startSpan(ctx, "BookingService.SelectSpecialty", attribute.String("booking.specialty", specialty))
	defer span.End()

	return s.apply(ctx, sessionID, true, func(wf *BookingWorkflow) error {
		_, err := wf.SelectSpecialty(specialty)
		return err
	})
}

// SelectFacility chooses a facility from the session's ranking
func (s *BookingService) SelectFacility(ctx context.Context, sessionID, facilityID string) (*BookingView, error) {
	return s.apply(ctx, sessionID, false, func(wf *BookingWorkflow) error {
		return wf.SelectFacility(facilityID)
	})
}

// SelectDate chooses an appointment date
func (s *BookingService) SelectDate(ctx context.Context, sessionID string, date time.Time) (*BookingView, error) {
	return s.apply(ctx, sessionID, false, func(wf *BookingWorkflow) error {
		return wf.SelectDate(date)
	})
}

// UpdateLocation locates the patient again. Location failures never fail
// the call; the ranking falls back to catalog order and the view says why.
func (s *BookingService) UpdateLocation(ctx context.Context, sessionID string, hint providers.LocationHint) (*BookingView, error) {
	return s.apply(ctx, sessionID, false, func(wf *BookingWorkflow) error {
		s.locate(ctx, wf, hint)
		return nil
	})
}

// Answer records a triage answer
func (s *BookingService) Answer(ctx context.Context, sessionID, questionID string, answer entities.TriageAnswer) (*BookingView, error) {
	return s.apply(ctx, sessionID, false, func(wf *BookingWorkflow) error {
		return wf.Answer(questionID, answer)
	})
}

// CompleteTriage scores the session's triage answers
func (s *BookingService) CompleteTriage(ctx context.Context, sessionID string) (*BookingView, error) {
	ctx, span := startSpan(ctx, "BookingService.CompleteTriage")
	defer span.End()

	return s.apply(ctx, sessionID, false, func(wf *BookingWorkflow) error {
		score, err := wf.CompleteTriage()
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.String("triage.label", string(score.Label)), attribute.Int("triage.points", score.Points))
		recordScore(ctx, score)
		return nil
	})
}

// GoBack returns the session to an earlier state
func (s *BookingService) GoBack(ctx context.Context, sessionID string, target entities.BookingState) (*BookingView, error) {
	return s.apply(ctx, sessionID, false, func(wf *BookingWorkflow) error {
		return wf.GoBack(target)
	})
}

// Confirm submits the booking request. Submission is attempted once; on
// failure the session stays in Triage so the patient can retry. The session
// ID is the idempotency key, so a retried confirm never books twice.
func (s *BookingService) Confirm(ctx context.Context, sessionID string) (*BookingView, error) {
	ctx, span := startSpan(ctx, "BookingService.Confirm")
	defer span.End()

	session, wf, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	req, err := wf.Confirm(session.PatientID)
	if err != nil {
		recordRefusal(ctx, err)
		return nil, err
	}
	req.IdempotencyKey = session.ID

	appointment, err := s.gateway.Submit(ctx, req)
	if err != nil {
		span.RecordError(err)
		reason := apperrors.ReasonBookingUnavailable
		if errors.Is(err, providers.ErrBookingRejected) {
			reason = apperrors.ReasonBookingRejected
		}
		recordBookingOutcome(ctx, strings.ToLower(string(reason)))
		log.Warn().Err(err).Str("session_id", sessionID).Str("reason", string(reason)).Msg("booking submission failed")
		return nil, apperrors.NewCollaboratorError(reason, err)
	}

	if err := wf.MarkBooked(appointment); err != nil {
		return nil, apperrors.NewCollaboratorError(apperrors.ReasonBookingRejected, err)
	}
	// The appointment exists at this point. A stale session only means a
	// retry resubmits under the same idempotency key.
	if err := s.save(ctx, session, wf); err != nil {
		span.RecordError(err)
		log.Error().Err(err).
			Str("session_id", sessionID).
			Str("appointment_id", appointment.ID).
			Msg("booking confirmed but session could not be saved")
	}
	recordBookingOutcome(ctx, "accepted")
	s.publishConfirmed(ctx, session, req, appointment)

	log.Info().
		Str("session_id", sessionID).
		Str("appointment_id", appointment.ID).
		Str("urgency", string(req.UrgencyLabel)).
		Msg("booking confirmed")

	view := s.view(session, wf)
	view.Appointment = appointment
	return view, nil
}

// Abandon discards the session. Nothing external has been changed before
// confirmation, so there is nothing to undo.
func (s *BookingService) Abandon(ctx context.Context, sessionID string) error {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sessionID)
}

// apply runs op on the session's workflow and saves it when op succeeds.
// refreshCatalog swaps in the latest catalog before op runs.
func (s *BookingService) apply(ctx context.Context, sessionID string, refreshCatalog bool, op func(*BookingWorkflow) error) (*BookingView, error) {
	session, wf, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if refreshCatalog {
		matcher, err := s.catalog.Matcher(ctx)
		if err != nil {
			return nil, err
		}
		wf.UseMatcher(matcher)
	}

	if err := op(wf); err != nil {
		recordRefusal(ctx, err)
		return nil, err
	}
	if err := s.save(ctx, session, wf); err != nil {
		return nil, err
	}
	return s.view(session, wf), nil
}

func (s *BookingService) load(ctx context.Context, sessionID string) (*entities.BookingSession, *BookingWorkflow, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	matcher, err := s.catalog.Matcher(ctx)
	if err != nil {
		return nil, nil, err
	}
	return session, RestoreBookingWorkflow(matcher, s.scorer, session.Workflow, s.now), nil
}

func (s *BookingService) save(ctx context.Context, session *entities.BookingSession, wf *BookingWorkflow) error {
	session.Workflow = wf.Snapshot()
	session.UpdatedAt = s.now().UTC()
	if err := s.sessions.Save(ctx, session, s.sessionTTL); err != nil {
		return apperrors.NewInternalError("failed to save booking session", err)
	}
	return nil
}

func (s *BookingService) locate(ctx context.Context, wf *BookingWorkflow, hint providers.LocationHint) {
	if s.locator == nil {
		wf.LocationUnavailable(apperrors.ReasonLocationUnavailable)
		return
	}

	loc, err := s.locator.Locate(ctx, hint)
	switch {
	case err == nil && loc != nil:
		wf.SetLocation(*loc)
	case errors.Is(err, providers.ErrLocationDenied):
		wf.LocationUnavailable(apperrors.ReasonLocationDenied)
	default:
		if err != nil && !errors.Is(err, providers.ErrLocationUnavailable) {
			log.Warn().Err(err).Msg("patient location lookup failed")
		}
		wf.LocationUnavailable(apperrors.ReasonLocationUnavailable)
	}
}

func (s *BookingService) publishConfirmed(ctx context.Context, session *entities.BookingSession, req *entities.BookingRequest, appointment *entities.Appointment) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewDomainEvent(entities.DomainEventBookingConfirmed, appointment.ID, map[string]interface{}{
		"session_id":    session.ID,
		"patient_id":    req.PatientID,
		"facility_id":   req.FacilityID,
		"facility_name": req.FacilityName,
		"date_time":     req.DateTime.Format(time.RFC3339),
		"urgency_label": string(req.UrgencyLabel),
	})
	if err := s.eventBus.Publish(ctx, providers.EventChannelBookingConfirmed, event); err != nil {
		log.Warn().Err(err).Str("appointment_id", appointment.ID).Msg("failed to publish booking confirmation")
	}
}

func (s *BookingService) view(session *entities.BookingSession, wf *BookingWorkflow) *BookingView {
	v := &BookingView{
		SessionID:     session.ID,
		PatientID:     session.PatientID,
		State:         wf.State(),
		Specialty:     wf.Specialty(),
		Ranked:        wf.Ranked(),
		LocationIssue: wf.LocationIssue(),
		Responses:     wf.Responses(),
		AppointmentID: wf.AppointmentID(),
	}
	if v.LocationIssue != "" {
		v.LocationMessage = v.LocationIssue.Message()
	}
	if id := wf.FacilityID(); id != "" {
		for _, r := range v.Ranked {
			if r.Facility.ID == id {
				v.Facility = r.Facility
				break
			}
		}
		if dates, err := wf.AvailableDates(); err == nil {
			v.AvailableDates = dates
		}
	}
	if d, ok := wf.Date(); ok {
		v.Date = &d
	} else if wf.DateWithdrawn() {
		v.DateIssue = apperrors.ReasonDateNotOffered
		v.DateMessage = v.DateIssue.Message()
	}
	if score, ok := wf.Score(); ok {
		v.Score = &score
	}
	return v
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}
