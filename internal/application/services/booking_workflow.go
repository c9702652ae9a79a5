package services

import (
	"strings"
	"time"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
	"github.com/zatekoja/Patientbookingtriage/pkg/utils"
)

// BookingWorkflow drives one patient through specialty, facility, date and
// triage selection up to a confirmed booking. Every operation either applies
// completely or refuses with a reason and leaves the workflow untouched.
// A workflow belongs to a single session and is not safe for concurrent use.
type BookingWorkflow struct {
	matcher *FacilityMatcher
	scorer  *UrgencyScorer
	now     func() time.Time

	state         entities.BookingState
	specialty     string
	facilityID    string
	date          *time.Time
	dateWithdrawn bool
	patient       *entities.Location
	locationIssue apperrors.Reason
	ranked        []entities.RankedFacility
	responses     entities.TriageResponse
	score         *entities.UrgencyScore
	appointmentID string
}

// NewBookingWorkflow starts a workflow in SelectingSpecialty. A nil clock uses time.Now.
func NewBookingWorkflow(matcher *FacilityMatcher, scorer *UrgencyScorer, now func() time.Time) *BookingWorkflow {
	if now == nil {
		now = time.Now
	}
	return &BookingWorkflow{
		matcher:   matcher,
		scorer:    scorer,
		now:       now,
		state:     entities.BookingStateSelectingSpecialty,
		responses: entities.TriageResponse{},
	}
}

// RestoreBookingWorkflow rebuilds a workflow from a snapshot against the
// current catalog. A facility that left the catalog is deselected together
// with its date; a date the facility no longer offers is deselected alone.
func RestoreBookingWorkflow(matcher *FacilityMatcher, scorer *UrgencyScorer, snap entities.WorkflowSnapshot, now func() time.Time) *BookingWorkflow {
	w := NewBookingWorkflow(matcher, scorer, now)
	if snap.State.Position() >= 0 {
		w.state = snap.State
	}
	w.specialty = snap.Specialty
	w.facilityID = snap.FacilityID
	if snap.Date != nil {
		d := *snap.Date
		w.date = &d
	}
	w.dateWithdrawn = snap.DateWithdrawn
	if snap.PatientLocation != nil {
		loc := *snap.PatientLocation
		w.patient = &loc
	}
	w.locationIssue = apperrors.Reason(snap.LocationIssue)
	if snap.Responses != nil {
		w.responses = snap.Responses.Clone()
	}
	if snap.Score != nil {
		score := *snap.Score
		w.score = &score
	}
	w.appointmentID = snap.AppointmentID

	w.rerank()
	return w
}

// Snapshot returns the serializable state of the workflow
func (w *BookingWorkflow) Snapshot() entities.WorkflowSnapshot {
	snap := entities.WorkflowSnapshot{
		State:         w.state,
		Specialty:     w.specialty,
		FacilityID:    w.facilityID,
		DateWithdrawn: w.dateWithdrawn,
		LocationIssue: string(w.locationIssue),
		Responses:     w.responses.Clone(),
		AppointmentID: w.appointmentID,
	}
	if w.date != nil {
		d := *w.date
		snap.Date = &d
	}
	if w.patient != nil {
		loc := *w.patient
		snap.PatientLocation = &loc
	}
	if w.score != nil {
		score := *w.score
		snap.Score = &score
	}
	return snap
}

func (w *BookingWorkflow) State() entities.BookingState { return w.state }

func (w *BookingWorkflow) Specialty() string { return w.specialty }

func (w *BookingWorkflow) FacilityID() string { return w.facilityID }

// Date returns the chosen appointment date
func (w *BookingWorkflow) Date() (time.Time, bool) {
	if w.date == nil {
		return time.Time{}, false
	}
	return *w.date, true
}

// DateWithdrawn reports whether the chosen date was dropped because the
// facility stopped offering it
func (w *BookingWorkflow) DateWithdrawn() bool { return w.dateWithdrawn }

// Ranked returns the current facility ranking for the chosen specialty
func (w *BookingWorkflow) Ranked() []entities.RankedFacility {
	out := make([]entities.RankedFacility, len(w.ranked))
	copy(out, w.ranked)
	return out
}

// Responses returns a copy of the triage answers given so far
func (w *BookingWorkflow) Responses() entities.TriageResponse {
	return w.responses.Clone()
}

// Score returns the urgency computed by CompleteTriage, if any
func (w *BookingWorkflow) Score() (entities.UrgencyScore, bool) {
	if w.score == nil {
		return entities.UrgencyScore{}, false
	}
	return *w.score, true
}

// LocationIssue returns why the ranking has no distances, or "" when it has them
func (w *BookingWorkflow) LocationIssue() apperrors.Reason { return w.locationIssue }

// AppointmentID returns the appointment created for a confirmed workflow
func (w *BookingWorkflow) AppointmentID() string { return w.appointmentID }

// SelectSpecialty ranks the facilities for specialty and moves to
// SelectingFacility. Any previously chosen facility and date are cleared.
func (w *BookingWorkflow) SelectSpecialty(specialty string) ([]entities.RankedFacility, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	specialty = strings.TrimSpace(specialty)
	if specialty == "" {
		return nil, apperrors.NewRefusal(apperrors.ReasonSpecialtyRequired)
	}

	ranked := w.matcher.Rank(specialty, w.patient)
	if len(ranked) == 0 {
		return nil, apperrors.NewRefusal(apperrors.ReasonNoFacilityForSpecialty)
	}

	w.specialty = specialty
	w.ranked = ranked
	w.facilityID = ""
	w.date = nil
	w.dateWithdrawn = false
	w.state = entities.BookingStateSelectingFacility
	return w.Ranked(), nil
}

// SelectFacility chooses one of the ranked facilities and moves to
// SelectingDate. Choosing a different facility clears the chosen date.
func (w *BookingWorkflow) SelectFacility(facilityID string) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if err := w.precondition(entities.BookingStateSelectingFacility); err != nil {
		return err
	}

	facility := w.rankedFacility(facilityID)
	if facility == nil {
		return apperrors.NewRefusal(apperrors.ReasonFacilityNotOffered)
	}
	if len(w.futureDates(facility)) == 0 {
		return apperrors.NewRefusal(apperrors.ReasonNoDatesAvailable)
	}

	if facilityID != w.facilityID {
		w.date = nil
		w.dateWithdrawn = false
	}
	w.facilityID = facilityID
	w.state = entities.BookingStateSelectingDate
	return nil
}

// AvailableDates returns the upcoming dates the chosen facility offers for the specialty
func (w *BookingWorkflow) AvailableDates() ([]time.Time, error) {
	if err := w.precondition(entities.BookingStateSelectingDate); err != nil {
		return nil, err
	}
	facility := w.rankedFacility(w.facilityID)
	if facility == nil {
		return nil, apperrors.NewRefusal(apperrors.ReasonFacilityRequired)
	}
	return w.futureDates(facility), nil
}

// SelectDate chooses one of the available dates and moves to Triage
func (w *BookingWorkflow) SelectDate(date time.Time) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	dates, err := w.AvailableDates()
	if err != nil {
		return err
	}

	for _, d := range dates {
		if d.Equal(date) {
			chosen := d
			w.date = &chosen
			w.dateWithdrawn = false
			w.state = entities.BookingStateTriage
			return nil
		}
	}
	return apperrors.NewRefusal(apperrors.ReasonDateNotOffered)
}

// Answer records the answer to one triage question. A blank answer removes
// the previous one. Any computed score is invalidated.
func (w *BookingWorkflow) Answer(questionID string, answer entities.TriageAnswer) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if err := w.precondition(entities.BookingStateTriage); err != nil {
		return err
	}
	if _, known := w.scorer.Question(questionID); !known || !answer.IsEmpty() {
		if err := w.scorer.ValidateAnswer(questionID, answer); err != nil {
			return err
		}
	}

	if answer.IsEmpty() {
		delete(w.responses, questionID)
	} else {
		w.responses[questionID] = answer
	}

	w.score = nil
	w.state = entities.BookingStateTriage
	return nil
}

// CompleteTriage scores the answers given so far. Unanswered questions count zero.
func (w *BookingWorkflow) CompleteTriage() (entities.UrgencyScore, error) {
	if err := w.checkOpen(); err != nil {
		return entities.UrgencyScore{}, err
	}
	if err := w.precondition(entities.BookingStateTriage); err != nil {
		return entities.UrgencyScore{}, err
	}

	score := w.scorer.Score(w.responses)
	w.score = &score
	w.state = entities.BookingStateTriage
	return score, nil
}

// Confirm assembles the booking request for patientID. The workflow stays
// in Triage until MarkBooked records the collaborator's acceptance.
func (w *BookingWorkflow) Confirm(patientID string) (*entities.BookingRequest, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}
	if err := w.precondition(entities.BookingStateConfirmed); err != nil {
		return nil, err
	}
	if w.state != entities.BookingStateTriage {
		return nil, apperrors.NewRefusal(apperrors.ReasonInvalidTransition)
	}

	facility := w.rankedFacility(w.facilityID)
	if facility == nil {
		return nil, apperrors.NewRefusal(apperrors.ReasonFacilityRequired)
	}
	if !w.dateOffered(*w.date) {
		return nil, apperrors.NewRefusal(apperrors.ReasonDateNotOffered)
	}

	req := &entities.BookingRequest{
		PatientID:     strings.TrimSpace(patientID),
		DateTime:      *w.date,
		UrgencyLabel:  w.score.Label,
		FacilityName:  facility.Name,
		FacilityID:    facility.ID,
		Specialty:     w.specialty,
		UrgencyPoints: w.score.Points,
	}
	if err := utils.ValidateStruct(req); err != nil {
		appErr := apperrors.NewValidationError(utils.FormatFirstValidationError(err))
		appErr.Err = err
		return nil, appErr
	}
	return req, nil
}

// MarkBooked records the appointment created for the confirmed request and
// moves to Confirmed. The triage answers are discarded.
func (w *BookingWorkflow) MarkBooked(appointment *entities.Appointment) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	if err := w.precondition(entities.BookingStateConfirmed); err != nil {
		return err
	}
	if w.state != entities.BookingStateTriage {
		return apperrors.NewRefusal(apperrors.ReasonInvalidTransition)
	}
	if appointment == nil || appointment.ID == "" {
		return apperrors.NewValidationError("appointment id is required")
	}

	w.appointmentID = appointment.ID
	w.responses = entities.TriageResponse{}
	w.state = entities.BookingStateConfirmed
	return nil
}

// GoBack returns to an earlier state. Nothing entered so far is discarded.
func (w *BookingWorkflow) GoBack(target entities.BookingState) error {
	if err := w.checkOpen(); err != nil {
		return err
	}
	pos := target.Position()
	if pos < 0 || pos > w.state.Position() {
		return apperrors.NewRefusal(apperrors.ReasonInvalidTransition)
	}
	w.state = target
	return nil
}

// SetLocation records the patient position and re-ranks the facilities
func (w *BookingWorkflow) SetLocation(loc entities.Location) {
	w.patient = &loc
	w.locationIssue = ""
	w.rerank()
}

// LocationUnavailable drops the patient position; rankings fall back to
// catalog order and reason explains why.
func (w *BookingWorkflow) LocationUnavailable(reason apperrors.Reason) {
	w.patient = nil
	w.locationIssue = reason
	w.rerank()
}

// UseMatcher swaps in a matcher built from a refreshed catalog and re-ranks
func (w *BookingWorkflow) UseMatcher(matcher *FacilityMatcher) {
	w.matcher = matcher
	w.rerank()
}

// rerank recomputes the ranking for the chosen specialty. Before
// confirmation, a chosen facility that is no longer a candidate is cleared
// along with its date, and a chosen date the facility no longer offers is
// cleared on its own.
func (w *BookingWorkflow) rerank() {
	if w.specialty == "" || w.matcher == nil {
		w.ranked = nil
		return
	}
	w.ranked = w.matcher.Rank(w.specialty, w.patient)

	if w.state == entities.BookingStateConfirmed {
		return
	}
	if w.facilityID != "" && w.rankedFacility(w.facilityID) == nil {
		w.facilityID = ""
		w.date = nil
		w.dateWithdrawn = false
		if w.state.Position() > entities.BookingStateSelectingFacility.Position() {
			w.state = entities.BookingStateSelectingFacility
		}
		return
	}
	if w.date != nil && !w.dateOffered(*w.date) {
		w.date = nil
		w.dateWithdrawn = true
		if w.state.Position() > entities.BookingStateSelectingDate.Position() {
			w.state = entities.BookingStateSelectingDate
		}
	}
}

// precondition checks that the data required to be in target is present
func (w *BookingWorkflow) precondition(target entities.BookingState) error {
	pos := target.Position()
	switch {
	case pos >= entities.BookingStateSelectingFacility.Position() && w.specialty == "":
		return apperrors.NewRefusal(apperrors.ReasonSpecialtyRequired)
	case pos >= entities.BookingStateSelectingDate.Position() && w.facilityID == "":
		return apperrors.NewRefusal(apperrors.ReasonFacilityRequired)
	case pos >= entities.BookingStateTriage.Position() && w.date == nil && w.dateWithdrawn:
		return apperrors.NewRefusal(apperrors.ReasonDateNotOffered)
	case pos >= entities.BookingStateTriage.Position() && w.date == nil:
		return apperrors.NewRefusal(apperrors.ReasonDateRequired)
	case pos >= entities.BookingStateConfirmed.Position() && w.score == nil:
		return apperrors.NewRefusal(apperrors.ReasonTriageIncomplete)
	}
	return nil
}

func (w *BookingWorkflow) checkOpen() error {
	if w.state == entities.BookingStateConfirmed {
		return apperrors.NewRefusal(apperrors.ReasonAlreadyConfirmed)
	}
	return nil
}

func (w *BookingWorkflow) rankedFacility(id string) *entities.Facility {
	if id == "" {
		return nil
	}
	for _, r := range w.ranked {
		if r.Facility.ID == id {
			return r.Facility
		}
	}
	return nil
}

// dateOffered reports whether the chosen facility still offers d as an
// upcoming date for the specialty
func (w *BookingWorkflow) dateOffered(d time.Time) bool {
	facility := w.rankedFacility(w.facilityID)
	if facility == nil {
		return false
	}
	for _, offered := range w.futureDates(facility) {
		if offered.Equal(d) {
			return true
		}
	}
	return false
}

func (w *BookingWorkflow) futureDates(f *entities.Facility) []time.Time {
	now := w.now()
	var out []time.Time
	for _, d := range f.DatesFor(w.specialty) {
		if d.After(now) {
			out = append(out, d)
		}
	}
	return out
}
