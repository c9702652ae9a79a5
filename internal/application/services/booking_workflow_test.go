package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Patientbookingtriage/internal/application/services"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

func assertRefused(t *testing.T, err error, reason apperrors.Reason) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, reason, apperrors.ReasonOf(err))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation), "expected a validation error, got %v", err)
}

// workflowInTriage returns a workflow with Cardiologia, Hospital A and day1 chosen
func workflowInTriage(t *testing.T) *services.BookingWorkflow {
	t.Helper()
	wf := newTestWorkflow()
	_, err := wf.SelectSpecialty("Cardiologia")
	require.NoError(t, err)
	require.NoError(t, wf.SelectFacility("fac-a"))
	require.NoError(t, wf.SelectDate(day1))
	require.Equal(t, entities.BookingStateTriage, wf.State())
	return wf
}

func TestBookingWorkflow_HappyPath(t *testing.T) {
	wf := newTestWorkflow()
	wf.SetLocation(entities.Location{Latitude: -8.839, Longitude: 13.289})
	assert.Equal(t, entities.BookingStateSelectingSpecialty, wf.State())

	ranked, err := wf.SelectSpecialty(" Cardiologia ")
	require.NoError(t, err)
	assert.Equal(t, []string{"fac-a", "fac-b", "fac-c"}, facilityIDs(ranked))
	assert.Equal(t, entities.BookingStateSelectingFacility, wf.State())

	require.NoError(t, wf.SelectFacility("fac-a"))
	assert.Equal(t, entities.BookingStateSelectingDate, wf.State())

	dates, err := wf.AvailableDates()
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day1, day2}, dates)

	require.NoError(t, wf.SelectDate(day1))
	assert.Equal(t, entities.BookingStateTriage, wf.State())

	require.NoError(t, wf.Answer(services.QuestionMainSymptom, entities.TextAnswer("dor no peito")))
	require.NoError(t, wf.Answer(services.QuestionPainIntensity, entities.TextAnswer("Forte")))
	score, err := wf.CompleteTriage()
	require.NoError(t, err)
	assert.Equal(t, 6, score.Points)
	assert.Equal(t, entities.UrgencyMedium, score.Label)

	req, err := wf.Confirm("patient-42")
	require.NoError(t, err)
	assert.Equal(t, &entities.BookingRequest{
		PatientID:     "patient-42",
		DateTime:      day1,
		UrgencyLabel:  entities.UrgencyMedium,
		FacilityName:  "Hospital A",
		FacilityID:    "fac-a",
		Specialty:     "Cardiologia",
		UrgencyPoints: 6,
	}, req)
	assert.Equal(t, entities.BookingStateTriage, wf.State())

	require.NoError(t, wf.MarkBooked(&entities.Appointment{ID: "apt-1"}))
	assert.Equal(t, entities.BookingStateConfirmed, wf.State())
	assert.Equal(t, "apt-1", wf.AppointmentID())
	assert.Empty(t, wf.Responses())

	_, err = wf.SelectSpecialty("Pediatria")
	assertRefused(t, err, apperrors.ReasonAlreadyConfirmed)
	_, err = wf.Confirm("patient-42")
	assertRefused(t, err, apperrors.ReasonAlreadyConfirmed)
}

func TestBookingWorkflow_ReselectingSpecialtyClearsFacilityAndDate(t *testing.T) {
	wf := workflowInTriage(t)
	require.NoError(t, wf.Answer(services.QuestionMainSymptom, entities.TextAnswer("febre")))

	_, err := wf.SelectSpecialty("Cardiologia")
	require.NoError(t, err)

	assert.Equal(t, entities.BookingStateSelectingFacility, wf.State())
	assert.Empty(t, wf.FacilityID())
	_, hasDate := wf.Date()
	assert.False(t, hasDate)
	assert.Equal(t, "febre", wf.Responses()[services.QuestionMainSymptom].Text())
}

func TestBookingWorkflow_NoFacilityForSpecialty(t *testing.T) {
	wf := workflowInTriage(t)

	_, err := wf.SelectSpecialty("Neurologia")
	assertRefused(t, err, apperrors.ReasonNoFacilityForSpecialty)

	assert.Equal(t, entities.BookingStateTriage, wf.State())
	assert.Equal(t, "Cardiologia", wf.Specialty())
	assert.Equal(t, "fac-a", wf.FacilityID())
}

func TestBookingWorkflow_FacilityWithoutUpcomingDates(t *testing.T) {
	wf := newTestWorkflow()
	_, err := wf.SelectSpecialty("Cardiologia")
	require.NoError(t, err)

	err = wf.SelectFacility("fac-c")
	assertRefused(t, err, apperrors.ReasonNoDatesAvailable)
	assert.Equal(t, entities.BookingStateSelectingFacility, wf.State())
	assert.Empty(t, wf.FacilityID())

	err = wf.SelectFacility("fac-d")
	assertRefused(t, err, apperrors.ReasonFacilityNotOffered)
}

func TestBookingWorkflow_Preconditions(t *testing.T) {
	wf := newTestWorkflow()

	assertRefused(t, wf.SelectFacility("fac-a"), apperrors.ReasonSpecialtyRequired)
	_, err := wf.SelectSpecialty("   ")
	assertRefused(t, err, apperrors.ReasonSpecialtyRequired)

	_, err = wf.SelectSpecialty("Cardiologia")
	require.NoError(t, err)
	assertRefused(t, wf.SelectDate(day1), apperrors.ReasonFacilityRequired)
	assertRefused(t, wf.Answer(services.QuestionMainSymptom, entities.TextAnswer("x")), apperrors.ReasonFacilityRequired)

	require.NoError(t, wf.SelectFacility("fac-a"))
	assertRefused(t, wf.Answer(services.QuestionMainSymptom, entities.TextAnswer("x")), apperrors.ReasonDateRequired)
	_, err = wf.CompleteTriage()
	assertRefused(t, err, apperrors.ReasonDateRequired)
	assertRefused(t, wf.SelectDate(pastDay), apperrors.ReasonDateNotOffered)
	assertRefused(t, wf.SelectDate(day1.Add(time.Hour)), apperrors.ReasonDateNotOffered)
	assert.Equal(t, entities.BookingStateSelectingDate, wf.State())
}

func TestBookingWorkflow_ConfirmBeforeTriageFails(t *testing.T) {
	wf := newTestWorkflow()
	req, err := wf.Confirm("patient-1")
	assert.Nil(t, req)
	assertRefused(t, err, apperrors.ReasonSpecialtyRequired)

	wf = workflowInTriage(t)
	require.NoError(t, wf.Answer(services.QuestionPainIntensity, entities.TextAnswer("Leve")))

	req, err = wf.Confirm("patient-1")
	assert.Nil(t, req)
	assertRefused(t, err, apperrors.ReasonTriageIncomplete)
	assert.Equal(t, entities.BookingStateTriage, wf.State())
}

func TestBookingWorkflow_PartialTriageCanConfirm(t *testing.T) {
	wf := workflowInTriage(t)

	score, err := wf.CompleteTriage()
	require.NoError(t, err)
	assert.Equal(t, entities.UrgencyLow, score.Label)

	req, err := wf.Confirm("patient-1")
	require.NoError(t, err)
	assert.Equal(t, entities.UrgencyLow, req.UrgencyLabel)
}

func TestBookingWorkflow_AnswerInvalidatesScore(t *testing.T) {
	wf := workflowInTriage(t)
	_, err := wf.CompleteTriage()
	require.NoError(t, err)

	require.NoError(t, wf.Answer(services.QuestionPainIntensity, entities.TextAnswer("Forte")))
	_, ok := wf.Score()
	assert.False(t, ok)

	_, err = wf.Confirm("patient-1")
	assertRefused(t, err, apperrors.ReasonTriageIncomplete)
}

func TestBookingWorkflow_AnswerValidation(t *testing.T) {
	wf := workflowInTriage(t)

	assertRefused(t, wf.Answer(services.QuestionPainIntensity, entities.TextAnswer("Enorme")), apperrors.ReasonInvalidAnswer)
	assertRefused(t, wf.Answer("unknown", entities.TextAnswer("")), apperrors.ReasonInvalidAnswer)

	require.NoError(t, wf.Answer(services.QuestionMainSymptom, entities.TextAnswer("febre")))
	require.NoError(t, wf.Answer(services.QuestionMainSymptom, entities.TextAnswer("  ")))
	assert.NotContains(t, wf.Responses(), services.QuestionMainSymptom)
}

func TestBookingWorkflow_GoBackKeepsData(t *testing.T) {
	wf := workflowInTriage(t)
	require.NoError(t, wf.Answer(services.QuestionDailyImpact, entities.TextAnswer("dificuldade")))
	_, err := wf.CompleteTriage()
	require.NoError(t, err)

	require.NoError(t, wf.GoBack(entities.BookingStateSelectingFacility))
	assert.Equal(t, entities.BookingStateSelectingFacility, wf.State())
	assert.Equal(t, "fac-a", wf.FacilityID())
	date, ok := wf.Date()
	assert.True(t, ok)
	assert.Equal(t, day1, date)
	assert.Len(t, wf.Responses(), 1)
	_, scored := wf.Score()
	assert.True(t, scored)

	assertRefused(t, wf.GoBack(entities.BookingStateTriage), apperrors.ReasonInvalidTransition)
	assertRefused(t, wf.GoBack(entities.BookingState("elsewhere")), apperrors.ReasonInvalidTransition)

	_, err = wf.Confirm("patient-1")
	assertRefused(t, err, apperrors.ReasonInvalidTransition)

	require.NoError(t, wf.SelectFacility("fac-a"))
	date, ok = wf.Date()
	assert.True(t, ok)
	assert.Equal(t, day1, date)

	require.NoError(t, wf.SelectDate(day1))
	_, err = wf.Confirm("patient-1")
	assert.NoError(t, err)
}

func TestBookingWorkflow_ChangingFacilityClearsDate(t *testing.T) {
	wf := workflowInTriage(t)
	require.NoError(t, wf.GoBack(entities.BookingStateSelectingFacility))

	require.NoError(t, wf.SelectFacility("fac-b"))

	_, ok := wf.Date()
	assert.False(t, ok)
	dates, err := wf.AvailableDates()
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day2}, dates)
}

func TestBookingWorkflow_LocationFallback(t *testing.T) {
	wf := newTestWorkflow()
	wf.SetLocation(entities.Location{Latitude: -8.839, Longitude: 13.289})
	_, err := wf.SelectSpecialty("Cardiologia")
	require.NoError(t, err)
	assert.Equal(t, []string{"fac-a", "fac-b", "fac-c"}, facilityIDs(wf.Ranked()))

	wf.LocationUnavailable(apperrors.ReasonLocationDenied)

	assert.Equal(t, apperrors.ReasonLocationDenied, wf.LocationIssue())
	assert.Equal(t, []string{"fac-b", "fac-c", "fac-a"}, facilityIDs(wf.Ranked()))
	for _, r := range wf.Ranked() {
		assert.Nil(t, r.DistanceKm)
	}
}

func TestBookingWorkflow_ConfirmValidatesPatient(t *testing.T) {
	wf := workflowInTriage(t)
	_, err := wf.CompleteTriage()
	require.NoError(t, err)

	_, err = wf.Confirm("  ")
	assertRefused(t, err, apperrors.ReasonInvalidRequest)
	assert.Contains(t, err.Error(), "patientId")
}

func TestBookingWorkflow_MarkBookedRequiresScoreAndID(t *testing.T) {
	wf := workflowInTriage(t)
	assertRefused(t, wf.MarkBooked(&entities.Appointment{ID: "apt"}), apperrors.ReasonTriageIncomplete)

	_, err := wf.CompleteTriage()
	require.NoError(t, err)
	assert.Error(t, wf.MarkBooked(&entities.Appointment{}))
	assert.Equal(t, entities.BookingStateTriage, wf.State())
}

func TestBookingWorkflow_SnapshotRoundTrip(t *testing.T) {
	wf := workflowInTriage(t)
	wf.SetLocation(entities.Location{Latitude: -8.839, Longitude: 13.289})
	require.NoError(t, wf.Answer(services.QuestionAlertSymptoms, entities.ListAnswer("Dor no peito")))
	_, err := wf.CompleteTriage()
	require.NoError(t, err)

	snap := wf.Snapshot()
	restored := services.RestoreBookingWorkflow(newTestMatcher(), services.NewDefaultUrgencyScorer(), snap, clock)

	assert.Equal(t, snap, restored.Snapshot())
	assert.Equal(t, facilityIDs(wf.Ranked()), facilityIDs(restored.Ranked()))

	req, err := restored.Confirm("patient-9")
	require.NoError(t, err)
	assert.Equal(t, entities.UrgencyMedium, req.UrgencyLabel)
}

func TestBookingWorkflow_CatalogRefreshDropsVanishedFacility(t *testing.T) {
	wf := workflowInTriage(t)

	remaining := luandaFacilities()[:2]
	wf.UseMatcher(services.NewFacilityMatcher(services.NewFacilityCatalog(remaining), nil))

	assert.Empty(t, wf.FacilityID())
	_, ok := wf.Date()
	assert.False(t, ok)
	assert.Equal(t, entities.BookingStateSelectingFacility, wf.State())
	assert.Equal(t, []string{"fac-b", "fac-c"}, facilityIDs(wf.Ranked()))
}

func TestBookingWorkflow_CatalogRefreshDropsWithdrawnDate(t *testing.T) {
	wf := workflowInTriage(t)
	_, err := wf.CompleteTriage()
	require.NoError(t, err)

	facilities := luandaFacilities()
	facilities[2].AvailableDates = map[string][]time.Time{"Cardiologia": {day2}}
	wf.UseMatcher(services.NewFacilityMatcher(services.NewFacilityCatalog(facilities), nil))

	assert.Equal(t, "fac-a", wf.FacilityID())
	_, ok := wf.Date()
	assert.False(t, ok)
	assert.Equal(t, entities.BookingStateSelectingDate, wf.State())

	_, err = wf.Confirm("patient-7")
	assertRefused(t, err, apperrors.ReasonDateNotOffered)

	require.NoError(t, wf.SelectDate(day2))
	req, err := wf.Confirm("patient-7")
	require.NoError(t, err)
	assert.Equal(t, day2, req.DateTime)
}

func TestBookingWorkflow_RestoreDropsPastDate(t *testing.T) {
	wf := workflowInTriage(t)
	_, err := wf.CompleteTriage()
	require.NoError(t, err)

	later := func() time.Time { return day1.Add(time.Hour) }
	restored := services.RestoreBookingWorkflow(newTestMatcher(), services.NewDefaultUrgencyScorer(), wf.Snapshot(), later)

	assert.Equal(t, entities.BookingStateSelectingDate, restored.State())
	assert.True(t, restored.Snapshot().DateWithdrawn)
	_, err = restored.Confirm("patient-7")
	assertRefused(t, err, apperrors.ReasonDateNotOffered)

	dates, err := restored.AvailableDates()
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day2}, dates)
}

func TestBookingWorkflow_ConfirmRefusesDateThatHasPassed(t *testing.T) {
	now := fixedNow
	wf := services.NewBookingWorkflow(newTestMatcher(), services.NewDefaultUrgencyScorer(), func() time.Time { return now })
	_, err := wf.SelectSpecialty("Cardiologia")
	require.NoError(t, err)
	require.NoError(t, wf.SelectFacility("fac-a"))
	require.NoError(t, wf.SelectDate(day1))
	_, err = wf.CompleteTriage()
	require.NoError(t, err)

	now = day1.Add(time.Minute)
	_, err = wf.Confirm("patient-7")

	assertRefused(t, err, apperrors.ReasonDateNotOffered)
	assert.Equal(t, entities.BookingStateTriage, wf.State())
}

func TestBookingWorkflow_MarkBookedOutsideTriage(t *testing.T) {
	wf := workflowInTriage(t)
	_, err := wf.CompleteTriage()
	require.NoError(t, err)
	require.NoError(t, wf.GoBack(entities.BookingStateSelectingDate))

	err = wf.MarkBooked(&entities.Appointment{ID: "apt-1"})

	assertRefused(t, err, apperrors.ReasonInvalidTransition)
	assert.Equal(t, entities.BookingStateSelectingDate, wf.State())
	assert.Empty(t, wf.AppointmentID())
}
