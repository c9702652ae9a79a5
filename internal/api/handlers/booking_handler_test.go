package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/Patientbookingtriage/internal/api/handlers"
	"github.com/zatekoja/Patientbookingtriage/internal/application/services"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

// MockBookingService defines the mock service
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) view(args mock.Arguments) (*services.BookingView, error) {
	v, _ := args.Get(0).(*services.BookingView)
	return v, args.Error(1)
}

func (m *MockBookingService) Start(ctx context.Context, patientID string, hint *providers.LocationHint) (*services.BookingView, error) {
	return m.view(m.Called(ctx, patientID, hint))
}

func (m *MockBookingService) Get(ctx context.Context, sessionID string) (*services.BookingView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *MockBookingService) SelectSpecialty(ctx context.Context, sessionID, specialty string) (*services.BookingView, error) {
	return m.view(m.Called(ctx, sessionID, specialty))
}

func (m *MockBookingService) SelectFacility(ctx context.Context, sessionID, facilityID string) (*services.BookingView, error) {
	return m.view(m.Called(ctx, sessionID, facilityID))
}

func (m *MockBookingService) SelectDate(ctx context.Context, sessionID string, date time.Time) (*services.BookingView, error) {
	return m.view(m.Called(ctx, sessionID, date))
}

func (m *MockBookingService) UpdateLocation(ctx context.Context, sessionID string, hint providers.LocationHint) (*services.BookingView, error) {
	return m.view(m.Called(ctx, sessionID, hint))
}

func (m *MockBookingService) Answer(ctx context.Context, sessionID, questionID string, answer entities.TriageAnswer) (*services.BookingView, error) {
	return m.view(m.Called(ctx, sessionID, questionID, answer))
}

func (m *MockBookingService) CompleteTriage(ctx context.Context, sessionID string) (*services.BookingView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *MockBookingService) GoBack(ctx context.Context, sessionID string, target entities.BookingState) (*services.BookingView, error) {
	return m.view(m.Called(ctx, sessionID, target))
}

func (m *MockBookingService) Confirm(ctx context.Context, sessionID string) (*services.BookingView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *MockBookingService) Abandon(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

// serve routes the request through a mux so path values are populated
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestBookingHandler_StartBooking(t *testing.T) {
	t.Run("starts a session with a location hint", func(t *testing.T) {
		svc := new(MockBookingService)
		handler := handlers.NewBookingHandler(svc)

		lat, lon := -8.8383, 13.2344
		svc.On("Start", mock.Anything, "patient-7", mock.MatchedBy(func(h *providers.LocationHint) bool {
			return h != nil && *h.Latitude == lat && *h.Longitude == lon
		})).Return(&services.BookingView{SessionID: "s-1", PatientID: "patient-7", State: entities.BookingStateSelectingSpecialty}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/bookings", jsonBody(t, map[string]interface{}{
			"patient_id": "patient-7",
			"location":   map[string]float64{"latitude": lat, "longitude": lon},
		}))
		w := serve("POST /api/bookings", handler.StartBooking, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var view services.BookingView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		assert.Equal(t, "s-1", view.SessionID)
		assert.Equal(t, entities.BookingStateSelectingSpecialty, view.State)
		svc.AssertExpectations(t)
	})

	t.Run("requires a patient id", func(t *testing.T) {
		svc := new(MockBookingService)
		handler := handlers.NewBookingHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString(`{}`))
		w := serve("POST /api/bookings", handler.StartBooking, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "patient_id is required", decodeError(t, w)["error"])
		svc.AssertNotCalled(t, "Start", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects out of range coordinates", func(t *testing.T) {
		svc := new(MockBookingService)
		handler := handlers.NewBookingHandler(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/bookings",
			bytes.NewBufferString(`{"patient_id":"p","location":{"latitude":123,"longitude":13}}`))
		w := serve("POST /api/bookings", handler.StartBooking, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "latitude must be a valid latitude", decodeError(t, w)["error"])
	})

	t.Run("returns bad request for invalid payload", func(t *testing.T) {
		handler := handlers.NewBookingHandler(new(MockBookingService))

		req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString("invalid-json"))
		w := serve("POST /api/bookings", handler.StartBooking, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBookingHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{"refusal", apperrors.NewRefusal(apperrors.ReasonFacilityNotOffered), http.StatusBadRequest, "FACILITY_NOT_OFFERED"},
		{"nothing offered", apperrors.NewRefusal(apperrors.ReasonNoFacilityForSpecialty), http.StatusUnprocessableEntity, "NO_FACILITY_FOR_SPECIALTY"},
		{"no dates", apperrors.NewRefusal(apperrors.ReasonNoDatesAvailable), http.StatusUnprocessableEntity, "NO_DATES_AVAILABLE"},
		{"missing session", apperrors.NewSessionNotFoundError("s-404"), http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"directory down", apperrors.NewCollaboratorError(apperrors.ReasonDirectoryUnavailable, errors.New("timeout")), http.StatusBadGateway, "DIRECTORY_UNAVAILABLE"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBookingService)
			handler := handlers.NewBookingHandler(svc)
			svc.On("SelectSpecialty", mock.Anything, "s-1", "Cardiologia").Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodPut, "/api/bookings/s-1/specialty", jsonBody(t, map[string]string{"specialty": "Cardiologia"}))
			w := serve("PUT /api/bookings/{id}/specialty", handler.SelectSpecialty, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantReason, decodeError(t, w)["reason"])
		})
	}
}

func TestBookingHandler_SelectFacilityAndDate(t *testing.T) {
	svc := new(MockBookingService)
	handler := handlers.NewBookingHandler(svc)
	date := time.Date(2030, 1, 15, 9, 0, 0, 0, time.UTC)

	svc.On("SelectFacility", mock.Anything, "s-1", "fac-a").
		Return(&services.BookingView{SessionID: "s-1", State: entities.BookingStateSelectingDate, AvailableDates: []time.Time{date}}, nil)
	svc.On("SelectDate", mock.Anything, "s-1", mock.MatchedBy(func(d time.Time) bool { return d.Equal(date) })).
		Return(&services.BookingView{SessionID: "s-1", State: entities.BookingStateTriage}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/bookings/s-1/facility", jsonBody(t, map[string]string{"facility_id": "fac-a"}))
	w := serve("PUT /api/bookings/{id}/facility", handler.SelectFacility, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/bookings/s-1/date", jsonBody(t, map[string]string{"date": date.Format(time.RFC3339)}))
	w = serve("PUT /api/bookings/{id}/date", handler.SelectDate, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/bookings/s-1/date", bytes.NewBufferString(`{}`))
	w = serve("PUT /api/bookings/{id}/date", handler.SelectDate, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func TestBookingHandler_AnswerQuestion(t *testing.T) {
	svc := new(MockBookingService)
	handler := handlers.NewBookingHandler(svc)

	svc.On("Answer", mock.Anything, "s-1", "alert_symptoms", mock.MatchedBy(func(a entities.TriageAnswer) bool {
		return a.IsList() && assert.ObjectsAreEqual([]string{"Dor no peito", "Falta de ar"}, a.Values())
	})).Return(&services.BookingView{SessionID: "s-1", State: entities.BookingStateTriage}, nil)
	svc.On("Answer", mock.Anything, "s-1", "pain_intensity", mock.MatchedBy(func(a entities.TriageAnswer) bool {
		return !a.IsList() && a.Text() == "Forte"
	})).Return(&services.BookingView{SessionID: "s-1", State: entities.BookingStateTriage}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/bookings/s-1/answers/alert_symptoms",
		bytes.NewBufferString(`{"answer":["Dor no peito","Falta de ar"]}`))
	w := serve("PUT /api/bookings/{id}/answers/{questionId}", handler.AnswerQuestion, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/bookings/s-1/answers/pain_intensity",
		bytes.NewBufferString(`{"answer":"Forte"}`))
	w = serve("PUT /api/bookings/{id}/answers/{questionId}", handler.AnswerQuestion, req)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}

func TestBookingHandler_GoBack(t *testing.T) {
	svc := new(MockBookingService)
	handler := handlers.NewBookingHandler(svc)
	svc.On("GoBack", mock.Anything, "s-1", entities.BookingStateSelectingFacility).
		Return(&services.BookingView{SessionID: "s-1", State: entities.BookingStateSelectingFacility}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/s-1/back", jsonBody(t, map[string]string{"state": "selecting_facility"}))
	w := serve("POST /api/bookings/{id}/back", handler.GoBack, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/bookings/s-1/back", jsonBody(t, map[string]string{"state": "confirmed"}))
	w = serve("POST /api/bookings/{id}/back", handler.GoBack, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.AssertExpectations(t)
}

func TestBookingHandler_Confirm(t *testing.T) {
	t.Run("returns the booked appointment", func(t *testing.T) {
		svc := new(MockBookingService)
		handler := handlers.NewBookingHandler(svc)
		svc.On("Confirm", mock.Anything, "s-1").Return(&services.BookingView{
			SessionID:     "s-1",
			State:         entities.BookingStateConfirmed,
			AppointmentID: "apt-1",
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/bookings/s-1/confirm", nil)
		w := serve("POST /api/bookings/{id}/confirm", handler.Confirm, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var view services.BookingView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		assert.Equal(t, "apt-1", view.AppointmentID)
	})

	t.Run("maps a rejected booking to bad gateway", func(t *testing.T) {
		svc := new(MockBookingService)
		handler := handlers.NewBookingHandler(svc)
		svc.On("Confirm", mock.Anything, "s-1").
			Return(nil, apperrors.NewCollaboratorError(apperrors.ReasonBookingRejected, providers.ErrBookingRejected))

		req := httptest.NewRequest(http.MethodPost, "/api/bookings/s-1/confirm", nil)
		w := serve("POST /api/bookings/{id}/confirm", handler.Confirm, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		body := decodeError(t, w)
		assert.Equal(t, "BOOKING_REJECTED", body["reason"])
		assert.Equal(t, apperrors.ReasonBookingRejected.Message(), body["error"])
	})
}

func TestBookingHandler_AbandonBooking(t *testing.T) {
	svc := new(MockBookingService)
	handler := handlers.NewBookingHandler(svc)
	svc.On("Abandon", mock.Anything, "s-1").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/bookings/s-1", nil)
	w := serve("DELETE /api/bookings/{id}", handler.AbandonBooking, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}
