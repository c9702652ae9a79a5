package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/Patientbookingtriage/internal/adapters/providers/geolocation"
	"github.com/zatekoja/Patientbookingtriage/internal/api/handlers"
	"github.com/zatekoja/Patientbookingtriage/internal/application/services"
)

func newTestHandler() http.Handler {
	scorer := services.NewDefaultUrgencyScorer()
	router := NewRouter(
		handlers.NewBookingHandler(nil),
		handlers.NewTriageHandler(scorer),
		handlers.NewFacilityHandler(nil),
		handlers.NewAppointmentHandler(nil),
		handlers.NewGeolocationHandler(geolocation.NewMockGeolocationProvider()),
		nil,
		nil,
		Options{AllowedOrigins: []string{"*"}, RequestsPerMinute: 100},
	)
	return router.SetupRoutes()
}

func TestRouter_Routes(t *testing.T) {
	handler := newTestHandler()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/triage/questions", http.StatusOK},
		{http.MethodGet, "/api/geocode?address=Luanda", http.StatusOK},
		{http.MethodOptions, "/api/bookings", http.StatusNoContent},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
		{http.MethodPatch, "/api/triage/questions", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("Origin", "https://app.example.ao")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
