package routes

import (
	"net/http"

	"github.com/zatekoja/Patientbookingtriage/internal/api/handlers"
	"github.com/zatekoja/Patientbookingtriage/internal/api/loaders"
	"github.com/zatekoja/Patientbookingtriage/internal/api/middleware"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	"github.com/zatekoja/Patientbookingtriage/internal/infrastructure/observability"
)

// Options holds the cross-cutting settings of the HTTP surface
type Options struct {
	AllowedOrigins    []string
	RequestsPerMinute int
}

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	bookingHandler     *handlers.BookingHandler
	triageHandler      *handlers.TriageHandler
	facilityHandler    *handlers.FacilityHandler
	appointmentHandler *handlers.AppointmentHandler
	geolocationHandler *handlers.GeolocationHandler

	facilityRepo repositories.FacilityRepository
	metrics      *observability.Metrics
	opts         Options
}

// NewRouter creates a new router. geolocationHandler may be nil.
func NewRouter(
	bookingHandler *handlers.BookingHandler,
	triageHandler *handlers.TriageHandler,
	facilityHandler *handlers.FacilityHandler,
	appointmentHandler *handlers.AppointmentHandler,
	geolocationHandler *handlers.GeolocationHandler,
	facilityRepo repositories.FacilityRepository,
	metrics *observability.Metrics,
	opts Options,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		bookingHandler:     bookingHandler,
		triageHandler:      triageHandler,
		facilityHandler:    facilityHandler,
		appointmentHandler: appointmentHandler,
		geolocationHandler: geolocationHandler,
		facilityRepo:       facilityRepo,
		metrics:            metrics,
		opts:               opts,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Booking session endpoints
	r.mux.HandleFunc("POST /api/bookings", r.bookingHandler.StartBooking)
	r.mux.HandleFunc("GET /api/bookings/{id}", r.bookingHandler.GetBooking)
	r.mux.HandleFunc("DELETE /api/bookings/{id}", r.bookingHandler.AbandonBooking)
	r.mux.HandleFunc("PUT /api/bookings/{id}/specialty", r.bookingHandler.SelectSpecialty)
	r.mux.HandleFunc("PUT /api/bookings/{id}/facility", r.bookingHandler.SelectFacility)
	r.mux.HandleFunc("PUT /api/bookings/{id}/date", r.bookingHandler.SelectDate)
	r.mux.HandleFunc("PUT /api/bookings/{id}/location", r.bookingHandler.UpdateLocation)
	r.mux.HandleFunc("PUT /api/bookings/{id}/answers/{questionId}", r.bookingHandler.AnswerQuestion)
	r.mux.HandleFunc("POST /api/bookings/{id}/triage/complete", r.bookingHandler.CompleteTriage)
	r.mux.HandleFunc("POST /api/bookings/{id}/back", r.bookingHandler.GoBack)
	r.mux.HandleFunc("POST /api/bookings/{id}/confirm", r.bookingHandler.Confirm)

	// Triage endpoints
	r.mux.HandleFunc("GET /api/triage/questions", r.triageHandler.ListQuestions)
	r.mux.HandleFunc("POST /api/triage/score", r.triageHandler.Score)

	// Facility endpoints
	r.mux.HandleFunc("GET /api/facilities/ranked", r.facilityHandler.RankFacilities)
	r.mux.HandleFunc("GET /api/specialties", r.facilityHandler.SuggestSpecialties)

	// Appointment endpoints resolve facilities through per-request loaders
	withLoaders := loaders.Middleware(r.facilityRepo)
	r.mux.Handle("GET /api/patients/{id}/appointments",
		withLoaders(http.HandlerFunc(r.appointmentHandler.ListPatientAppointments)))

	// Geolocation endpoints
	if r.geolocationHandler != nil {
		r.mux.HandleFunc("GET /api/geocode", r.geolocationHandler.Geocode)
		r.mux.HandleFunc("GET /api/reverse-geocode", r.geolocationHandler.ReverseGeocode)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS is outermost so rejected and rate-limited responses carry its headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.RateLimitMiddleware(r.opts.RequestsPerMinute)(handler)
	handler = middleware.CORSMiddleware(r.opts.AllowedOrigins)(handler)

	return handler
}
