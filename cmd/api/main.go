package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Patientbookingtriage/internal/adapters/cache"
	"github.com/zatekoja/Patientbookingtriage/internal/adapters/database"
	"github.com/zatekoja/Patientbookingtriage/internal/adapters/events"
	"github.com/zatekoja/Patientbookingtriage/internal/adapters/providers/geolocation"
	"github.com/zatekoja/Patientbookingtriage/internal/adapters/search"
	"github.com/zatekoja/Patientbookingtriage/internal/adapters/session"
	"github.com/zatekoja/Patientbookingtriage/internal/api/handlers"
	"github.com/zatekoja/Patientbookingtriage/internal/api/routes"
	"github.com/zatekoja/Patientbookingtriage/internal/application/services"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	"github.com/zatekoja/Patientbookingtriage/internal/infrastructure/clients/careapi"
	"github.com/zatekoja/Patientbookingtriage/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Patientbookingtriage/internal/infrastructure/clients/redis"
	"github.com/zatekoja/Patientbookingtriage/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/Patientbookingtriage/internal/infrastructure/observability"
	"github.com/zatekoja/Patientbookingtriage/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			observability.EnableLogExport()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Redis backs the cache, the event bus and, by default, sessions
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		if cfg.Session.Store == "redis" {
			log.Fatal().Err(err).Msg("redis is required for the redis session store")
		}
		log.Warn().Err(err).Msg("redis unavailable; running without cache and events")
	} else {
		defer redisClient.Close()
		log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("redis client initialized")
	}

	var pgClient *postgres.Client
	if cfg.UsesPostgres() {
		pgClient, err = postgres.NewClient(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()
		log.Info().Str("database", cfg.Database.Database).Msg("PostgreSQL client initialized")
	}

	careClient := careapi.NewClient(&cfg.CareAPI)

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	// Facility directory
	var facilitySource repositories.FacilityRepository = careClient
	if cfg.Sources.Facilities == "postgres" {
		facilitySource = database.NewFacilityAdapter(pgClient)
	}
	facilityRepo := facilitySource
	if cacheProvider != nil {
		facilityRepo = database.NewCachedFacilityAdapter(facilitySource, cacheProvider)
	}
	log.Info().Str("source", cfg.Sources.Facilities).Bool("cached", cacheProvider != nil).Msg("facility directory configured")

	// Booking collaborator and appointment history
	var bookingGateway providers.BookingGateway = careClient
	var appointmentRepo repositories.AppointmentRepository = careClient
	if cfg.Sources.Bookings == "postgres" {
		appointmentAdapter := database.NewAppointmentAdapter(pgClient)
		bookingGateway = appointmentAdapter
		appointmentRepo = appointmentAdapter
	}
	log.Info().Str("sink", cfg.Sources.Bookings).Msg("booking collaborator configured")

	var specialtySearch repositories.SpecialtySearchRepository
	if cfg.Typesense.Enabled {
		typesenseClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("typesense unavailable; specialty suggestions use the catalog")
		} else if err := typesenseClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to init typesense schema")
		} else {
			specialtySearch = search.NewTypesenseAdapter(typesenseClient)
		}
	}

	scorer, err := buildScorer(cfg.Triage.RulesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid triage rules")
	}

	geocoder := buildGeocoder(cfg, cacheProvider)
	locator := geolocation.NewDeviceLocator(geocoder)

	var sessions repositories.SessionRepository
	switch cfg.Session.Store {
	case "redis":
		sessions = session.NewRedisSessionStore(redisClient)
	default:
		sessions = session.NewMemorySessionStore()
	}
	log.Info().Str("store", cfg.Session.Store).Dur("ttl", cfg.Session.TTL).Msg("session store configured")

	catalogService := services.NewCatalogService(facilityRepo, specialtySearch, cfg.Catalog.MaxAge)
	if _, err := catalogService.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("initial facility catalog load failed; will retry on demand")
	}

	var invalidationService *services.CatalogInvalidationService
	if eventBus != nil {
		invalidationService = services.NewCatalogInvalidationService(catalogService, cacheProvider, eventBus)
		if err := invalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start catalog invalidation service")
			invalidationService = nil
		}
	}

	bookingService := services.NewBookingService(
		sessions,
		catalogService,
		scorer,
		locator,
		bookingGateway,
		eventBus,
		cfg.Session.TTL,
	)

	router := routes.NewRouter(
		handlers.NewBookingHandler(bookingService),
		handlers.NewTriageHandler(scorer),
		handlers.NewFacilityHandler(catalogService),
		handlers.NewAppointmentHandler(appointmentRepo),
		handlers.NewGeolocationHandler(geocoder),
		facilityRepo,
		metrics,
		routes.Options{
			AllowedOrigins:    cfg.Server.AllowedOrigins,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		},
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if invalidationService != nil {
		invalidationService.Stop()
	}
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}

// buildScorer loads triage rules from path, or the built-in rules when path is empty
func buildScorer(path string) (*services.UrgencyScorer, error) {
	if path == "" {
		return services.NewDefaultUrgencyScorer(), nil
	}
	rules, err := services.LoadTriageRules(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Msg("triage rules loaded")
	return services.NewUrgencyScorer(services.DefaultTriageQuestions(), rules)
}

func buildGeocoder(cfg *config.Config, cacheProvider providers.CacheProvider) providers.Geocoder {
	switch cfg.Geolocation.Provider {
	case "google":
		if cfg.Geolocation.APIKey == "" {
			log.Warn().Msg("GEOLOCATION_API_KEY is not set; using mock geolocation provider")
			return geolocation.NewMockGeolocationProvider()
		}
		log.Info().Str("region", cfg.Geolocation.Region).Msg("using google geocoder")
		return geolocation.NewGoogleGeocoder(cfg.Geolocation, cacheProvider)
	default:
		return geolocation.NewMockGeolocationProvider()
	}
}
