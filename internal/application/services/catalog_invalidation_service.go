package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
)

// CatalogInvalidationService drops cached directory data when the directory
// announces a change on the facility updates channel.
type CatalogInvalidationService struct {
	catalog  *CatalogService
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCatalogInvalidationService creates a new invalidation service. cache may be nil.
func NewCatalogInvalidationService(catalog *CatalogService, cache providers.CacheProvider, eventBus providers.EventBus) *CatalogInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CatalogInvalidationService{
		catalog:  catalog,
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for facility updates
func (s *CatalogInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelFacilityUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to facility updates: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Str("channel", providers.EventChannelFacilityUpdates).Msg("catalog invalidation service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit
func (s *CatalogInvalidationService) Stop() {
	s.cancel()
	<-s.done
	log.Info().Msg("catalog invalidation service stopped")
}

func (s *CatalogInvalidationService) processEvents(eventChan <-chan *entities.DomainEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent invalidates the in-memory catalog and the cached directory listing
func (s *CatalogInvalidationService) handleEvent(event *entities.DomainEvent) {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	log.Debug().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Str("facility_id", event.AggregateID).
		Msg("invalidating facility catalog")

	s.catalog.Invalidate()
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, providers.CacheKeyFacilityList); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate cached facility list")
	}
}
