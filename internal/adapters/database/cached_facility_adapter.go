package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
)

// Cache TTLs (in seconds)
const (
	facilityByIDTTL   = 300
	facilitiesListTTL = 180
)

// CachedFacilityAdapter wraps a FacilityRepository with a shared cache.
// The list entry lives under providers.CacheKeyFacilityList so a facility
// update event can drop it.
type CachedFacilityAdapter struct {
	adapter repositories.FacilityRepository
	cache   providers.CacheProvider
}

// NewCachedFacilityAdapter creates a new cached facility adapter
func NewCachedFacilityAdapter(adapter repositories.FacilityRepository, cache providers.CacheProvider) repositories.FacilityRepository {
	return &CachedFacilityAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

func facilityCacheKey(id string) string {
	return fmt.Sprintf("facility:%s", id)
}

// List retrieves the directory, from cache when present
func (a *CachedFacilityAdapter) List(ctx context.Context) ([]*entities.Facility, error) {
	if cached, err := a.cache.Get(ctx, providers.CacheKeyFacilityList); err == nil {
		var facilities []*entities.Facility
		if err := json.Unmarshal(cached, &facilities); err == nil {
			return facilities, nil
		}
		log.Warn().Err(err).Msg("failed to unmarshal cached facility list")
	} else if !errors.Is(err, providers.ErrCacheMiss) {
		log.Warn().Err(err).Msg("facility list cache unavailable")
	}

	facilities, err := a.adapter.List(ctx)
	if err != nil {
		return nil, err
	}

	a.store(ctx, providers.CacheKeyFacilityList, facilities, facilitiesListTTL)
	return facilities, nil
}

// GetByIDs retrieves facilities, fetching only the ones missing from cache
func (a *CachedFacilityAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Facility, error) {
	if len(ids) == 0 {
		return []*entities.Facility{}, nil
	}

	found := make(map[string]*entities.Facility, len(ids))
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		cached, err := a.cache.Get(ctx, facilityCacheKey(id))
		if err == nil {
			var facility entities.Facility
			if err := json.Unmarshal(cached, &facility); err == nil {
				found[id] = &facility
				continue
			}
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		fetched, err := a.adapter.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, facility := range fetched {
			found[facility.ID] = facility
			a.store(ctx, facilityCacheKey(facility.ID), facility, facilityByIDTTL)
		}
	}

	facilities := make([]*entities.Facility, 0, len(found))
	for _, id := range ids {
		if facility, ok := found[id]; ok {
			facilities = append(facilities, facility)
		}
	}
	return facilities, nil
}

func (a *CachedFacilityAdapter) store(ctx context.Context, key string, value interface{}, ttl int) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to marshal cache entry")
		return
	}
	if err := a.cache.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to write cache entry")
	}
}
