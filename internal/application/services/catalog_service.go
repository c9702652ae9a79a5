package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
	"github.com/zatekoja/Patientbookingtriage/pkg/retry"
)

// CatalogService loads the facility directory into immutable catalogs.
// The current catalog is shared by all sessions and replaced, never
// modified, when it goes stale or is invalidated.
type CatalogService struct {
	repo     repositories.FacilityRepository
	search   repositories.SpecialtySearchRepository
	maxAge   time.Duration
	retryCfg retry.Config
	now      func() time.Time

	mu       sync.RWMutex
	current  *FacilityCatalog
	loadedAt time.Time
	stale    bool
}

// NewCatalogService creates a catalog service. search may be nil.
func NewCatalogService(repo repositories.FacilityRepository, search repositories.SpecialtySearchRepository, maxAge time.Duration) *CatalogService {
	return &CatalogService{
		repo:     repo,
		search:   search,
		maxAge:   maxAge,
		retryCfg: retry.RequestConfig(),
		now:      time.Now,
	}
}

// SetRetryConfig overrides the retry policy used for directory reads
func (s *CatalogService) SetRetryConfig(cfg retry.Config) {
	s.retryCfg = cfg
}

// Catalog returns the current catalog, reloading it when stale. When a reload
// fails and an older catalog exists, the older one is served.
func (s *CatalogService) Catalog(ctx context.Context) (*FacilityCatalog, error) {
	s.mu.RLock()
	current, fresh := s.current, s.isFresh()
	s.mu.RUnlock()
	if current != nil && fresh {
		return current, nil
	}

	catalog, err := s.Refresh(ctx)
	if err != nil {
		if current != nil {
			log.Warn().Err(err).Msg("facility directory reload failed, serving previous catalog")
			return current, nil
		}
		return nil, err
	}
	return catalog, nil
}

// Matcher returns a facility matcher over the current catalog
func (s *CatalogService) Matcher(ctx context.Context) (*FacilityMatcher, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return NewFacilityMatcher(catalog, nil), nil
}

// Rank ranks the facilities of the current catalog offering specialty.
// A blank specialty and a specialty nobody offers are refusals.
func (s *CatalogService) Rank(ctx context.Context, specialty string, patient *entities.Location) ([]entities.RankedFacility, error) {
	if strings.TrimSpace(specialty) == "" {
		return nil, apperrors.NewRefusal(apperrors.ReasonSpecialtyRequired)
	}
	matcher, err := s.Matcher(ctx)
	if err != nil {
		return nil, err
	}
	ranked := matcher.Rank(specialty, patient)
	if len(ranked) == 0 {
		return nil, apperrors.NewRefusal(apperrors.ReasonNoFacilityForSpecialty)
	}
	return ranked, nil
}

// Refresh reloads the directory. Reads are retried; a final failure is
// reported as DIRECTORY_UNAVAILABLE.
func (s *CatalogService) Refresh(ctx context.Context) (*FacilityCatalog, error) {
	var catalog *FacilityCatalog
	err := retry.DoWithLog(ctx, s.retryCfg, "facility-directory", func() error {
		facilities, err := s.repo.List(ctx)
		if err != nil {
			return err
		}
		catalog = NewFacilityCatalog(facilities)
		return nil
	}, nil)
	if err != nil {
		return nil, apperrors.NewCollaboratorError(apperrors.ReasonDirectoryUnavailable, err)
	}

	s.mu.Lock()
	s.current = catalog
	s.loadedAt = s.now()
	s.stale = false
	s.mu.Unlock()

	log.Info().Int("facilities", catalog.Len()).Msg("facility catalog loaded")
	s.indexSpecialties(ctx, catalog)
	return catalog, nil
}

// Invalidate marks the current catalog stale; the next read reloads it
func (s *CatalogService) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// Specialties lists the specialties of the current catalog
func (s *CatalogService) Specialties(ctx context.Context) ([]SpecialtyCount, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Specialties(), nil
}

// SuggestSpecialties returns specialties starting with prefix. The search
// index is used when configured, the catalog otherwise.
func (s *CatalogService) SuggestSpecialties(ctx context.Context, prefix string, limit int) ([]SpecialtyCount, error) {
	if s.search != nil && prefix != "" {
		entries, err := s.search.Suggest(ctx, prefix, limit)
		if err == nil {
			out := make([]SpecialtyCount, len(entries))
			for i, e := range entries {
				out[i] = SpecialtyCount{Name: e.Name, Facilities: e.FacilityCount}
			}
			return out, nil
		}
		log.Warn().Err(err).Str("prefix", prefix).Msg("specialty search failed, falling back to catalog")
	}

	all, err := s.Specialties(ctx)
	if err != nil {
		return nil, err
	}
	var out []SpecialtyCount
	for _, sc := range all {
		if prefix == "" || hasFoldedPrefix(sc.Name, prefix) {
			out = append(out, sc)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *CatalogService) isFresh() bool {
	if s.stale {
		return false
	}
	return s.maxAge <= 0 || s.now().Sub(s.loadedAt) < s.maxAge
}

func (s *CatalogService) indexSpecialties(ctx context.Context, catalog *FacilityCatalog) {
	if s.search == nil {
		return
	}
	specialties := catalog.Specialties()
	entries := make([]repositories.SpecialtyEntry, len(specialties))
	for i, sc := range specialties {
		entries[i] = repositories.SpecialtyEntry{Name: sc.Name, FacilityCount: sc.Facilities}
	}
	if err := s.search.IndexSpecialties(ctx, entries); err != nil {
		log.Warn().Err(err).Msg("failed to index specialties")
	}
}
