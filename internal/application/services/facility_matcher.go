package services

import (
	"sort"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/pkg/geo"
)

// FacilityMatcher ranks the facilities offering a specialty by distance to the patient
type FacilityMatcher struct {
	catalog  *FacilityCatalog
	distance geo.DistanceFunc
}

// NewFacilityMatcher creates a matcher. A nil distance function uses haversine.
func NewFacilityMatcher(catalog *FacilityCatalog, distance geo.DistanceFunc) *FacilityMatcher {
	if distance == nil {
		distance = geo.Distance
	}
	return &FacilityMatcher{catalog: catalog, distance: distance}
}

// Rank returns the candidates for specialty. With a patient location they are
// sorted by ascending distance, facilities without coordinates last in catalog
// order. Without a location the catalog order is kept. An empty result means
// no facility offers the specialty.
func (m *FacilityMatcher) Rank(specialty string, patient *entities.Location) []entities.RankedFacility {
	candidates := m.catalog.ByServices(specialty)
	ranked := make([]entities.RankedFacility, len(candidates))
	for i, f := range candidates {
		ranked[i] = entities.RankedFacility{Facility: f}
		if patient == nil {
			continue
		}
		if loc := f.Location(); loc != nil {
			d := m.distance(patient.Latitude, patient.Longitude, loc.Latitude, loc.Longitude)
			ranked[i].DistanceKm = &d
		}
	}

	if patient != nil {
		sort.SliceStable(ranked, func(i, j int) bool {
			a, b := ranked[i].DistanceKm, ranked[j].DistanceKm
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return *a < *b
			}
		})
	}

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Catalog returns the catalog the matcher ranks from
func (m *FacilityMatcher) Catalog() *FacilityCatalog {
	return m.catalog
}
