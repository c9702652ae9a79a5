package services_test

import (
	"time"

	"github.com/zatekoja/Patientbookingtriage/internal/application/services"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
)

var (
	fixedNow = time.Date(2030, 1, 10, 8, 0, 0, 0, time.UTC)
	pastDay  = time.Date(2030, 1, 5, 9, 0, 0, 0, time.UTC)
	day1     = time.Date(2030, 1, 15, 9, 0, 0, 0, time.UTC)
	day2     = time.Date(2030, 1, 16, 14, 30, 0, 0, time.UTC)
)

func coord(v float64) *float64 { return &v }

func clock() time.Time { return fixedNow }

// luandaFacilities: A and B offer Cardiologia, C has no coordinates,
// D offers Pediatria only and has no dates.
func luandaFacilities() []*entities.Facility {
	return []*entities.Facility{
		{
			ID:          "fac-b",
			Name:        "Clínica B",
			Latitude:    coord(-9.0),
			Longitude:   coord(13.0),
			Specialties: entities.SpecialtyList{"Cardiologia", "Ortopedia"},
			AvailableDates: map[string][]time.Time{
				"Cardiologia": {day2},
			},
		},
		{
			ID:          "fac-c",
			Name:        "Centro de Saúde C",
			Specialties: entities.SpecialtyList{"cardiologia"},
			AvailableDates: map[string][]time.Time{
				"Cardiologia": {pastDay},
			},
		},
		{
			ID:          "fac-a",
			Name:        "Hospital A",
			Latitude:    coord(-8.84),
			Longitude:   coord(13.29),
			Specialties: entities.SpecialtyList{"Cardiologia", "Pediatria"},
			AvailableDates: map[string][]time.Time{
				"Cardiologia": {day2, day1, pastDay},
				"Pediatria":   {day1},
			},
		},
		{
			ID:          "fac-d",
			Name:        "Posto D",
			Latitude:    coord(-8.9),
			Longitude:   coord(13.2),
			Specialties: entities.SpecialtyList{"Pediatria"},
		},
	}
}

func newTestMatcher() *services.FacilityMatcher {
	return services.NewFacilityMatcher(services.NewFacilityCatalog(luandaFacilities()), nil)
}

func newTestWorkflow() *services.BookingWorkflow {
	return services.NewBookingWorkflow(newTestMatcher(), services.NewDefaultUrgencyScorer(), clock)
}

func facilityIDs(ranked []entities.RankedFacility) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Facility.ID
	}
	return ids
}
