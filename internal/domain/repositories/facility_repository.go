package repositories

import (
	"context"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
)

// FacilityRepository is the read side of the facility directory
type FacilityRepository interface {
	// List retrieves every facility in the directory
	List(ctx context.Context) ([]*entities.Facility, error)

	// GetByIDs retrieves multiple facilities by their IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Facility, error)
}

// SpecialtySearchRepository indexes specialty names for type-ahead lookup (e.g. Typesense)
type SpecialtySearchRepository interface {
	// IndexSpecialties replaces the indexed documents with the given entries
	IndexSpecialties(ctx context.Context, entries []SpecialtyEntry) error

	// Suggest returns specialty names matching the prefix, most offered first
	Suggest(ctx context.Context, prefix string, limit int) ([]SpecialtyEntry, error)
}

// SpecialtyEntry is one indexed specialty with the number of facilities offering it
type SpecialtyEntry struct {
	Name          string `json:"name"`
	FacilityCount int    `json:"facility_count"`
}
