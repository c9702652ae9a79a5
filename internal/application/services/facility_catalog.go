package services

import (
	"sort"
	"strings"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/pkg/utils"
)

// FacilityCatalog is an immutable in-memory view of the facility directory
type FacilityCatalog struct {
	facilities []*entities.Facility
	byID       map[string]*entities.Facility
}

// NewFacilityCatalog builds a catalog preserving the directory order. Nil
// records are skipped. The catalog holds copies with normalized specialty
// lists and never modifies the records it was given.
func NewFacilityCatalog(facilities []*entities.Facility) *FacilityCatalog {
	c := &FacilityCatalog{
		facilities: make([]*entities.Facility, 0, len(facilities)),
		byID:       make(map[string]*entities.Facility, len(facilities)),
	}
	for _, f := range facilities {
		if f == nil {
			continue
		}
		record := *f
		record.Specialties = entities.SpecialtyList(utils.NormalizeSpecialties(f.Specialties))
		c.facilities = append(c.facilities, &record)
		if record.ID != "" {
			c.byID[record.ID] = &record
		}
	}
	return c
}

// ByServices returns the facilities with a specialty entry containing the
// requested name, ignoring case, in catalog order.
func (c *FacilityCatalog) ByServices(specialty string) []*entities.Facility {
	var out []*entities.Facility
	for _, f := range c.facilities {
		if f.OffersSpecialty(specialty) {
			out = append(out, f)
		}
	}
	return out
}

// FindByID returns the facility with the given ID
func (c *FacilityCatalog) FindByID(id string) (*entities.Facility, bool) {
	f, ok := c.byID[id]
	return f, ok
}

// Specialties returns every distinct specialty with the number of facilities
// offering it, sorted by name. Names differing only in case are merged under
// the first spelling seen.
func (c *FacilityCatalog) Specialties() []SpecialtyCount {
	counts := map[string]*SpecialtyCount{}
	for _, f := range c.facilities {
		seen := map[string]bool{}
		for _, s := range f.Specialties {
			key := utils.FoldSpecialty(s)
			if seen[key] {
				continue
			}
			seen[key] = true
			if entry, ok := counts[key]; ok {
				entry.Facilities++
			} else {
				counts[key] = &SpecialtyCount{Name: s, Facilities: 1}
			}
		}
	}

	out := make([]SpecialtyCount, 0, len(counts))
	for _, entry := range counts {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return utils.FoldSpecialty(out[i].Name) < utils.FoldSpecialty(out[j].Name)
	})
	return out
}

// Len returns the number of facilities in the catalog
func (c *FacilityCatalog) Len() int {
	return len(c.facilities)
}

// SpecialtyCount is a specialty name and how many facilities offer it
type SpecialtyCount struct {
	Name       string `json:"name"`
	Facilities int    `json:"facilities"`
}

func hasFoldedPrefix(name, prefix string) bool {
	return strings.HasPrefix(utils.FoldSpecialty(name), utils.FoldSpecialty(prefix))
}
