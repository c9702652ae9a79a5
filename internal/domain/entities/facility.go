package entities

import (
	"reflect"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/zatekoja/Patientbookingtriage/pkg/utils"
)

// Facility represents a health unit (hospital or clinic) as published by the
// facility directory. The booking engine treats it as read-only input.
type Facility struct {
	ID          string        `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Latitude    *float64      `json:"latitude" db:"latitude"`
	Longitude   *float64      `json:"longitude" db:"longitude"`
	Specialties SpecialtyList `json:"specialties" db:"-"`
	Address     string        `json:"address" db:"address"`
	// AvailableDates holds the bookable dates keyed by specialty name
	AvailableDates map[string][]time.Time `json:"available_dates,omitempty" db:"-"`
	UpdatedAt      time.Time              `json:"updated_at,omitempty" db:"updated_at"`
}

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// Location returns the facility coordinates, or nil when either is missing
func (f *Facility) Location() *Location {
	if f.Latitude == nil || f.Longitude == nil {
		return nil
	}
	return &Location{Latitude: *f.Latitude, Longitude: *f.Longitude}
}

// OffersSpecialty reports whether any specialty entry contains name, ignoring case
func (f *Facility) OffersSpecialty(name string) bool {
	return utils.MatchesSpecialty(f.Specialties, name)
}

// DatesFor returns the sorted, de-duplicated dates offered for specialty.
// Keys equal to the specialty (ignoring case) win; otherwise keys containing
// it are used, mirroring how the catalog matches specialties.
func (f *Facility) DatesFor(specialty string) []time.Time {
	needle := utils.FoldSpecialty(specialty)
	if needle == "" || len(f.AvailableDates) == 0 {
		return nil
	}

	var exact, partial []time.Time
	for key, dates := range f.AvailableDates {
		folded := utils.FoldSpecialty(key)
		switch {
		case folded == needle:
			exact = append(exact, dates...)
		case utils.MatchesSpecialty([]string{key}, specialty):
			partial = append(partial, dates...)
		}
	}
	if len(exact) > 0 {
		return uniqueSortedDates(exact)
	}
	return uniqueSortedDates(partial)
}

// OffersDate reports whether t is one of the dates offered for specialty
func (f *Facility) OffersDate(specialty string, t time.Time) bool {
	for _, d := range f.DatesFor(specialty) {
		if d.Equal(t) {
			return true
		}
	}
	return false
}

func uniqueSortedDates(dates []time.Time) []time.Time {
	if len(dates) == 0 {
		return nil
	}
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	out := sorted[:1]
	for _, d := range sorted[1:] {
		if !d.Equal(out[len(out)-1]) {
			out = append(out, d)
		}
	}
	return out
}

var specialtyListType = reflect.TypeOf(SpecialtyList{})

// SpecialtyList is the canonical list form of a facility's specialties.
// The directory sends either a comma-delimited string or a list of strings;
// both decode to trimmed, non-empty entries.
type SpecialtyList []string

// UnmarshalJSON accepts a string, a list of strings or null
func (s *SpecialtyList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*s = SpecialtyList{}
	case string:
		*s = SpecialtyList(utils.SplitSpecialties(v))
	case []interface{}:
		values := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return &json.UnmarshalTypeError{Value: "non-string specialty", Type: specialtyListType}
			}
			values = append(values, str)
		}
		*s = SpecialtyList(utils.NormalizeSpecialties(values))
	default:
		return &json.UnmarshalTypeError{Value: "specialties", Type: specialtyListType}
	}
	return nil
}

// RankedFacility is a facility positioned in a ranking for one specialty
// and patient location. It is recomputed whenever either changes.
type RankedFacility struct {
	Facility *Facility `json:"facility"`
	// DistanceKm is set only when both patient and facility positions are known
	DistanceKm *float64 `json:"distance_km,omitempty"`
	Rank       int      `json:"rank"`
}
