package utils

import (
	"strings"
)

// specialtyDelimiter separates specialties in legacy string-valued records
const specialtyDelimiter = ","

// SplitSpecialties turns a comma-delimited specialty string into the canonical
// list form: trimmed, non-empty entries in their original order.
func SplitSpecialties(raw string) []string {
	return NormalizeSpecialties(strings.Split(raw, specialtyDelimiter))
}

// NormalizeSpecialties trims every entry and drops empty ones. Entries that
// themselves contain the delimiter are split, so a list holding a legacy
// string ends up in the same canonical form.
func NormalizeSpecialties(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, specialtyDelimiter) {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

// FoldSpecialty returns the comparison form of a specialty name
func FoldSpecialty(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MatchesSpecialty reports whether any entry contains the requested name,
// ignoring case. An empty request never matches.
func MatchesSpecialty(entries []string, requested string) bool {
	needle := FoldSpecialty(requested)
	if needle == "" {
		return false
	}
	for _, entry := range entries {
		if strings.Contains(FoldSpecialty(entry), needle) {
			return true
		}
	}
	return false
}
