package services

import (
	"strings"
)

// TextHeuristic estimates extra urgency points from free-text narrative
type TextHeuristic interface {
	// Name identifies the heuristic in score breakdowns
	Name() string

	// Scan returns the points the text earns; never negative
	Scan(text string) int
}

// BoundHeuristic applies a heuristic to the answer of one question
type BoundHeuristic struct {
	QuestionID string
	Heuristic  TextHeuristic
}

// KeywordHeuristic awards points for every distinct keyword found in the
// text, regardless of how often it appears.
type KeywordHeuristic struct {
	name     string
	keywords []string
	points   int
}

// NewKeywordHeuristic creates a per-keyword heuristic. Matching ignores case.
func NewKeywordHeuristic(name string, keywords []string, pointsPerKeyword int) *KeywordHeuristic {
	return &KeywordHeuristic{name: name, keywords: foldPhrases(keywords), points: nonNegative(pointsPerKeyword)}
}

func (h *KeywordHeuristic) Name() string { return h.name }

func (h *KeywordHeuristic) Scan(text string) int {
	folded := strings.ToLower(text)
	total := 0
	for _, kw := range h.keywords {
		if strings.Contains(folded, kw) {
			total += h.points
		}
	}
	return total
}

// Matches returns the keywords found in text, in configured order
func (h *KeywordHeuristic) Matches(text string) []string {
	folded := strings.ToLower(text)
	var out []string
	for _, kw := range h.keywords {
		if strings.Contains(folded, kw) {
			out = append(out, kw)
		}
	}
	return out
}

// AnyKeywordHeuristic awards a flat amount when at least one keyword is found
type AnyKeywordHeuristic struct {
	name     string
	keywords []string
	points   int
}

// NewAnyKeywordHeuristic creates a flat heuristic. Matching ignores case.
func NewAnyKeywordHeuristic(name string, keywords []string, points int) *AnyKeywordHeuristic {
	return &AnyKeywordHeuristic{name: name, keywords: foldPhrases(keywords), points: nonNegative(points)}
}

func (h *AnyKeywordHeuristic) Name() string { return h.name }

func (h *AnyKeywordHeuristic) Scan(text string) int {
	folded := strings.ToLower(text)
	for _, kw := range h.keywords {
		if strings.Contains(folded, kw) {
			return h.points
		}
	}
	return 0
}

// PhraseTier is a group of phrases worth the same number of points
type PhraseTier struct {
	Phrases []string
	Points  int
}

// TieredPhraseHeuristic awards the points of the first tier with a matching
// phrase. Tiers are mutually exclusive and checked in the order given.
type TieredPhraseHeuristic struct {
	name  string
	tiers []PhraseTier
}

// NewTieredPhraseHeuristic creates a tiered heuristic; list the strongest tier first
func NewTieredPhraseHeuristic(name string, tiers ...PhraseTier) *TieredPhraseHeuristic {
	folded := make([]PhraseTier, 0, len(tiers))
	for _, tier := range tiers {
		folded = append(folded, PhraseTier{Phrases: foldPhrases(tier.Phrases), Points: nonNegative(tier.Points)})
	}
	return &TieredPhraseHeuristic{name: name, tiers: folded}
}

func (h *TieredPhraseHeuristic) Name() string { return h.name }

func (h *TieredPhraseHeuristic) Scan(text string) int {
	folded := strings.ToLower(text)
	for _, tier := range h.tiers {
		for _, phrase := range tier.Phrases {
			if strings.Contains(folded, phrase) {
				return tier.Points
			}
		}
	}
	return 0
}

// foldPhrases lower-cases and trims phrases, dropping blanks and duplicates
func foldPhrases(phrases []string) []string {
	seen := make(map[string]bool, len(phrases))
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		folded := strings.ToLower(strings.TrimSpace(p))
		if folded == "" || seen[folded] {
			continue
		}
		seen[folded] = true
		out = append(out, folded)
	}
	return out
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
