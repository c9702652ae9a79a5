package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
)

// TriageRules is the tunable part of urgency scoring: keyword vocabularies,
// their point values and optional option weight overrides. Classification
// thresholds are not part of it.
type TriageRules struct {
	SymptomKeywords    KeywordRule `json:"symptom_keywords" yaml:"symptom_keywords"`
	MedicationKeywords KeywordRule `json:"medication_keywords" yaml:"medication_keywords"`
	FunctionalImpact   ImpactRule  `json:"functional_impact" yaml:"functional_impact"`
	// ChoiceWeights replaces option weights per question, aligned with the options
	ChoiceWeights map[string][]int `json:"choice_weights,omitempty" yaml:"choice_weights,omitempty"`
}

// KeywordRule binds a keyword list to the question whose answer is scanned
type KeywordRule struct {
	QuestionID string   `json:"question_id" yaml:"question_id"`
	Keywords   []string `json:"keywords" yaml:"keywords"`
	Points     int      `json:"points" yaml:"points"`
}

// ImpactRule is the two-tier functional impact check
type ImpactRule struct {
	QuestionID      string   `json:"question_id" yaml:"question_id"`
	SeverePhrases   []string `json:"severe_phrases" yaml:"severe_phrases"`
	SeverePoints    int      `json:"severe_points" yaml:"severe_points"`
	ModeratePhrases []string `json:"moderate_phrases" yaml:"moderate_phrases"`
	ModeratePoints  int      `json:"moderate_points" yaml:"moderate_points"`
}

// DefaultTriageRules returns the built-in rule set
func DefaultTriageRules() TriageRules {
	return TriageRules{
		SymptomKeywords: KeywordRule{
			QuestionID: QuestionMainSymptom,
			Keywords: []string{
				"grave", "intensa", "intenso", "sangramento", "vómito", "vomito",
				"desmaio", "falta de ar", "dor no peito", "convuls",
				"severe", "intense", "bleeding", "vomiting", "fainting",
				"shortness of breath", "chest pain",
			},
			Points: 2,
		},
		MedicationKeywords: KeywordRule{
			QuestionID: QuestionCurrentMedications,
			Keywords: []string{
				"varfarina", "warfarin", "anticoagulante", "anticoagulant", "heparina",
				"rivaroxabano", "apixabano", "insulina", "insulin",
			},
			Points: 2,
		},
		FunctionalImpact: ImpactRule{
			QuestionID: QuestionDailyImpact,
			SeverePhrases: []string{
				"não consigo", "nao consigo", "incapaz", "acamado", "acamada",
				"cannot do anything", "unable to",
			},
			SeverePoints: 3,
			ModeratePhrases: []string{
				"dificuldade", "difícil", "dificil", "limitado", "limitada", "difficulty",
			},
			ModeratePoints: 1,
		},
	}
}

// LoadTriageRules reads rules from a YAML (.yaml, .yml) or JSON file. Fields
// missing from the file keep their default values.
func LoadTriageRules(path string) (TriageRules, error) {
	rules := DefaultTriageRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("failed to read triage rules: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &rules)
	default:
		err = json.Unmarshal(data, &rules)
	}
	if err != nil {
		return DefaultTriageRules(), fmt.Errorf("failed to parse triage rules %s: %w", path, err)
	}
	return rules, nil
}

// Validate checks the rules against the questionnaire they will score
func (r TriageRules) Validate(questions []entities.TriageQuestion) error {
	byID := make(map[string]entities.TriageQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	for _, rule := range []KeywordRule{r.SymptomKeywords, r.MedicationKeywords} {
		if err := checkTextRule(byID, rule.QuestionID, rule.Points); err != nil {
			return err
		}
	}
	if err := checkTextRule(byID, r.FunctionalImpact.QuestionID, r.FunctionalImpact.SeverePoints); err != nil {
		return err
	}
	if r.FunctionalImpact.ModeratePoints < 0 {
		return fmt.Errorf("functional impact moderate points must not be negative")
	}

	for id, weights := range r.ChoiceWeights {
		q, ok := byID[id]
		if !ok || !q.IsChoice() {
			return fmt.Errorf("choice weights given for unknown choice question %q", id)
		}
		if len(weights) != len(q.Options) {
			return fmt.Errorf("question %q has %d options but %d weights", id, len(q.Options), len(weights))
		}
		for _, w := range weights {
			if w < 0 {
				return fmt.Errorf("question %q has a negative weight", id)
			}
		}
	}
	return nil
}

func checkTextRule(byID map[string]entities.TriageQuestion, questionID string, points int) error {
	q, ok := byID[questionID]
	if !ok {
		return fmt.Errorf("rule references unknown question %q", questionID)
	}
	if q.Kind != entities.QuestionKindFreeText {
		return fmt.Errorf("rule references %q, which is not a free-text question", questionID)
	}
	if points < 0 {
		return fmt.Errorf("rule for %q has negative points", questionID)
	}
	return nil
}

// Heuristics builds the text heuristics in scoring order
func (r TriageRules) Heuristics() []BoundHeuristic {
	return []BoundHeuristic{
		{
			QuestionID: r.SymptomKeywords.QuestionID,
			Heuristic:  NewKeywordHeuristic("symptom_keywords", r.SymptomKeywords.Keywords, r.SymptomKeywords.Points),
		},
		{
			QuestionID: r.MedicationKeywords.QuestionID,
			Heuristic:  NewAnyKeywordHeuristic("medication_cross_check", r.MedicationKeywords.Keywords, r.MedicationKeywords.Points),
		},
		{
			QuestionID: r.FunctionalImpact.QuestionID,
			Heuristic: NewTieredPhraseHeuristic("functional_impact",
				PhraseTier{Phrases: r.FunctionalImpact.SeverePhrases, Points: r.FunctionalImpact.SeverePoints},
				PhraseTier{Phrases: r.FunctionalImpact.ModeratePhrases, Points: r.FunctionalImpact.ModeratePoints},
			),
		},
	}
}
