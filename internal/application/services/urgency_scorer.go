package services

import (
	"fmt"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

const ruleChoiceWeight = "choice_weight"

// UrgencyScorer turns a triage response into an urgency classification.
// It holds no mutable state and is safe for concurrent use.
type UrgencyScorer struct {
	questions  []entities.TriageQuestion
	byID       map[string]int
	heuristics []BoundHeuristic
}

// NewUrgencyScorer creates a scorer for the questionnaire. Option weights in
// rules.ChoiceWeights override those of the questions.
func NewUrgencyScorer(questions []entities.TriageQuestion, rules TriageRules) (*UrgencyScorer, error) {
	if err := rules.Validate(questions); err != nil {
		return nil, fmt.Errorf("invalid triage rules: %w", err)
	}

	s := &UrgencyScorer{
		questions:  make([]entities.TriageQuestion, len(questions)),
		byID:       make(map[string]int, len(questions)),
		heuristics: rules.Heuristics(),
	}
	for i, q := range questions {
		q = q.Clone()
		if weights, ok := rules.ChoiceWeights[q.ID]; ok {
			for j := range q.Options {
				q.Options[j].Weight = weights[j]
			}
		}
		for _, opt := range q.Options {
			if opt.Weight < 0 {
				return nil, fmt.Errorf("question %q option %q has a negative weight", q.ID, opt.Label)
			}
		}
		if _, dup := s.byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		s.questions[i] = q
		s.byID[q.ID] = i
	}
	return s, nil
}

// NewDefaultUrgencyScorer creates a scorer for the built-in questionnaire and rules
func NewDefaultUrgencyScorer() *UrgencyScorer {
	s, err := NewUrgencyScorer(DefaultTriageQuestions(), DefaultTriageRules())
	if err != nil {
		panic(err)
	}
	return s
}

// Questions returns the questionnaire, with effective weights, in order
func (s *UrgencyScorer) Questions() []entities.TriageQuestion {
	out := make([]entities.TriageQuestion, len(s.questions))
	for i, q := range s.questions {
		out[i] = q.Clone()
	}
	return out
}

// Question returns one question by ID
func (s *UrgencyScorer) Question(id string) (entities.TriageQuestion, bool) {
	i, ok := s.byID[id]
	if !ok {
		return entities.TriageQuestion{}, false
	}
	return s.questions[i].Clone(), true
}

// Score computes the urgency of a complete or partial response set.
// Unanswered questions and unknown options contribute nothing.
func (s *UrgencyScorer) Score(responses entities.TriageResponse) entities.UrgencyScore {
	var breakdown []entities.ScoreContribution
	total := 0

	for _, q := range s.questions {
		if !q.IsChoice() {
			continue
		}
		answer, ok := responses[q.ID]
		if !ok {
			continue
		}
		if points := choicePoints(q, answer); points > 0 {
			total += points
			breakdown = append(breakdown, entities.ScoreContribution{Rule: ruleChoiceWeight, QuestionID: q.ID, Points: points})
		}
	}

	for _, bound := range s.heuristics {
		answer, ok := responses[bound.QuestionID]
		if !ok || answer.IsEmpty() {
			continue
		}
		if points := bound.Heuristic.Scan(answer.Text()); points > 0 {
			total += points
			breakdown = append(breakdown, entities.ScoreContribution{Rule: bound.Heuristic.Name(), QuestionID: bound.QuestionID, Points: points})
		}
	}

	label := entities.ClassifyUrgency(total)
	return entities.UrgencyScore{
		Points:    total,
		Label:     label,
		Color:     label.Color(),
		Breakdown: breakdown,
	}
}

// choicePoints sums the weights of the selected options. A single-choice
// question only counts its first selection; repeated selections count once.
func choicePoints(q entities.TriageQuestion, answer entities.TriageAnswer) int {
	values := answer.Values()
	if q.Kind == entities.QuestionKindSingleChoice && len(values) > 1 {
		values = values[:1]
	}

	seen := make(map[string]bool, len(values))
	total := 0
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		if opt, ok := q.Option(v); ok {
			total += opt.Weight
		}
	}
	return total
}

// ValidateAnswer checks that answer fits the question's input kind and options
func (s *UrgencyScorer) ValidateAnswer(questionID string, answer entities.TriageAnswer) error {
	q, ok := s.Question(questionID)
	if !ok {
		return invalidAnswer(fmt.Errorf("unknown question %q", questionID))
	}

	switch q.Kind {
	case entities.QuestionKindFreeText:
		if answer.IsList() {
			return invalidAnswer(fmt.Errorf("question %q expects text", questionID))
		}
	case entities.QuestionKindSingleChoice:
		if answer.IsList() {
			return invalidAnswer(fmt.Errorf("question %q expects one option", questionID))
		}
		if _, ok := q.Option(answer.Text()); !ok {
			return invalidAnswer(fmt.Errorf("%q is not an option of %q", answer.Text(), questionID))
		}
	case entities.QuestionKindMultiChoice:
		for _, v := range answer.Values() {
			if _, ok := q.Option(v); !ok {
				return invalidAnswer(fmt.Errorf("%q is not an option of %q", v, questionID))
			}
		}
	}
	return nil
}

func invalidAnswer(cause error) error {
	err := apperrors.NewRefusal(apperrors.ReasonInvalidAnswer)
	err.Err = cause
	return err
}
