package entities

import (
	"strings"

	"github.com/goccy/go-json"
)

// TriageCategory groups questions of the triage questionnaire
type TriageCategory string

const (
	TriageCategoryCurrentSymptoms TriageCategory = "current_symptoms"
	TriageCategoryMedicalHistory  TriageCategory = "medical_history"
	TriageCategoryRiskFactors     TriageCategory = "risk_factors"
	TriageCategoryAlertSymptoms   TriageCategory = "alert_symptoms"
	TriageCategoryLifeImpact      TriageCategory = "life_impact"
	TriageCategoryAdditionalInfo  TriageCategory = "additional_info"
)

// QuestionKind is the input kind of a triage question
type QuestionKind string

const (
	QuestionKindFreeText     QuestionKind = "free_text"
	QuestionKindSingleChoice QuestionKind = "single_choice"
	QuestionKindMultiChoice  QuestionKind = "multi_choice"
)

// QuestionOption is one selectable option of a choice question
type QuestionOption struct {
	Label  string `json:"label"`
	Weight int    `json:"weight"`
}

// TriageQuestion is an immutable questionnaire entry
type TriageQuestion struct {
	ID       string           `json:"id"`
	Prompt   string           `json:"prompt"`
	Category TriageCategory   `json:"category"`
	Kind     QuestionKind     `json:"kind"`
	Options  []QuestionOption `json:"options,omitempty"`
}

// IsChoice reports whether the question is answered by selecting options
func (q TriageQuestion) IsChoice() bool {
	return q.Kind == QuestionKindSingleChoice || q.Kind == QuestionKindMultiChoice
}

// Option returns the option with the given label
func (q TriageQuestion) Option(label string) (QuestionOption, bool) {
	for _, opt := range q.Options {
		if opt.Label == label {
			return opt, true
		}
	}
	return QuestionOption{}, false
}

// Clone returns a copy that shares no memory with q
func (q TriageQuestion) Clone() TriageQuestion {
	out := q
	if q.Options != nil {
		out.Options = make([]QuestionOption, len(q.Options))
		copy(out.Options, q.Options)
	}
	return out
}

// TriageAnswer is either a single string (free text, single choice) or a list
// of strings (multi choice).
type TriageAnswer struct {
	values []string
	list   bool
}

// TextAnswer builds a single-valued answer
func TextAnswer(value string) TriageAnswer {
	return TriageAnswer{values: []string{value}}
}

// ListAnswer builds a list-valued answer
func ListAnswer(values ...string) TriageAnswer {
	out := make([]string, len(values))
	copy(out, values)
	return TriageAnswer{values: out, list: true}
}

// IsList reports whether the answer is list-valued
func (a TriageAnswer) IsList() bool { return a.list }

// Text returns the answer as text. List answers are joined with ", ".
func (a TriageAnswer) Text() string {
	return strings.Join(a.values, ", ")
}

// Values returns a copy of the selected values
func (a TriageAnswer) Values() []string {
	out := make([]string, len(a.values))
	copy(out, a.values)
	return out
}

// IsEmpty reports whether the answer carries no non-blank value
func (a TriageAnswer) IsEmpty() bool {
	for _, v := range a.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the answer as a string or a list of strings
func (a TriageAnswer) MarshalJSON() ([]byte, error) {
	if a.list {
		if a.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.values)
	}
	return json.Marshal(a.Text())
}

// UnmarshalJSON accepts a string or a list of strings
func (a *TriageAnswer) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*a = TextAnswer(text)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*a = ListAnswer(list...)
	return nil
}

// TriageResponse maps question IDs to answers for one booking attempt
type TriageResponse map[string]TriageAnswer

// Clone returns an independent copy of the response set
func (r TriageResponse) Clone() TriageResponse {
	out := make(TriageResponse, len(r))
	for id, answer := range r {
		if answer.list {
			out[id] = ListAnswer(answer.values...)
		} else {
			out[id] = answer
		}
	}
	return out
}
