package entities

// UrgencyLabel is the externally visible urgency classification
type UrgencyLabel string

const (
	UrgencyLow       UrgencyLabel = "Low"
	UrgencyMedium    UrgencyLabel = "Medium"
	UrgencyHigh      UrgencyLabel = "High"
	UrgencyEmergency UrgencyLabel = "Emergency"
)

// Classification thresholds, inclusive. Changing them changes the public
// contract and needs a migration note.
const (
	UrgencyThresholdMedium    = 5
	UrgencyThresholdHigh      = 10
	UrgencyThresholdEmergency = 15
)

var urgencyColors = map[UrgencyLabel]string{
	UrgencyLow:       "#4CAF50",
	UrgencyMedium:    "#FFC107",
	UrgencyHigh:      "#FF9800",
	UrgencyEmergency: "#F44336",
}

// ClassifyUrgency maps a point total to its label
func ClassifyUrgency(points int) UrgencyLabel {
	switch {
	case points >= UrgencyThresholdEmergency:
		return UrgencyEmergency
	case points >= UrgencyThresholdHigh:
		return UrgencyHigh
	case points >= UrgencyThresholdMedium:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Color returns the display color of the label
func (l UrgencyLabel) Color() string {
	return urgencyColors[l]
}

// Valid reports whether l belongs to the label vocabulary
func (l UrgencyLabel) Valid() bool {
	_, ok := urgencyColors[l]
	return ok
}

// ScoreContribution records the points one rule added to a score
type ScoreContribution struct {
	Rule       string `json:"rule"`
	QuestionID string `json:"question_id"`
	Points     int    `json:"points"`
}

// UrgencyScore is derived from a triage response and never stored on its own
type UrgencyScore struct {
	Points    int                 `json:"points"`
	Label     UrgencyLabel        `json:"label"`
	Color     string              `json:"color"`
	Breakdown []ScoreContribution `json:"breakdown"`
}
