package entities

import "time"

// BookingState is a step of the booking workflow
type BookingState string

const (
	BookingStateSelectingSpecialty BookingState = "selecting_specialty"
	BookingStateSelectingFacility  BookingState = "selecting_facility"
	BookingStateSelectingDate      BookingState = "selecting_date"
	BookingStateTriage             BookingState = "triage"
	BookingStateConfirmed          BookingState = "confirmed"
)

// bookingStateOrder gives each state its position in the forward sequence
var bookingStateOrder = map[BookingState]int{
	BookingStateSelectingSpecialty: 0,
	BookingStateSelectingFacility:  1,
	BookingStateSelectingDate:      2,
	BookingStateTriage:             3,
	BookingStateConfirmed:          4,
}

// Position returns the index of the state in the forward sequence, or -1
func (s BookingState) Position() int {
	if pos, ok := bookingStateOrder[s]; ok {
		return pos
	}
	return -1
}

// WorkflowSnapshot is the serializable state of one booking workflow
type WorkflowSnapshot struct {
	State           BookingState   `json:"state"`
	Specialty       string         `json:"specialty,omitempty"`
	FacilityID      string         `json:"facility_id,omitempty"`
	Date            *time.Time     `json:"date,omitempty"`
	DateWithdrawn   bool           `json:"date_withdrawn,omitempty"`
	PatientLocation *Location      `json:"patient_location,omitempty"`
	LocationIssue   string         `json:"location_issue,omitempty"`
	Responses       TriageResponse `json:"responses,omitempty"`
	Score           *UrgencyScore  `json:"score,omitempty"`
	AppointmentID   string         `json:"appointment_id,omitempty"`
}

// BookingSession binds a workflow snapshot to a patient between requests
type BookingSession struct {
	ID        string           `json:"id"`
	PatientID string           `json:"patient_id"`
	Workflow  WorkflowSnapshot `json:"workflow"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
