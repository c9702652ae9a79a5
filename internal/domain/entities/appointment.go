package entities

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// BookingRequest is the terminal artifact of a booking attempt. It is handed
// to the booking collaborator, which owns the resulting appointment.
type BookingRequest struct {
	PatientID     string       `json:"patientId" validate:"required"`
	DateTime      time.Time    `json:"dateTime" validate:"required"`
	UrgencyLabel  UrgencyLabel `json:"urgencyLabel" validate:"required,urgency_label"`
	FacilityName  string       `json:"facilityName" validate:"required"`
	FacilityID    string       `json:"facilityId,omitempty"`
	Specialty     string       `json:"specialty,omitempty"`
	UrgencyPoints int          `json:"urgencyPoints" validate:"min=0"`

	// IdempotencyKey identifies the booking attempt. Sinks return the
	// appointment already created under the same key instead of booking twice.
	IdempotencyKey string `json:"-"`
}

// Appointment represents a booked appointment as returned by the collaborator
type Appointment struct {
	ID            string            `json:"id" db:"id"`
	PatientID     string            `json:"patient_id" db:"patient_id"`
	FacilityID    string            `json:"facility_id,omitempty" db:"facility_id"`
	FacilityName  string            `json:"facility_name" db:"facility_name"`
	Specialty     string            `json:"specialty,omitempty" db:"specialty"`
	ScheduledAt   time.Time         `json:"scheduled_at" db:"scheduled_at"`
	UrgencyLabel  UrgencyLabel      `json:"urgency_label" db:"urgency_label"`
	UrgencyPoints int               `json:"urgency_points" db:"urgency_points"`
	Status        AppointmentStatus `json:"status" db:"status"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
}
