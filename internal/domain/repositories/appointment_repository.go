package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
)

// AppointmentRepository defines read operations on booked appointments
type AppointmentRepository interface {
	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id string) (*entities.Appointment, error)

	// ListByPatient retrieves appointments for a patient
	ListByPatient(ctx context.Context, patientID string, filter AppointmentFilter) ([]*entities.Appointment, error)
}

// AppointmentFilter defines filters for listing appointments
type AppointmentFilter struct {
	Status entities.AppointmentStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
