package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
)

// ErrBookingRejected is wrapped by gateways when the collaborator refuses a
// request it understood, as opposed to failing to answer.
var ErrBookingRejected = errors.New("booking rejected")

// BookingGateway hands a booking request to the persistence collaborator
type BookingGateway interface {
	// Submit creates the appointment. Implementations must not retry.
	Submit(ctx context.Context, req *entities.BookingRequest) (*entities.Appointment, error)
}
