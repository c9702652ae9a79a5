package providers

import (
	"context"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.DomainEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.DomainEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelFacilityUpdates carries facility directory changes
	EventChannelFacilityUpdates = "facility:updates"

	// EventChannelBookingConfirmed carries accepted bookings
	EventChannelBookingConfirmed = "booking:confirmed"
)
