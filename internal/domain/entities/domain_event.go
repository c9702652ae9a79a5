package entities

import (
	"time"

	"github.com/google/uuid"
)

// DomainEventType represents the type of a published domain event
type DomainEventType string

const (
	DomainEventFacilityUpdated  DomainEventType = "facility_updated"
	DomainEventCatalogReloaded  DomainEventType = "catalog_reloaded"
	DomainEventBookingConfirmed DomainEventType = "booking_confirmed"
)

// DomainEvent is the payload carried by the event bus
type DomainEvent struct {
	ID          string                 `json:"id"`
	Type        DomainEventType        `json:"type"`
	AggregateID string                 `json:"aggregate_id"`
	Timestamp   time.Time              `json:"timestamp"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// NewDomainEvent creates an event stamped with a fresh ID and the current time
func NewDomainEvent(eventType DomainEventType, aggregateID string, data map[string]interface{}) *DomainEvent {
	return &DomainEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		Timestamp:   time.Now().UTC(),
		Data:        data,
	}
}
