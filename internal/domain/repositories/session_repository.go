package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
)

// SessionRepository persists booking sessions between requests
type SessionRepository interface {
	// Save stores the session, replacing any previous version, for ttl
	Save(ctx context.Context, session *entities.BookingSession, ttl time.Duration) error

	// Get retrieves a session; a missing or expired session is a not found error
	Get(ctx context.Context, id string) (*entities.BookingSession, error)

	// Delete removes a session
	Delete(ctx context.Context, id string) error
}
