package session

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process. Sessions are stored
// encoded so callers never share state with the store.
type MemorySessionStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ repositories.SessionRepository = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an in-process session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetClock overrides the time source, for tests
func (s *MemorySessionStore) SetClock(now func() time.Time) {
	s.now = now
}

// Save stores the session for ttl. A non-positive ttl never expires.
func (s *MemorySessionStore) Save(ctx context.Context, session *entities.BookingSession, ttl time.Duration) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}

	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[session.ID] = entry
	s.evictExpired()
	return nil
}

// Get retrieves a session
func (s *MemorySessionStore) Get(ctx context.Context, id string) (*entities.BookingSession, error) {
	s.mu.Lock()
	entry, ok := s.entries[id]
	if ok && s.expired(entry) {
		delete(s.entries, id)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return nil, apperrors.NewSessionNotFoundError(id)
	}
	return decodeSession(entry.data)
}

// Delete removes a session
func (s *MemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Len returns the number of live sessions
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()
	return len(s.entries)
}

func (s *MemorySessionStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt)
}

// evictExpired must be called with mu held
func (s *MemorySessionStore) evictExpired() {
	for id, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, id)
		}
	}
}
