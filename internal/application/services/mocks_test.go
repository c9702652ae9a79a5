package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/providers"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

// MockFacilityRepository for testing
type MockFacilityRepository struct {
	mock.Mock
}

func (m *MockFacilityRepository) List(ctx context.Context) ([]*entities.Facility, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Facility), args.Error(1)
}

func (m *MockFacilityRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Facility, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Facility), args.Error(1)
}

// MockSpecialtySearch for testing
type MockSpecialtySearch struct {
	mock.Mock
}

func (m *MockSpecialtySearch) IndexSpecialties(ctx context.Context, entries []repositories.SpecialtyEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockSpecialtySearch) Suggest(ctx context.Context, prefix string, limit int) ([]repositories.SpecialtyEntry, error) {
	args := m.Called(ctx, prefix, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.SpecialtyEntry), args.Error(1)
}

// MockBookingGateway for testing
type MockBookingGateway struct {
	mock.Mock
}

func (m *MockBookingGateway) Submit(ctx context.Context, req *entities.BookingRequest) (*entities.Appointment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

// MockLocationProvider for testing
type MockLocationProvider struct {
	mock.Mock
}

func (m *MockLocationProvider) Locate(ctx context.Context, hint providers.LocationHint) (*entities.Location, error) {
	args := m.Called(ctx, hint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Location), args.Error(1)
}

// MockCacheProvider for testing
type MockCacheProvider struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func NewMockCacheProvider() *MockCacheProvider {
	return &MockCacheProvider{data: make(map[string][]byte)}
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, providers.ErrCacheMiss
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MockCacheProvider) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *MockCacheProvider) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// MockEventBus for testing
type MockEventBus struct {
	mu          sync.Mutex
	published   map[string][]*entities.DomainEvent
	subscribers map[string]chan *entities.DomainEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{
		published:   make(map[string][]*entities.DomainEvent),
		subscribers: make(map[string]chan *entities.DomainEvent),
	}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[channel] = append(m.published[channel], event)
	if ch, ok := m.subscribers[channel]; ok {
		ch <- event
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DomainEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.DomainEvent, 10)
	m.subscribers[channel] = ch
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	return nil
}

func (m *MockEventBus) Published(channel string) []*entities.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entities.DomainEvent(nil), m.published[channel]...)
}

// memorySessions is an in-memory SessionRepository
type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]entities.BookingSession
	saveErrs []error
}

// failNextSaves makes the next len(errs) saves fail with errs in order
func (m *memorySessions) failNextSaves(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErrs = append(m.saveErrs, errs...)
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string]entities.BookingSession)}
}

func (m *memorySessions) Save(ctx context.Context, session *entities.BookingSession, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saveErrs) > 0 {
		err := m.saveErrs[0]
		m.saveErrs = m.saveErrs[1:]
		return err
	}
	m.sessions[session.ID] = *session
	return nil
}

func (m *memorySessions) Get(ctx context.Context, id string) (*entities.BookingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.NewSessionNotFoundError(id)
	}
	return &session, nil
}

func (m *memorySessions) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
