package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/Patientbookingtriage/internal/domain/entities"
	"github.com/zatekoja/Patientbookingtriage/internal/domain/repositories"
	redisclient "github.com/zatekoja/Patientbookingtriage/internal/infrastructure/clients/redis"
	apperrors "github.com/zatekoja/Patientbookingtriage/pkg/errors"
)

const keyPrefix = "booking:session:"

// RedisSessionStore keeps booking sessions in Redis with a sliding TTL
type RedisSessionStore struct {
	client *redisclient.Client
}

var _ repositories.SessionRepository = (*RedisSessionStore)(nil)

// NewRedisSessionStore creates a Redis-backed session store
func NewRedisSessionStore(client *redisclient.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Save stores the session for ttl
func (s *RedisSessionStore) Save(ctx context.Context, session *entities.BookingSession, ttl time.Duration) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}
	if err := s.client.Client().Set(ctx, sessionKey(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

// Get retrieves a session
func (s *RedisSessionStore) Get(ctx context.Context, id string) (*entities.BookingSession, error) {
	data, err := s.client.Client().Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewSessionNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load booking session", err)
	}
	return decodeSession(data)
}

// Delete removes a session
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Client().Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

func sessionKey(id string) string {
	return keyPrefix + id
}

func encodeSession(session *entities.BookingSession) ([]byte, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session %s: %w", session.ID, err)
	}
	return data, nil
}

func decodeSession(data []byte) (*entities.BookingSession, error) {
	var session entities.BookingSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperrors.NewInternalError("failed to decode booking session", err)
	}
	return &session, nil
}
