package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore отзывает токены до истечения их срока.
type SessionStore interface {
	// RevokeToken отзывает один токен по jti на время ttl.
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	// IsTokenRevoked проверяет, отозван ли токен.
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	// RevokeUser отзывает все токены сотрудника, выданные до текущего момента.
	RevokeUser(ctx context.Context, userID uuid.UUID, ttl time.Duration) error
	// IsUserRevoked проверяет, выдан ли токен до отзыва сессий сотрудника.
	// Метки сравниваются с точностью до микросекунды.
	IsUserRevoked(ctx context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error)
}

const sessionKeyPrefix = "oficina:session:"

// RedisSessionStore хранит отзывы токенов в Redis с TTL.
type RedisSessionStore struct {
	client redis.UniversalClient
}

// NewRedisSessionStore создаёт хранилище поверх готового клиента.
func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func jtiKey(jti string) string {
	return sessionKeyPrefix + "jti:" + jti
}

func userKey(userID uuid.UUID) string {
	return sessionKeyPrefix + "user:" + userID.String()
}

// RevokeToken реализует SessionStore.
func (s *RedisSessionStore) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked реализует SessionStore.
func (s *RedisSessionStore) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}
	return n > 0, nil
}

// RevokeUser реализует SessionStore.
func (s *RedisSessionStore) RevokeUser(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, userKey(userID), time.Now().UnixMicro(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return nil
}

// IsUserRevoked реализует SessionStore.
func (s *RedisSessionStore) IsUserRevoked(ctx context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error) {
	raw, err := s.client.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user sessions: %w", err)
	}

	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp: %w", err)
	}
	return issuedAt.UnixMicro() <= revokedAt, nil
}

var _ SessionStore = (*RedisSessionStore)(nil)

// InMemorySessionStore - хранилище отзывов в памяти процесса.
// Используется, когда Redis не настроен, и в тестах.
type InMemorySessionStore struct {
	mu      sync.Mutex
	tokens  map[string]time.Time
	users   map[uuid.UUID]time.Time
	nowFunc func() time.Time
}

// NewInMemorySessionStore создаёт пустое хранилище.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		tokens:  make(map[string]time.Time),
		users:   make(map[uuid.UUID]time.Time),
		nowFunc: time.Now,
	}
}

// RevokeToken реализует SessionStore.
func (s *InMemorySessionStore) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[jti] = s.nowFunc().Add(ttl)
	return nil
}

// IsTokenRevoked реализует SessionStore.
func (s *InMemorySessionStore) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.tokens[jti]
	if !ok {
		return false, nil
	}
	if s.nowFunc().After(expiresAt) {
		delete(s.tokens, jti)
		return false, nil
	}
	return true, nil
}

// RevokeUser реализует SessionStore. TTL не нужен: метка сравнивается
// только с токенами, которые и так истекают.
func (s *InMemorySessionStore) RevokeUser(_ context.Context, userID uuid.UUID, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = s.nowFunc()
	return nil
}

// IsUserRevoked реализует SessionStore.
func (s *InMemorySessionStore) IsUserRevoked(_ context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	revokedAt, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	return issuedAt.UnixMicro() <= revokedAt.UnixMicro(), nil
}

var _ SessionStore = (*InMemorySessionStore)(nil)
