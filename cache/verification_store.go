package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix     = "phone:code:"
	cooldownKeyPrefix = "phone:cooldown:"
)

// ErrCodeNotFound means the session has no live code: it expired, was
// already used, or never existed.
var ErrCodeNotFound = errors.New("verification code not found")

// VerificationStore keeps one-time phone verification codes keyed by
// session id.
type VerificationStore struct {
	client   *redis.Client
	ttl      time.Duration
	cooldown time.Duration
}

func NewVerificationStore(client *redis.Client, ttl, cooldown time.Duration) *VerificationStore {
	return &VerificationStore{client: client, ttl: ttl, cooldown: cooldown}
}

// AcquireCooldown reserves the send window for phone. It returns false when
// a code was sent to the same number within the cooldown.
func (s *VerificationStore) AcquireCooldown(ctx context.Context, phone string) (bool, error) {
	if s.cooldown <= 0 {
		return true, nil
	}
	return s.client.SetNX(ctx, cooldownKeyPrefix+phone, 1, s.cooldown).Result()
}

func (s *VerificationStore) ReleaseCooldown(ctx context.Context, phone string) error {
	return s.client.Del(ctx, cooldownKeyPrefix+phone).Err()
}

func (s *VerificationStore) Save(ctx context.Context, sessionID, phone, code string) error {
	return s.client.Set(ctx, codeKeyPrefix+sessionID, phone+"|"+code, s.ttl).Err()
}

// Consume atomically reads and deletes the code of a session, so a code can
// be checked at most once.
func (s *VerificationStore) Consume(ctx context.Context, sessionID string) (phone, code string, err error) {
	val, err := s.client.GetDel(ctx, codeKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", "", ErrCodeNotFound
	}
	if err != nil {
		return "", "", err
	}
	phone, code, ok := strings.Cut(val, "|")
	if !ok {
		return "", "", ErrCodeNotFound
	}
	return phone, code, nil
}
