package idempotency

//go:generate go run go.uber.org/mock/mockgen -source=./idempotency.go -destination=./mocks/idempotency_mock.go -package=mocks

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hallbooking/shared"
	"hallbooking/shared/cache"
	"hallbooking/shared/failure"
)

const (
	keyPrefix = "idem"

	// MaxKeyLength bounds the accepted key size before any parsing happens.
	MaxKeyLength = 100
)

// ValidateKey rejects keys that are too long or not UUID shaped. An empty key
// is valid: it simply opts the request out of deduplication.
func ValidateKey(key string) error {
	if key == "" {
		return nil
	}

	if len(key) > MaxKeyLength {
		return failure.BadRequestFromString("idempotency key must be at most 100 characters") //nolint:wrapcheck
	}

	if _, err := uuid.Parse(key); err != nil {
		return failure.BadRequestFromString("idempotency key must be a valid UUID") //nolint:wrapcheck
	}

	return nil
}

// Guard replays previously answered requests by client key. It is a read
// shortcut in front of the store's unique constraint, never the authority:
// a cold cache only costs a round trip to the database.
type Guard interface {
	Check(ctx context.Context, tenantID, key string, out any) bool
	Record(ctx context.Context, tenantID, key string, value any)
}

type guardImpl struct {
	cache      cache.RedisCache
	ttlSeconds int
}

func New(cache cache.RedisCache, ttlSeconds int) Guard {
	return &guardImpl{
		cache:      cache,
		ttlSeconds: ttlSeconds,
	}
}

// Check reports whether the key has been answered before, filling out with
// the recorded response. Cache trouble counts as a miss; the request must not
// fail because the shortcut is down.
func (g *guardImpl) Check(ctx context.Context, tenantID, key string, out any) bool {
	if key == "" {
		return false
	}

	err := g.cache.Get(ctx, shared.BuildCacheKey(keyPrefix, tenantID, key), out)
	if err == nil {
		return true
	}

	if !errors.Is(err, cache.Nil) {
		log.Warn().Err(err).Msg("idempotency lookup failed, treating as a miss")
	}

	return false
}

// Record remembers the response for successful requests only, so a failed
// attempt can be retried with the same key.
func (g *guardImpl) Record(ctx context.Context, tenantID, key string, value any) {
	if key == "" {
		return
	}

	if err := g.cache.Save(ctx, shared.BuildCacheKey(keyPrefix, tenantID, key), value, g.ttlSeconds); err != nil {
		log.Warn().Err(err).Msg("failed to record idempotency key")
	}
}
