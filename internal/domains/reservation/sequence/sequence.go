package sequence

//go:generate go run go.uber.org/mock/mockgen -source=./sequence.go -destination=../mocks/sequence_mock.go -package=mocks

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"hallbooking/infras/otel"
	"hallbooking/internal/domains/reservation/repository"
	"hallbooking/shared"
	"hallbooking/shared/cache"
	"hallbooking/shared/constant"
)

const counterPrefix = "seq"

// Generator issues tenant-scoped booking numbers of the form PREFIX-YEAR-NNNN.
// Numbers restart at 1 each calendar year (UTC) and are unique per tenant; a
// duplicate can only slip through when the counter loses state, and the unique
// constraint on booking_number catches that.
type Generator interface {
	Next(ctx context.Context, tenantID, prefix string, now time.Time) (string, error)
}

type generatorImpl struct {
	repo  repository.Reservation
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Reservation, cache cache.RedisCache, otel otel.Otel) Generator {
	return &generatorImpl{
		repo:  repo,
		cache: cache,
		otel:  otel,
	}
}

// Next reserves the next sequence number atomically. The counter lives in
// Redis keyed by tenant and year and lapses at the year rollover, so January
// starts again from 1 without any scheduled reset.
func (g *generatorImpl) Next(ctx context.Context, tenantID, prefix string, now time.Time) (res string, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".sequence.Next")
	defer scope.End()
	defer scope.TraceIfError(err)

	year := now.UTC().Year()
	rollover := time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC)
	key := shared.BuildCacheKey(counterPrefix, tenantID, strconv.Itoa(year))

	n, err := g.cache.Increment(ctx, key, rollover)
	if err != nil {
		log.Warn().Err(err).Str("tenantID", tenantID).Msg("sequence counter unreachable, falling back to the store")

		return g.nextFromStore(ctx, key, tenantID, prefix, year, now, rollover)
	}

	if n == 1 {
		// A counter at 1 is either the first booking of the year or a counter
		// that lost its state. The store knows which.
		highest, err := g.repo.MaxBookingNumber(ctx, tenantID, prefix, year)
		if err != nil {
			return "", fmt.Errorf("failed to verify fresh sequence counter: %w", err)
		}

		if highest > 0 {
			n = int64(highest) + 1
			g.reseed(ctx, key, n, now, rollover)
		}
	}

	return Format(prefix, year, int(n)), nil
}

func (g *generatorImpl) nextFromStore(ctx context.Context, key, tenantID, prefix string, year int, now, rollover time.Time) (string, error) {
	highest, err := g.repo.MaxBookingNumber(ctx, tenantID, prefix, year)
	if err != nil {
		return "", fmt.Errorf("failed to derive sequence from the store: %w", err)
	}

	next := highest + 1
	g.reseed(ctx, key, int64(next), now, rollover)

	return Format(prefix, year, next), nil
}

// reseed pushes the counter forward to value so later increments continue
// from it. Best effort: a failed reseed only means the next caller repeats
// the store lookup.
func (g *generatorImpl) reseed(ctx context.Context, key string, value int64, now, rollover time.Time) {
	ttl := int(rollover.Sub(now).Seconds())

	if err := g.cache.Save(ctx, key, value, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to reseed sequence counter")
	}
}

func Format(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq)
}

var numberPattern = regexp.MustCompile(`^([A-Z0-9]+)-(\d{4})-(\d+)$`)

// Parse splits a booking number into its prefix, year and sequence parts.
func Parse(number string) (prefix string, year, seq int, err error) {
	match := numberPattern.FindStringSubmatch(number)
	if match == nil {
		return "", 0, 0, fmt.Errorf("malformed booking number %q", number)
	}

	year, _ = strconv.Atoi(match[2])

	seq, err = strconv.Atoi(match[3])
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed booking number %q", number)
	}

	return match[1], year, seq, nil
}

// PrefixFromName derives a three-letter prefix from a display name, e.g.
// "Grand Ballroom" becomes GRA. Only ASCII letters count so the prefix always
// matches the booking number pattern; names with fewer than three fall back
// to the configured default.
func PrefixFromName(name, fallback string) string {
	letters := make([]rune, 0, 3)

	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			letters = append(letters, unicode.ToUpper(r))
		}

		if len(letters) == 3 {
			break
		}
	}

	if len(letters) < 3 {
		return fallback
	}

	return string(letters)
}
