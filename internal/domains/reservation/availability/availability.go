package availability

//go:generate go run go.uber.org/mock/mockgen -source=./availability.go -destination=../mocks/availability_mock.go -package=mocks

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"hallbooking/config"
	"hallbooking/infras/otel"
	"hallbooking/internal/domains/reservation/model"
	"hallbooking/internal/domains/reservation/repository"
	venueModel "hallbooking/internal/domains/venue/model"
	venueRepository "hallbooking/internal/domains/venue/repository"
	"hallbooking/shared"
	"hallbooking/shared/cache"
	"hallbooking/shared/constant"
	"hallbooking/shared/failure"
	"hallbooking/shared/timezone"
)

// ReservedSlot is an occupied stretch of the calendar as shown to callers.
type ReservedSlot struct {
	ID            string       `json:"id"`
	BookingNumber string       `json:"booking_number"`
	Status        model.Status `json:"status"`
	model.TimeRange
}

// BlackoutSlot is a venue closure. It makes a range unavailable but is not a
// reservation and cannot be cancelled through the booking flow.
type BlackoutSlot struct {
	Reason string `json:"reason"`
	model.TimeRange
}

type Result struct {
	Available    bool              `json:"available"`
	Conflicts    []ReservedSlot    `json:"conflicts"`
	Blackouts    []BlackoutSlot    `json:"blackouts"`
	Alternatives []model.TimeRange `json:"alternatives"`
}

// Day is one calendar day in the venue's timezone.
type Day struct {
	Date         string         `json:"date"`
	Available    bool           `json:"available"`
	Reservations []ReservedSlot `json:"reservations"`
}

// Checker answers read-side availability questions. Its overlap semantics are
// the same half-open rule the store enforces on insert, so a "free" answer
// here can only be invalidated by a later write, never by disagreement.
type Checker interface {
	Check(ctx context.Context, tenantID, venueID string, want model.TimeRange, excludeID string) (Result, error)
	Calendar(ctx context.Context, tenantID, venueID string, from time.Time, days int, loc *time.Location) ([]Day, error)
}

type checkerImpl struct {
	reservations repository.Reservation
	blackouts    venueRepository.Blackout
	cfg          *config.Config
	cache        cache.RedisCache
	otel         otel.Otel
}

func New(reservations repository.Reservation, blackouts venueRepository.Blackout, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Checker {
	return &checkerImpl{
		reservations: reservations,
		blackouts:    blackouts,
		cfg:          cfg,
		cache:        cache,
		otel:         otel,
	}
}

func cacheKey(tenantID, venueID string, want model.TimeRange, excludeID string) string {
	parts := []string{
		constant.CacheKeyAvailability,
		tenantID,
		venueID,
		strconv.FormatInt(want.StartsAt.Unix(), 10),
		strconv.FormatInt(want.EndsAt.Unix(), 10),
	}

	if excludeID != "" {
		parts = append(parts, excludeID)
	}

	return shared.BuildCacheKey(parts...)
}

func (c *checkerImpl) Check(ctx context.Context, tenantID, venueID string, want model.TimeRange, excludeID string) (res Result, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".availability.Check")
	defer scope.End()
	defer scope.TraceIfError(err)

	key := cacheKey(tenantID, venueID, want, excludeID)

	err = c.cache.Get(ctx, key, &res)
	if err == nil {
		return res, nil
	}

	conflicts, err := c.reservations.FindConflicts(ctx, tenantID, venueID, want.StartsAt, want.EndsAt, excludeID)
	if err != nil {
		log.Error().Err(err).Msg("failed to find conflicting reservations")

		return res, fmt.Errorf("failed to find conflicting reservations: %w", err)
	}

	blackouts, err := c.blackouts.FindOverlapping(ctx, tenantID, venueID, want.StartsAt, want.EndsAt)
	if err != nil {
		log.Error().Err(err).Msg("failed to find overlapping blackouts")

		return res, fmt.Errorf("failed to find overlapping blackouts: %w", err)
	}

	res.Conflicts = reservedSlots(conflicts)
	res.Blackouts = blackoutSlots(blackouts)
	res.Available = len(res.Conflicts) == 0 && len(res.Blackouts) == 0

	if !res.Available {
		busy := make([]model.TimeRange, 0, len(conflicts)+len(blackouts))
		for _, conflict := range conflicts {
			busy = append(busy, conflict.TimeRange)
		}

		for _, blackout := range blackouts {
			busy = append(busy, model.TimeRange{StartsAt: blackout.StartsAt, EndsAt: blackout.EndsAt})
		}

		res.Alternatives = SuggestAlternatives(busy, want, timezone.NowUTC(), c.cfg.Booking.MaxAlternatives)
	}

	go func() {
		bg := context.WithoutCancel(ctx)

		if err := c.cache.Save(bg, key, res, c.cfg.Booking.AvailabilityTTLSeconds); err != nil {
			log.Error().Err(err).Msg("failed to save availability result to cache")
		}
	}()

	return res, nil
}

// Calendar buckets the venue's active reservations into per-day entries for
// up to the configured maximum span, with day boundaries taken in the venue's
// timezone.
func (c *checkerImpl) Calendar(ctx context.Context, tenantID, venueID string, from time.Time, days int, loc *time.Location) (res []Day, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".availability.Calendar")
	defer scope.End()
	defer scope.TraceIfError(err)

	if days < 1 {
		return nil, failure.BadRequestFromString("calendar span must be at least one day") //nolint:wrapcheck
	}

	if days > c.cfg.Booking.CalendarMaxDays {
		return nil, failure.BadRequestFromString(fmt.Sprintf("calendar span must not exceed %d days", c.cfg.Booking.CalendarMaxDays)) //nolint:wrapcheck
	}

	if loc == nil {
		loc = time.UTC
	}

	local := from.In(loc)
	windowStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	windowEnd := windowStart.AddDate(0, 0, days)

	reservations, err := c.reservations.FindConflicts(ctx, tenantID, venueID, windowStart.UTC(), windowEnd.UTC(), "")
	if err != nil {
		log.Error().Err(err).Msg("failed to list reservations for calendar")

		return nil, fmt.Errorf("failed to list reservations for calendar: %w", err)
	}

	blackouts, err := c.blackouts.FindOverlapping(ctx, tenantID, venueID, windowStart.UTC(), windowEnd.UTC())
	if err != nil {
		log.Error().Err(err).Msg("failed to list blackouts for calendar")

		return nil, fmt.Errorf("failed to list blackouts for calendar: %w", err)
	}

	res = make([]Day, 0, days)

	for i := range days {
		dayStart := windowStart.AddDate(0, 0, i)
		dayRange := model.TimeRange{StartsAt: dayStart.UTC(), EndsAt: dayStart.AddDate(0, 0, 1).UTC()}

		day := Day{
			Date:      dayStart.Format(time.DateOnly),
			Available: true,
		}

		for _, reservation := range reservations {
			if reservation.TimeRange.Overlaps(dayRange) {
				day.Reservations = append(day.Reservations, reservedSlot(reservation))
				day.Available = false
			}
		}

		for _, blackout := range blackouts {
			if dayRange.Overlaps(model.TimeRange{StartsAt: blackout.StartsAt, EndsAt: blackout.EndsAt}) {
				day.Available = false
			}
		}

		res = append(res, day)
	}

	return res, nil
}

func reservedSlot(r model.Reservation) ReservedSlot {
	return ReservedSlot{
		ID:            r.ID,
		BookingNumber: r.BookingNumber,
		Status:        r.Status,
		TimeRange:     r.TimeRange,
	}
}

func reservedSlots(reservations []model.Reservation) []ReservedSlot {
	slots := make([]ReservedSlot, len(reservations))
	for i, r := range reservations {
		slots[i] = reservedSlot(r)
	}

	return slots
}

func blackoutSlots(blackouts []venueModel.VenueBlackout) []BlackoutSlot {
	slots := make([]BlackoutSlot, len(blackouts))
	for i, b := range blackouts {
		slots[i] = BlackoutSlot{
			Reason:    b.Reason,
			TimeRange: model.TimeRange{StartsAt: b.StartsAt, EndsAt: b.EndsAt},
		}
	}

	return slots
}

// SuggestAlternatives proposes up to max free slots of the requested duration
// close to the wanted range: one ending where the earliest busy stretch
// begins and one starting where each busy stretch ends. Advisory only; the
// store re-checks whichever slot the caller picks.
func SuggestAlternatives(busy []model.TimeRange, want model.TimeRange, notBefore time.Time, max int) []model.TimeRange {
	if max <= 0 || len(busy) == 0 {
		return nil
	}

	merged := mergeRanges(busy)
	duration := want.Duration()

	candidates := make([]model.TimeRange, 0, len(merged)+1)
	candidates = append(candidates, model.TimeRange{
		StartsAt: merged[0].StartsAt.Add(-duration),
		EndsAt:   merged[0].StartsAt,
	})

	for _, b := range merged {
		candidates = append(candidates, model.TimeRange{
			StartsAt: b.EndsAt,
			EndsAt:   b.EndsAt.Add(duration),
		})
	}

	out := make([]model.TimeRange, 0, max)

	for _, candidate := range candidates {
		if candidate.StartsAt.Before(notBefore) {
			continue
		}

		if overlapsAny(candidate, merged) {
			continue
		}

		out = append(out, candidate)

		if len(out) == max {
			break
		}
	}

	return out
}

// mergeRanges coalesces overlapping and touching ranges into a sorted,
// disjoint set.
func mergeRanges(ranges []model.TimeRange) []model.TimeRange {
	sorted := make([]model.TimeRange, len(ranges))
	copy(sorted, ranges)

	slices.SortFunc(sorted, func(a, b model.TimeRange) int {
		return a.StartsAt.Compare(b.StartsAt)
	})

	merged := sorted[:0]

	for _, r := range sorted {
		if len(merged) == 0 || merged[len(merged)-1].EndsAt.Before(r.StartsAt) {
			merged = append(merged, r)
			continue
		}

		if r.EndsAt.After(merged[len(merged)-1].EndsAt) {
			merged[len(merged)-1].EndsAt = r.EndsAt
		}
	}

	return merged
}

func overlapsAny(candidate model.TimeRange, ranges []model.TimeRange) bool {
	for _, r := range ranges {
		if candidate.Overlaps(r) {
			return true
		}
	}

	return false
}
