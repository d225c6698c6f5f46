package reconciler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"hallbooking/config"
	"hallbooking/infras/otel"
	"hallbooking/internal/domains/reservation/model"
	"hallbooking/internal/domains/reservation/repository"
	"hallbooking/internal/events"
	"hallbooking/shared"
	"hallbooking/shared/cache"
	"hallbooking/shared/constant"
	"hallbooking/shared/timezone"
)

// actor recorded on rows the sweeps touch, so audit fields distinguish
// time-driven transitions from user actions.
const actor = "system"

// Reconciler drives the two time-triggered lifecycle transitions no client
// request would otherwise cause: expiring lapsed temporary holds and
// completing confirmed reservations whose event has ended. Each sweep is
// single-flight; a tick that fires while the previous run is still going is
// skipped, not queued, because the next tick catches up anyway.
type Reconciler struct {
	repo   repository.Reservation
	events events.Publisher
	cache  cache.RedisCache
	cfg    *config.Config
	otel   otel.Otel

	expiryRunning     atomic.Bool
	completionRunning atomic.Bool
}

func New(repo repository.Reservation, publisher events.Publisher, cache cache.RedisCache, cfg *config.Config, otel otel.Otel) *Reconciler {
	return &Reconciler{
		repo:   repo,
		events: publisher,
		cache:  cache,
		cfg:    cfg,
		otel:   otel,
	}
}

// Start runs both sweep loops until the context is cancelled. Each loop does
// one pass immediately so a restarted process does not wait a full interval
// before catching up on overdue transitions.
func (r *Reconciler) Start(ctx context.Context) {
	go r.loop(ctx, time.Duration(r.cfg.Booking.ExpirySweepSeconds)*time.Second, r.ExpireHolds)
	go r.loop(ctx, time.Duration(r.cfg.Booking.CompletionSweepSeconds)*time.Second, r.CompleteFinished)
}

func (r *Reconciler) loop(ctx context.Context, interval time.Duration, sweep func(context.Context) int) {
	sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx)
		}
	}
}

// ExpireHolds moves lapsed temporary holds to expired, releasing their time
// ranges. Returns the number of holds expired in this run.
func (r *Reconciler) ExpireHolds(ctx context.Context) int {
	if !r.expiryRunning.CompareAndSwap(false, true) {
		log.Warn().Msg("expiry sweep still running, skipping this tick")

		return 0
	}
	defer r.expiryRunning.Store(false)

	ctx, scope := r.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".reconciler.ExpireHolds")
	defer scope.End()

	now := timezone.NowUTC()

	holds, err := r.repo.FindExpiredHolds(ctx, now, r.cfg.Booking.SweepBatchSize)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to find expired holds")

		return 0
	}

	expired := 0

	for _, hold := range holds {
		// The hold guard makes the sweep lose to any concurrent conversion or
		// extension: the row only expires if it is still a lapsed temp hold.
		updated, err := r.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
			TenantID:         hold.TenantID,
			ID:               hold.ID,
			From:             []model.Status{model.StatusTempHold},
			To:               model.StatusExpired,
			ModifiedBy:       actor,
			HoldLapsedBefore: &now,
		})
		if err != nil {
			if !errors.Is(err, repository.ErrStaleStatus) {
				log.Error().Err(err).Str("reservationID", hold.ID).Msg("failed to expire hold")
			}

			continue
		}

		expired++

		r.afterTransition(ctx, updated, r.events.ReservationExpired, "failed to publish reservation expired event")
	}

	log.Info().Int("found", len(holds)).Int("expired", expired).Msg("hold expiry sweep finished")
	scope.SetAttribute("sweep.expired", expired)

	return expired
}

// CompleteFinished moves confirmed reservations whose end time has passed to
// completed. Returns the number of reservations completed in this run.
func (r *Reconciler) CompleteFinished(ctx context.Context) int {
	if !r.completionRunning.CompareAndSwap(false, true) {
		log.Warn().Msg("completion sweep still running, skipping this tick")

		return 0
	}
	defer r.completionRunning.Store(false)

	ctx, scope := r.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".reconciler.CompleteFinished")
	defer scope.End()

	now := timezone.NowUTC()

	reservations, err := r.repo.FindCompletable(ctx, now, r.cfg.Booking.SweepBatchSize)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to find completable reservations")

		return 0
	}

	completed := 0

	for _, reservation := range reservations {
		updated, err := r.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
			TenantID:   reservation.TenantID,
			ID:         reservation.ID,
			From:       []model.Status{model.StatusConfirmed},
			To:         model.StatusCompleted,
			ModifiedBy: actor,
		})
		if err != nil {
			if !errors.Is(err, repository.ErrStaleStatus) {
				log.Error().Err(err).Str("reservationID", reservation.ID).Msg("failed to complete reservation")
			}

			continue
		}

		completed++

		r.afterTransition(ctx, updated, r.events.ReservationCompleted, "failed to publish reservation completed event")
	}

	log.Info().Int("found", len(reservations)).Int("completed", completed).Msg("completion sweep finished")
	scope.SetAttribute("sweep.completed", completed)

	return completed
}

func (r *Reconciler) afterTransition(ctx context.Context, reservation model.Reservation, publish func(context.Context, model.Reservation) error, failMsg string) {
	if err := publish(ctx, reservation); err != nil {
		log.Error().Err(err).Str("reservationID", reservation.ID).Msg(failMsg)
	}

	shared.InvalidateCaches(ctx, r.cache, shared.BuildCacheKey(constant.CacheKeyAvailability, reservation.TenantID, reservation.VenueID))
}
