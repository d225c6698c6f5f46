package reconciler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"hallbooking/config"
	"hallbooking/infras/otel/mocks"
	reservationMocks "hallbooking/internal/domains/reservation/mocks"
	"hallbooking/internal/domains/reservation/model"
	"hallbooking/internal/domains/reservation/reconciler"
	"hallbooking/internal/domains/reservation/repository"
	eventsMocks "hallbooking/internal/events/mocks"
	cacheMocks "hallbooking/shared/cache/mocks"
)

type reconcilerMocks struct {
	repo   *reservationMocks.MockReservation
	events *eventsMocks.MockPublisher
	cache  *cacheMocks.MockRedisCache
}

func newReconciler(t *testing.T, batchSize int) (*reconciler.Reconciler, *reconcilerMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := &reconcilerMocks{
		repo:   reservationMocks.NewMockReservation(ctrl),
		events: eventsMocks.NewMockPublisher(ctrl),
		cache:  cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Booking.SweepBatchSize = batchSize
	cfg.Booking.ExpirySweepSeconds = 300
	cfg.Booking.CompletionSweepSeconds = 1800

	rec := reconciler.New(m.repo, m.events, m.cache, cfg, mocks.NewOtel())

	return rec, m
}

func lapsedHold(id string) model.Reservation {
	expired := time.Now().UTC().Add(-time.Hour)

	return model.Reservation{
		ID:            id,
		TenantID:      "tenant-1",
		VenueID:       "venue-1",
		Status:        model.StatusTempHold,
		HoldExpiresAt: &expired,
	}
}

func TestExpireHolds(t *testing.T) {
	t.Parallel()

	t.Run("expires every lapsed hold in the batch", func(t *testing.T) {
		t.Parallel()

		rec, m := newReconciler(t, 500)

		holds := []model.Reservation{lapsedHold("r1"), lapsedHold("r2"), lapsedHold("r3")}

		m.repo.EXPECT().FindExpiredHolds(gomock.Any(), gomock.Any(), 500).Return(holds, nil)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, params repository.UpdateStatusParams) (model.Reservation, error) {
				assert.Equal(t, model.StatusExpired, params.To)
				assert.Equal(t, []model.Status{model.StatusTempHold}, params.From)
				assert.NotNil(t, params.HoldLapsedBefore)

				updated := lapsedHold(params.ID)
				updated.Status = model.StatusExpired

				return updated, nil
			}).Times(3)
		m.events.EXPECT().ReservationExpired(gomock.Any(), gomock.Any()).Return(nil).Times(3)
		m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).Times(3)

		assert.Equal(t, 3, rec.ExpireHolds(context.Background()))
	})

	t.Run("a hold converted concurrently is skipped without aborting the batch", func(t *testing.T) {
		t.Parallel()

		rec, m := newReconciler(t, 500)

		holds := []model.Reservation{lapsedHold("r1"), lapsedHold("r2")}

		m.repo.EXPECT().FindExpiredHolds(gomock.Any(), gomock.Any(), 500).Return(holds, nil)

		first := m.repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).Return(model.Reservation{}, repository.ErrStaleStatus)

		expired := lapsedHold("r2")
		expired.Status = model.StatusExpired
		m.repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).Return(expired, nil).After(first)

		m.events.EXPECT().ReservationExpired(gomock.Any(), gomock.Any()).Return(nil)
		m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil)

		assert.Equal(t, 1, rec.ExpireHolds(context.Background()))
	})

	t.Run("a storage failure on one row does not stop the rest", func(t *testing.T) {
		t.Parallel()

		rec, m := newReconciler(t, 500)

		holds := []model.Reservation{lapsedHold("r1"), lapsedHold("r2")}

		m.repo.EXPECT().FindExpiredHolds(gomock.Any(), gomock.Any(), 500).Return(holds, nil)

		first := m.repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).Return(model.Reservation{}, errors.New("connection reset"))

		expired := lapsedHold("r2")
		expired.Status = model.StatusExpired
		m.repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).Return(expired, nil).After(first)

		m.events.EXPECT().ReservationExpired(gomock.Any(), gomock.Any()).Return(nil)
		m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil)

		assert.Equal(t, 1, rec.ExpireHolds(context.Background()))
	})

	t.Run("batch size bounds one run, the next run drains the remainder", func(t *testing.T) {
		t.Parallel()

		rec, m := newReconciler(t, 500)

		firstBatch := make([]model.Reservation, 500)
		for i := range firstBatch {
			firstBatch[i] = lapsedHold("r" + string(rune('a'+i%26)) + "-first")
		}

		secondBatch := make([]model.Reservation, 100)
		for i := range secondBatch {
			secondBatch[i] = lapsedHold("r" + string(rune('a'+i%26)) + "-second")
		}

		gomock.InOrder(
			m.repo.EXPECT().FindExpiredHolds(gomock.Any(), gomock.Any(), 500).Return(firstBatch, nil),
			m.repo.EXPECT().FindExpiredHolds(gomock.Any(), gomock.Any(), 500).Return(secondBatch, nil),
		)

		m.repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, params repository.UpdateStatusParams) (model.Reservation, error) {
				updated := lapsedHold(params.ID)
				updated.Status = model.StatusExpired

				return updated, nil
			}).Times(600)
		m.events.EXPECT().ReservationExpired(gomock.Any(), gomock.Any()).Return(nil).Times(600)
		m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).Times(600)

		assert.Equal(t, 500, rec.ExpireHolds(context.Background()))
		assert.Equal(t, 100, rec.ExpireHolds(context.Background()))
	})

	t.Run("a scan failure ends the run quietly", func(t *testing.T) {
		t.Parallel()

		rec, m := newReconciler(t, 500)

		m.repo.EXPECT().FindExpiredHolds(gomock.Any(), gomock.Any(), 500).Return(nil, errors.New("db down"))

		assert.Zero(t, rec.ExpireHolds(context.Background()))
	})
}

func TestCompleteFinished(t *testing.T) {
	t.Parallel()

	t.Run("completes confirmed reservations whose end has passed", func(t *testing.T) {
		t.Parallel()

		rec, m := newReconciler(t, 500)

		done := model.Reservation{
			ID:       "r1",
			TenantID: "tenant-1",
			VenueID:  "venue-1",
			Status:   model.StatusConfirmed,
			TimeRange: model.TimeRange{
				StartsAt: time.Now().UTC().Add(-8 * time.Hour),
				EndsAt:   time.Now().UTC().Add(-time.Hour),
			},
		}

		m.repo.EXPECT().FindCompletable(gomock.Any(), gomock.Any(), 500).Return([]model.Reservation{done}, nil)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, params repository.UpdateStatusParams) (model.Reservation, error) {
				assert.Equal(t, []model.Status{model.StatusConfirmed}, params.From)
				assert.Equal(t, model.StatusCompleted, params.To)

				completed := done
				completed.Status = model.StatusCompleted

				return completed, nil
			})
		m.events.EXPECT().ReservationCompleted(gomock.Any(), gomock.Any()).Return(nil)
		m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil)

		assert.Equal(t, 1, rec.CompleteFinished(context.Background()))
	})

	t.Run("a reservation cancelled mid-sweep stays cancelled", func(t *testing.T) {
		t.Parallel()

		rec, m := newReconciler(t, 500)

		done := model.Reservation{ID: "r1", TenantID: "tenant-1", VenueID: "venue-1", Status: model.StatusConfirmed}

		m.repo.EXPECT().FindCompletable(gomock.Any(), gomock.Any(), 500).Return([]model.Reservation{done}, nil)
		m.repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).Return(model.Reservation{}, repository.ErrStaleStatus)

		assert.Zero(t, rec.CompleteFinished(context.Background()))
	})
}
