package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"hallbooking/config"
	"hallbooking/infras/otel/mocks"
	customerMocks "hallbooking/internal/domains/customer/mocks"
	customerModel "hallbooking/internal/domains/customer/model"
	"hallbooking/internal/domains/reservation/availability"
	reservationMocks "hallbooking/internal/domains/reservation/mocks"
	"hallbooking/internal/domains/reservation/model"
	"hallbooking/internal/domains/reservation/model/dto"
	"hallbooking/internal/domains/reservation/repository"
	"hallbooking/internal/domains/reservation/service"
	tenantModel "hallbooking/internal/domains/tenant/model"
	venueModel "hallbooking/internal/domains/venue/model"
	eventsMocks "hallbooking/internal/events/mocks"
	cacheMocks "hallbooking/shared/cache/mocks"
	"hallbooking/shared/constant"
	"hallbooking/shared/failure"
	idemMocks "hallbooking/shared/idempotency/mocks"
)

const validIdempotencyKey = "7b0c5a88-94a4-4c4e-9df1-6f3fd0a3a777"

type serviceMocks struct {
	repo      *reservationMocks.MockReservation
	customers *customerMocks.MockCustomer
	venues    *reservationMocks.MockVenueService
	tenants   *reservationMocks.MockTenantService
	seq       *reservationMocks.MockGenerator
	guard     *idemMocks.MockGuard
	checker   *reservationMocks.MockChecker
	events    *eventsMocks.MockPublisher
	cache     *cacheMocks.MockRedisCache
}

func newService(t *testing.T) (service.Reservation, *serviceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	m := &serviceMocks{
		repo:      reservationMocks.NewMockReservation(ctrl),
		customers: customerMocks.NewMockCustomer(ctrl),
		venues:    reservationMocks.NewMockVenueService(ctrl),
		tenants:   reservationMocks.NewMockTenantService(ctrl),
		seq:       reservationMocks.NewMockGenerator(ctrl),
		guard:     idemMocks.NewMockGuard(ctrl),
		checker:   reservationMocks.NewMockChecker(ctrl),
		events:    eventsMocks.NewMockPublisher(ctrl),
		cache:     cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Booking.HoldTTLMinutes = 15
	cfg.Booking.MinDurationMinutes = 60
	cfg.Booking.MaxDurationHours = 12
	cfg.Booking.MinLeadTimeHours = 2
	cfg.Booking.MaxAdvanceDays = 365
	cfg.Booking.SequencePrefix = "BKG"
	cfg.Cache.TTL = 300

	svc := service.New(m.repo, m.customers, m.venues, m.tenants, m.seq, m.guard, m.checker, m.events, cfg, m.cache, mocks.NewOtel())

	return svc, m
}

func testContext() context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "test-user")

	return context.WithValue(ctx, constant.ContextKeyTenantID, "tenant-1")
}

// allowAsyncSideEffects accepts the cache eviction and event publishing the
// service fires off the request path.
func (m *serviceMocks) allowAsyncSideEffects() {
	m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.guard.EXPECT().Record(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	m.events.EXPECT().ReservationCreated(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.events.EXPECT().ReservationConfirmed(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.events.EXPECT().ReservationCancelled(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func activeTenant() tenantModel.Tenant {
	return tenantModel.Tenant{ID: "tenant-1", Name: "Grand Palace", Active: true}
}

func activeVenue() venueModel.Venue {
	return venueModel.Venue{
		ID:                 "venue-1",
		TenantID:           "tenant-1",
		Name:               "Main Hall",
		Capacity:           200,
		HourlyRateCents:    50000,
		ConfirmationPolicy: venueModel.PolicyManual,
		Timezone:           "UTC",
		Active:             true,
	}
}

func createRequest(window model.TimeRange) dto.CreateReservationRequest {
	return dto.CreateReservationRequest{
		VenueID:        "venue-1",
		CustomerName:   "Jane Smith",
		CustomerPhone:  "+628111222333",
		CustomerEmail:  "jane@example.com",
		EventType:      "wedding",
		GuestCount:     150,
		StartsAt:       window.StartsAt.Format(time.RFC3339),
		EndsAt:         window.EndsAt.Format(time.RFC3339),
		IdempotencyKey: validIdempotencyKey,
	}
}

func futureWindow(lead, span time.Duration) model.TimeRange {
	startsAt := time.Now().UTC().Add(lead).Truncate(time.Second)

	return model.TimeRange{StartsAt: startsAt, EndsAt: startsAt.Add(span)}
}

func TestReservationService_Create(t *testing.T) {
	t.Run("places a temporary hold", func(t *testing.T) {
		svc, m := newService(t)
		m.allowAsyncSideEffects()

		window := futureWindow(48*time.Hour, 4*time.Hour)
		req := createRequest(window)

		m.guard.EXPECT().Check(gomock.Any(), "tenant-1", validIdempotencyKey, gomock.Any()).Return(false)
		m.tenants.EXPECT().GetModel(gomock.Any(), "tenant-1").Return(activeTenant(), nil)
		m.venues.EXPECT().GetModel(gomock.Any(), "venue-1").Return(activeVenue(), nil)
		m.checker.EXPECT().Check(gomock.Any(), "tenant-1", "venue-1", window, "").Return(availability.Result{Available: true}, nil)

		m.customers.EXPECT().
			UpsertByPhone(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c customerModel.Customer) (customerModel.Customer, error) {
				assert.Equal(t, "tenant-1", c.TenantID)
				assert.Equal(t, "+628111222333", c.Phone)

				return c, nil
			})

		m.seq.EXPECT().Next(gomock.Any(), "tenant-1", "GRA", gomock.Any()).Return("GRA-2026-0001", nil)

		var inserted model.Reservation

		m.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, r model.Reservation) error {
				inserted = r

				return nil
			})

		res, err := svc.Create(testContext(), req)

		assert.NoError(t, err)
		assert.Equal(t, "GRA-2026-0001", res.BookingNumber)
		assert.Equal(t, string(model.StatusTempHold), res.Status)

		assert.Equal(t, model.StatusTempHold, inserted.Status)
		assert.Equal(t, "venue-1", inserted.VenueID)
		assert.Equal(t, int64(200000), inserted.TotalAmountCents)

		if assert.NotNil(t, inserted.HoldExpiresAt) {
			assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), *inserted.HoldExpiresAt, 5*time.Second)
		}

		if assert.NotNil(t, inserted.IdempotencyKey) {
			assert.Equal(t, validIdempotencyKey, *inserted.IdempotencyKey)
		}
	})

	t.Run("replays a duplicate request from the idempotency cache", func(t *testing.T) {
		svc, m := newService(t)

		window := futureWindow(48*time.Hour, 4*time.Hour)
		req := createRequest(window)

		m.guard.EXPECT().
			Check(gomock.Any(), "tenant-1", validIdempotencyKey, gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, out any) bool {
				stored, ok := out.(*dto.ReservationResponse)
				assert.True(t, ok)

				stored.ID = "res-1"
				stored.BookingNumber = "GRA-2026-0001"
				stored.Status = string(model.StatusTempHold)

				return true
			})

		res, err := svc.Create(testContext(), req)

		assert.NoError(t, err)
		assert.Equal(t, "res-1", res.ID)
		assert.Equal(t, "GRA-2026-0001", res.BookingNumber)
	})

	t.Run("rejects a malformed idempotency key", func(t *testing.T) {
		svc, _ := newService(t)

		req := createRequest(futureWindow(48*time.Hour, 4*time.Hour))
		req.IdempotencyKey = "not-a-uuid"

		_, err := svc.Create(testContext(), req)

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("rejects out-of-policy windows", func(t *testing.T) {
		cases := []struct {
			name   string
			window model.TimeRange
		}{
			{name: "ends before it starts", window: model.TimeRange{
				StartsAt: time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second),
				EndsAt:   time.Now().UTC().Add(46 * time.Hour).Truncate(time.Second),
			}},
			{name: "starts in the past", window: futureWindow(-2*time.Hour, 4*time.Hour)},
			{name: "insufficient lead time", window: futureWindow(30*time.Minute, 4*time.Hour)},
			{name: "too short", window: futureWindow(48*time.Hour, 30*time.Minute)},
			{name: "too long", window: futureWindow(48*time.Hour, 13*time.Hour)},
			{name: "too far ahead", window: futureWindow(400*24*time.Hour, 4*time.Hour)},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				svc, m := newService(t)

				req := createRequest(tc.window)

				m.guard.EXPECT().Check(gomock.Any(), "tenant-1", validIdempotencyKey, gomock.Any()).Return(false)

				_, err := svc.Create(testContext(), req)

				assert.Error(t, err)
				assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
			})
		}
	})

	t.Run("rejects guest counts over venue capacity", func(t *testing.T) {
		svc, m := newService(t)

		req := createRequest(futureWindow(48*time.Hour, 4*time.Hour))
		req.GuestCount = 500

		m.guard.EXPECT().Check(gomock.Any(), "tenant-1", validIdempotencyKey, gomock.Any()).Return(false)
		m.tenants.EXPECT().GetModel(gomock.Any(), "tenant-1").Return(activeTenant(), nil)
		m.venues.EXPECT().GetModel(gomock.Any(), "venue-1").Return(activeVenue(), nil)

		_, err := svc.Create(testContext(), req)

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("rejects inactive tenants", func(t *testing.T) {
		svc, m := newService(t)

		req := createRequest(futureWindow(48*time.Hour, 4*time.Hour))

		inactive := activeTenant()
		inactive.Active = false

		m.guard.EXPECT().Check(gomock.Any(), "tenant-1", validIdempotencyKey, gomock.Any()).Return(false)
		m.tenants.EXPECT().GetModel(gomock.Any(), "tenant-1").Return(inactive, nil)

		_, err := svc.Create(testContext(), req)

		assert.Error(t, err)
		assert.Equal(t, http.StatusForbidden, failure.GetCode(err))
	})

	t.Run("surfaces conflicts with alternatives before inserting", func(t *testing.T) {
		svc, m := newService(t)

		window := futureWindow(48*time.Hour, 4*time.Hour)
		req := createRequest(window)

		taken := availability.Result{
			Available: false,
			Conflicts: []availability.ReservedSlot{{ID: "res-9", BookingNumber: "GRA-2026-0009"}},
			Alternatives: []model.TimeRange{
				{StartsAt: window.StartsAt.Add(4 * time.Hour), EndsAt: window.EndsAt.Add(4 * time.Hour)},
			},
		}

		m.guard.EXPECT().Check(gomock.Any(), "tenant-1", validIdempotencyKey, gomock.Any()).Return(false)
		m.tenants.EXPECT().GetModel(gomock.Any(), "tenant-1").Return(activeTenant(), nil)
		m.venues.EXPECT().GetModel(gomock.Any(), "venue-1").Return(activeVenue(), nil)
		m.checker.EXPECT().Check(gomock.Any(), "tenant-1", "venue-1", window, "").Return(taken, nil)

		_, err := svc.Create(testContext(), req)

		assert.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))

		details, ok := failure.GetDetails(err).(availability.Result)
		assert.True(t, ok)
		assert.Len(t, details.Alternatives, 1)
	})

	t.Run("losing the insert race rebuilds fresh conflict details", func(t *testing.T) {
		svc, m := newService(t)
		m.allowAsyncSideEffects()

		window := futureWindow(48*time.Hour, 4*time.Hour)
		req := createRequest(window)

		m.guard.EXPECT().Check(gomock.Any(), "tenant-1", validIdempotencyKey, gomock.Any()).Return(false)
		m.tenants.EXPECT().GetModel(gomock.Any(), "tenant-1").Return(activeTenant(), nil)
		m.venues.EXPECT().GetModel(gomock.Any(), "venue-1").Return(activeVenue(), nil)

		first := m.checker.EXPECT().
			Check(gomock.Any(), "tenant-1", "venue-1", window, "").
			Return(availability.Result{Available: true}, nil)

		m.customers.EXPECT().
			UpsertByPhone(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c customerModel.Customer) (customerModel.Customer, error) {
				return c, nil
			})

		m.seq.EXPECT().Next(gomock.Any(), "tenant-1", "GRA", gomock.Any()).Return("GRA-2026-0002", nil)
		m.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(repository.ErrOverlap)

		m.checker.EXPECT().
			Check(gomock.Any(), "tenant-1", "venue-1", window, "").
			Return(availability.Result{
				Available: false,
				Conflicts: []availability.ReservedSlot{{ID: "res-7"}},
			}, nil).
			After(first)

		_, err := svc.Create(testContext(), req)

		assert.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))

		details, ok := failure.GetDetails(err).(availability.Result)
		assert.True(t, ok)
		assert.Len(t, details.Conflicts, 1)
	})

	t.Run("concurrent duplicate key replays the winning row", func(t *testing.T) {
		svc, m := newService(t)
		m.allowAsyncSideEffects()

		window := futureWindow(48*time.Hour, 4*time.Hour)
		req := createRequest(window)

		m.guard.EXPECT().Check(gomock.Any(), "tenant-1", validIdempotencyKey, gomock.Any()).Return(false)
		m.tenants.EXPECT().GetModel(gomock.Any(), "tenant-1").Return(activeTenant(), nil)
		m.venues.EXPECT().GetModel(gomock.Any(), "venue-1").Return(activeVenue(), nil)
		m.checker.EXPECT().Check(gomock.Any(), "tenant-1", "venue-1", window, "").Return(availability.Result{Available: true}, nil)

		m.customers.EXPECT().
			UpsertByPhone(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c customerModel.Customer) (customerModel.Customer, error) {
				return c, nil
			})

		m.seq.EXPECT().Next(gomock.Any(), "tenant-1", "GRA", gomock.Any()).Return("GRA-2026-0003", nil)
		m.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(repository.ErrDuplicateIdempotencyKey)

		winner := model.Reservation{
			ID:            "res-winner",
			TenantID:      "tenant-1",
			VenueID:       "venue-1",
			BookingNumber: "GRA-2026-0002",
			Status:        model.StatusTempHold,
			TimeRange:     window,
		}

		m.repo.EXPECT().GetByIdempotencyKey(gomock.Any(), "tenant-1", validIdempotencyKey).Return(winner, nil)

		res, err := svc.Create(testContext(), req)

		assert.NoError(t, err)
		assert.Equal(t, "res-winner", res.ID)
		assert.Equal(t, "GRA-2026-0002", res.BookingNumber)
	})

	t.Run("booking number collision regenerates and retries", func(t *testing.T) {
		svc, m := newService(t)
		m.allowAsyncSideEffects()

		window := futureWindow(48*time.Hour, 4*time.Hour)
		req := createRequest(window)

		m.guard.EXPECT().Check(gomock.Any(), "tenant-1", validIdempotencyKey, gomock.Any()).Return(false)
		m.tenants.EXPECT().GetModel(gomock.Any(), "tenant-1").Return(activeTenant(), nil)
		m.venues.EXPECT().GetModel(gomock.Any(), "venue-1").Return(activeVenue(), nil)
		m.checker.EXPECT().Check(gomock.Any(), "tenant-1", "venue-1", window, "").Return(availability.Result{Available: true}, nil)

		m.customers.EXPECT().
			UpsertByPhone(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c customerModel.Customer) (customerModel.Customer, error) {
				return c, nil
			})

		gomock.InOrder(
			m.seq.EXPECT().Next(gomock.Any(), "tenant-1", "GRA", gomock.Any()).Return("GRA-2026-0007", nil),
			m.seq.EXPECT().Next(gomock.Any(), "tenant-1", "GRA", gomock.Any()).Return("GRA-2026-0008", nil),
		)

		gomock.InOrder(
			m.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(repository.ErrDuplicateNumber),
			m.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil),
		)

		res, err := svc.Create(testContext(), req)

		assert.NoError(t, err)
		assert.Equal(t, "GRA-2026-0008", res.BookingNumber)
	})
}

func pendingReservation(window model.TimeRange) model.Reservation {
	return model.Reservation{
		ID:               "res-1",
		TenantID:         "tenant-1",
		VenueID:          "venue-1",
		CustomerID:       "cust-1",
		BookingNumber:    "GRA-2026-0001",
		GuestCount:       150,
		Status:           model.StatusPending,
		TotalAmountCents: 200000,
		TimeRange:        window,
	}
}

func TestReservationService_Confirm(t *testing.T) {
	window := futureWindow(48*time.Hour, 4*time.Hour)

	t.Run("confirms a pending reservation", func(t *testing.T) {
		svc, m := newService(t)
		m.allowAsyncSideEffects()

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingReservation(window), nil)

		m.repo.EXPECT().
			UpdateStatus(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params repository.UpdateStatusParams) (model.Reservation, error) {
				assert.Equal(t, []model.Status{model.StatusPending}, params.From)
				assert.Equal(t, model.StatusConfirmed, params.To)
				assert.Equal(t, "test-user", params.ModifiedBy)

				if assert.NotNil(t, params.ConfirmedBy) {
					assert.Equal(t, "test-user", *params.ConfirmedBy)
				}

				updated := pendingReservation(window)
				updated.Status = model.StatusConfirmed

				return updated, nil
			})

		res, err := svc.Confirm(testContext(), "res-1")

		assert.NoError(t, err)
		assert.Equal(t, string(model.StatusConfirmed), res.Status)
	})

	t.Run("confirming twice is a no-op", func(t *testing.T) {
		svc, m := newService(t)

		confirmed := pendingReservation(window)
		confirmed.Status = model.StatusConfirmed

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(confirmed, nil)

		res, err := svc.Confirm(testContext(), "res-1")

		assert.NoError(t, err)
		assert.Equal(t, string(model.StatusConfirmed), res.Status)
	})

	t.Run("confirming a cancelled reservation is a conflict", func(t *testing.T) {
		svc, m := newService(t)

		cancelled := pendingReservation(window)
		cancelled.Status = model.StatusCancelled

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cancelled, nil)

		_, err := svc.Confirm(testContext(), "res-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("unknown reservation is not found", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Reservation{}, nil)

		_, err := svc.Confirm(testContext(), "missing")

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("losing the CAS to an identical transition succeeds", func(t *testing.T) {
		svc, m := newService(t)

		confirmed := pendingReservation(window)
		confirmed.Status = model.StatusConfirmed

		gomock.InOrder(
			m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingReservation(window), nil),
			m.repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).Return(model.Reservation{}, repository.ErrStaleStatus),
			m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(confirmed, nil),
		)

		res, err := svc.Confirm(testContext(), "res-1")

		assert.NoError(t, err)
		assert.Equal(t, string(model.StatusConfirmed), res.Status)
	})

	t.Run("losing the CAS to a different transition is a conflict", func(t *testing.T) {
		svc, m := newService(t)

		cancelled := pendingReservation(window)
		cancelled.Status = model.StatusCancelled

		gomock.InOrder(
			m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingReservation(window), nil),
			m.repo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).Return(model.Reservation{}, repository.ErrStaleStatus),
			m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cancelled, nil),
		)

		_, err := svc.Confirm(testContext(), "res-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})
}

func TestReservationService_Cancel(t *testing.T) {
	t.Run("refund split follows the lead time", func(t *testing.T) {
		cases := []struct {
			name            string
			lead            time.Duration
			expectedPercent int
			expectedAmount  int64
		}{
			{name: "more than 72h refunds everything", lead: 100 * time.Hour, expectedPercent: 100, expectedAmount: 200000},
			{name: "between 24h and 72h refunds half", lead: 48 * time.Hour, expectedPercent: 50, expectedAmount: 100000},
			{name: "under 24h refunds nothing", lead: 10 * time.Hour, expectedPercent: 0, expectedAmount: 0},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				svc, m := newService(t)
				m.allowAsyncSideEffects()

				confirmed := pendingReservation(futureWindow(tc.lead, 4*time.Hour))
				confirmed.Status = model.StatusConfirmed

				m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(confirmed, nil)

				m.repo.EXPECT().
					UpdateStatus(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, params repository.UpdateStatusParams) (model.Reservation, error) {
						assert.Equal(t, []model.Status{model.StatusConfirmed}, params.From)
						assert.Equal(t, model.StatusCancelled, params.To)

						if assert.NotNil(t, params.RefundPercent) {
							assert.Equal(t, tc.expectedPercent, *params.RefundPercent)
						}

						if assert.NotNil(t, params.RefundAmountCents) {
							assert.Equal(t, tc.expectedAmount, *params.RefundAmountCents)
						}

						updated := confirmed
						updated.Status = model.StatusCancelled
						updated.RefundPercent = params.RefundPercent
						updated.RefundAmountCents = params.RefundAmountCents

						return updated, nil
					})

				res, err := svc.Cancel(testContext(), "res-1", dto.CancelReservationRequest{Reason: "change of plans"})

				assert.NoError(t, err)
				assert.Equal(t, string(model.StatusCancelled), res.Status)

				if assert.NotNil(t, res.RefundPercent) {
					assert.Equal(t, tc.expectedPercent, *res.RefundPercent)
				}
			})
		}
	})

	t.Run("cancelling a hold writes no refund fields", func(t *testing.T) {
		svc, m := newService(t)
		m.allowAsyncSideEffects()

		hold := pendingReservation(futureWindow(48*time.Hour, 4*time.Hour))
		hold.Status = model.StatusTempHold

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(hold, nil)

		m.repo.EXPECT().
			UpdateStatus(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params repository.UpdateStatusParams) (model.Reservation, error) {
				assert.Nil(t, params.RefundPercent)
				assert.Nil(t, params.RefundAmountCents)

				updated := hold
				updated.Status = model.StatusCancelled

				return updated, nil
			})

		_, err := svc.Cancel(testContext(), "res-1", dto.CancelReservationRequest{})

		assert.NoError(t, err)
	})

	t.Run("cancelling a completed reservation is a conflict", func(t *testing.T) {
		svc, m := newService(t)

		done := pendingReservation(futureWindow(48*time.Hour, 4*time.Hour))
		done.Status = model.StatusCompleted

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(done, nil)

		_, err := svc.Cancel(testContext(), "res-1", dto.CancelReservationRequest{})

		assert.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})
}

func TestReservationService_SelectPayment(t *testing.T) {
	window := futureWindow(48*time.Hour, 4*time.Hour)

	t.Run("moves a hold to pending", func(t *testing.T) {
		svc, m := newService(t)
		m.allowAsyncSideEffects()

		hold := pendingReservation(window)
		hold.Status = model.StatusTempHold

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(hold, nil)

		m.repo.EXPECT().
			UpdateStatus(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params repository.UpdateStatusParams) (model.Reservation, error) {
				assert.Equal(t, []model.Status{model.StatusTempHold}, params.From)
				assert.Equal(t, model.StatusPending, params.To)

				updated := hold
				updated.Status = model.StatusPending

				return updated, nil
			})

		res, err := svc.SelectPayment(testContext(), "res-1")

		assert.NoError(t, err)
		assert.Equal(t, string(model.StatusPending), res.Status)
	})

	t.Run("rejects non-hold statuses", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingReservation(window), nil)

		_, err := svc.SelectPayment(testContext(), "res-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})
}

func TestReservationService_RecordPayment(t *testing.T) {
	window := futureWindow(48*time.Hour, 4*time.Hour)

	cases := []struct {
		name          string
		policy        venueModel.ConfirmationPolicy
		kind          string
		status        model.Status
		expectCAS     bool
		expectedState model.Status
	}{
		{
			name:          "deposit confirms a deposit-policy venue",
			policy:        venueModel.PolicyDeposit,
			kind:          "deposit",
			status:        model.StatusPending,
			expectCAS:     true,
			expectedState: model.StatusConfirmed,
		},
		{
			name:          "full payment confirms a full-payment-policy venue",
			policy:        venueModel.PolicyFullPayment,
			kind:          "full_payment",
			status:        model.StatusPending,
			expectCAS:     true,
			expectedState: model.StatusConfirmed,
		},
		{
			name:          "deposit does not advance a full-payment-policy venue",
			policy:        venueModel.PolicyFullPayment,
			kind:          "deposit",
			status:        model.StatusPending,
			expectedState: model.StatusPending,
		},
		{
			name:          "full payment does not advance a deposit-policy venue",
			policy:        venueModel.PolicyDeposit,
			kind:          "full_payment",
			status:        model.StatusPending,
			expectedState: model.StatusPending,
		},
		{
			name:          "payments never auto-confirm a manual venue",
			policy:        venueModel.PolicyManual,
			kind:          "deposit",
			status:        model.StatusPending,
			expectedState: model.StatusPending,
		},
		{
			name:          "repeated callback on a confirmed reservation is a no-op",
			policy:        venueModel.PolicyDeposit,
			kind:          "deposit",
			status:        model.StatusConfirmed,
			expectedState: model.StatusConfirmed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, m := newService(t)
			m.allowAsyncSideEffects()

			reservation := pendingReservation(window)
			reservation.Status = tc.status

			venue := activeVenue()
			venue.ConfirmationPolicy = tc.policy

			m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(reservation, nil)
			m.venues.EXPECT().GetModel(gomock.Any(), "venue-1").Return(venue, nil)

			if tc.expectCAS {
				m.repo.EXPECT().
					UpdateStatus(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, params repository.UpdateStatusParams) (model.Reservation, error) {
						assert.Equal(t, model.StatusConfirmed, params.To)
						assert.NotNil(t, params.ConfirmedAt)

						updated := reservation
						updated.Status = params.To

						return updated, nil
					})
			}

			res, err := svc.RecordPayment(testContext(), "res-1", dto.RecordPaymentRequest{Kind: tc.kind})

			assert.NoError(t, err)
			assert.Equal(t, string(tc.expectedState), res.Status)
		})
	}

	t.Run("payment before method selection is a conflict", func(t *testing.T) {
		svc, m := newService(t)

		hold := pendingReservation(window)
		hold.Status = model.StatusTempHold

		venue := activeVenue()
		venue.ConfirmationPolicy = venueModel.PolicyDeposit

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(hold, nil)
		m.venues.EXPECT().GetModel(gomock.Any(), "venue-1").Return(venue, nil)

		_, err := svc.RecordPayment(testContext(), "res-1", dto.RecordPaymentRequest{Kind: "deposit"})

		assert.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("unknown payment kind is rejected", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.RecordPayment(testContext(), "res-1", dto.RecordPaymentRequest{Kind: "partial"})

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func TestReservationService_Get(t *testing.T) {
	window := futureWindow(48*time.Hour, 4*time.Hour)

	t.Run("returns the cached response on a hit", func(t *testing.T) {
		svc, m := newService(t)

		m.cache.EXPECT().Get(gomock.Any(), "reservation:get:tenant-1:res-1", gomock.Any()).Return(nil)

		_, err := svc.Get(testContext(), "res-1")

		assert.NoError(t, err)
	})

	t.Run("falls through to the store on a miss", func(t *testing.T) {
		svc, m := newService(t)
		m.allowAsyncSideEffects()

		m.cache.EXPECT().Get(gomock.Any(), "reservation:get:tenant-1:res-1", gomock.Any()).Return(errors.New("cache miss"))
		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pendingReservation(window), nil)

		res, err := svc.Get(testContext(), "res-1")

		assert.NoError(t, err)
		assert.Equal(t, "res-1", res.ID)
		assert.Equal(t, "GRA-2026-0001", res.BookingNumber)
	})

	t.Run("unknown reservation is not found", func(t *testing.T) {
		svc, m := newService(t)

		m.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Reservation{}, nil)

		_, err := svc.Get(testContext(), "missing")

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestReservationService_CheckAvailability(t *testing.T) {
	window := futureWindow(48*time.Hour, 4*time.Hour)

	t.Run("delegates to the checker", func(t *testing.T) {
		svc, m := newService(t)

		m.venues.EXPECT().GetModel(gomock.Any(), "venue-1").Return(activeVenue(), nil)
		m.checker.EXPECT().Check(gomock.Any(), "tenant-1", "venue-1", window, "").Return(availability.Result{Available: true}, nil)

		res, err := svc.CheckAvailability(testContext(), "venue-1", window, "")

		assert.NoError(t, err)
		assert.True(t, res.Available)
	})

	t.Run("rejects an inverted range", func(t *testing.T) {
		svc, _ := newService(t)

		inverted := model.TimeRange{StartsAt: window.EndsAt, EndsAt: window.StartsAt}

		_, err := svc.CheckAvailability(testContext(), "venue-1", inverted, "")

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("unknown venue is not found", func(t *testing.T) {
		svc, m := newService(t)

		m.venues.EXPECT().GetModel(gomock.Any(), "venue-9").Return(venueModel.Venue{}, failure.NotFound("venue not found"))

		_, err := svc.CheckAvailability(testContext(), "venue-9", window, "")

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestReservationService_Calendar(t *testing.T) {
	t.Run("anchors days to the venue timezone", func(t *testing.T) {
		svc, m := newService(t)

		venue := activeVenue()
		venue.Timezone = "Asia/Jakarta"

		m.venues.EXPECT().GetModel(gomock.Any(), "venue-1").Return(venue, nil)

		m.checker.EXPECT().
			Calendar(gomock.Any(), "tenant-1", "venue-1", gomock.Any(), 7, gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, from time.Time, _ int, loc *time.Location) ([]availability.Day, error) {
				assert.Equal(t, "Asia/Jakarta", loc.String())

				expected := time.Date(2026, 9, 10, 0, 0, 0, 0, loc)
				assert.True(t, from.Equal(expected))

				return []availability.Day{{Date: "2026-09-10", Available: true}}, nil
			})

		days, err := svc.Calendar(testContext(), "venue-1", "2026-09-10", 7)

		assert.NoError(t, err)
		assert.Len(t, days, 1)
	})

	t.Run("rejects an unparseable start date", func(t *testing.T) {
		svc, m := newService(t)

		m.venues.EXPECT().GetModel(gomock.Any(), "venue-1").Return(activeVenue(), nil)

		_, err := svc.Calendar(testContext(), "venue-1", "10-09-2026", 7)

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}
