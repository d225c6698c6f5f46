package service

//go:generate go run go.uber.org/mock/mockgen -destination=../mocks/venue_service_mock.go -package=mocks -mock_names=Venue=MockVenueService hallbooking/internal/domains/venue/service Venue
//go:generate go run go.uber.org/mock/mockgen -destination=../mocks/tenant_service_mock.go -package=mocks -mock_names=Tenant=MockTenantService hallbooking/internal/domains/tenant/service Tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hallbooking/config"
	"hallbooking/infras/otel"
	customerRepository "hallbooking/internal/domains/customer/repository"
	"hallbooking/internal/domains/reservation/availability"
	"hallbooking/internal/domains/reservation/model"
	"hallbooking/internal/domains/reservation/model/dto"
	"hallbooking/internal/domains/reservation/repository"
	"hallbooking/internal/domains/reservation/sequence"
	tenantService "hallbooking/internal/domains/tenant/service"
	venueService "hallbooking/internal/domains/venue/service"
	"hallbooking/internal/events"
	"hallbooking/shared"
	"hallbooking/shared/cache"
	"hallbooking/shared/constant"
	gDto "hallbooking/shared/dto"
	"hallbooking/shared/failure"
	"hallbooking/shared/idempotency"
	gModel "hallbooking/shared/model"
	"hallbooking/shared/timezone"
)

const (
	cacheGetReservation    = "reservation:get"
	cacheGetAllReservation = "reservation:gets"
	cacheCountReservation  = "reservation:count"

	// maxNumberAttempts bounds the booking-number regeneration loop when an
	// insert hits the store's uniqueness backstop.
	maxNumberAttempts = 3
)

type Reservation interface {
	Create(ctx context.Context, req dto.CreateReservationRequest) (dto.ReservationResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetReservationsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.ReservationResponse, error)
	Confirm(ctx context.Context, id string) (dto.ReservationResponse, error)
	Cancel(ctx context.Context, id string, req dto.CancelReservationRequest) (dto.ReservationResponse, error)
	SelectPayment(ctx context.Context, id string) (dto.ReservationResponse, error)
	RecordPayment(ctx context.Context, id string, req dto.RecordPaymentRequest) (dto.ReservationResponse, error)
	CheckAvailability(ctx context.Context, venueID string, window model.TimeRange, excludeID string) (availability.Result, error)
	Calendar(ctx context.Context, venueID, startDate string, days int) ([]availability.Day, error)
}

type serviceImpl struct {
	repo      repository.Reservation
	customers customerRepository.Customer
	venues    venueService.Venue
	tenants   tenantService.Tenant
	seq       sequence.Generator
	guard     idempotency.Guard
	checker   availability.Checker
	events    events.Publisher
	cfg       *config.Config
	cache     cache.RedisCache
	otel      otel.Otel
}

func New(
	repo repository.Reservation,
	customers customerRepository.Customer,
	venues venueService.Venue,
	tenants tenantService.Tenant,
	seq sequence.Generator,
	guard idempotency.Guard,
	checker availability.Checker,
	publisher events.Publisher,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Reservation {
	return &serviceImpl{
		repo:      repo,
		customers: customers,
		venues:    venues,
		tenants:   tenants,
		seq:       seq,
		guard:     guard,
		checker:   checker,
		events:    publisher,
		cfg:       cfg,
		cache:     cache,
		otel:      otel,
	}
}

func tenantScopedFilter(tenantID, id string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldTenantID, Value: tenantID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldID, Value: id, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}
}

// Create places a temporary hold on the requested slot. The availability
// pre-check is advisory; the store's insert is the authoritative overlap
// arbiter, and losing that race surfaces as a conflict with fresh
// alternatives.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateReservationRequest) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)

	if err = idempotency.ValidateKey(req.IdempotencyKey); err != nil {
		return res, err // nolint:wrapcheck
	}

	if s.guard.Check(ctx, tenantID, req.IdempotencyKey, &res) {
		log.Info().Str("idempotencyKey", req.IdempotencyKey).Msg("replayed reservation create from idempotency cache")

		return res, nil
	}

	window, err := req.Window()
	if err != nil {
		return res, failure.BadRequestFromString(fmt.Sprintf("invalid time range: %v", err)) // nolint:wrapcheck
	}

	now := timezone.NowUTC()

	if err = s.validateWindow(window, now); err != nil {
		return res, err
	}

	tenant, err := s.tenants.GetModel(ctx, tenantID)
	if err != nil {
		return res, err
	}

	if !tenant.Active {
		return res, failure.Forbidden("tenant is not active") // nolint:wrapcheck
	}

	venue, err := s.venues.GetModel(ctx, req.VenueID)
	if err != nil {
		return res, err
	}

	if !venue.Active {
		return res, failure.BadRequestFromString("venue is not active") // nolint:wrapcheck
	}

	if req.GuestCount > venue.Capacity {
		return res, failure.BadRequestFromString(fmt.Sprintf("guest count %d exceeds venue capacity %d", req.GuestCount, venue.Capacity)) // nolint:wrapcheck
	}

	check, err := s.checker.Check(ctx, tenantID, req.VenueID, window, constant.Empty)
	if err != nil {
		return res, fmt.Errorf("failed to check availability: %w", err)
	}

	if !check.Available {
		return res, failure.ConflictWithDetails("venue is not available for the requested time range", check) // nolint:wrapcheck
	}

	customer, err := s.customers.UpsertByPhone(ctx, req.ToCustomerModel(tenantID, user))
	if err != nil {
		log.Error().Err(err).Msg("failed to upsert customer")

		return res, fmt.Errorf("failed to upsert customer: %w", err)
	}

	holdExpiresAt := now.Add(time.Duration(s.cfg.Booking.HoldTTLMinutes) * time.Minute)

	reservation := model.Reservation{
		ID:               uuid.NewString(),
		TenantID:         tenantID,
		VenueID:          venue.ID,
		CustomerID:       customer.ID,
		EventType:        req.EventType,
		GuestCount:       req.GuestCount,
		Notes:            req.Notes,
		Status:           model.StatusTempHold,
		TotalAmountCents: model.TotalAmountCents(venue.HourlyRateCents, window.Duration()),
		TimeRange:        window,
		HoldExpiresAt:    &holdExpiresAt,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}

	if req.IdempotencyKey != constant.Empty {
		reservation.IdempotencyKey = &req.IdempotencyKey
	}

	prefix := sequence.PrefixFromName(tenant.Name, s.cfg.Booking.SequencePrefix)

	for attempt := 1; ; attempt++ {
		reservation.BookingNumber, err = s.seq.Next(ctx, tenantID, prefix, now)
		if err != nil {
			return res, fmt.Errorf("failed to generate booking number: %w", err)
		}

		err = s.repo.Insert(ctx, reservation)
		if err == nil {
			break
		}

		switch {
		case errors.Is(err, repository.ErrOverlap):
			return res, s.insertConflict(ctx, tenantID, req.VenueID, window)
		case errors.Is(err, repository.ErrDuplicateIdempotencyKey):
			return s.replayFromStore(ctx, tenantID, req.IdempotencyKey)
		case errors.Is(err, repository.ErrDuplicateNumber) && attempt < maxNumberAttempts:
			log.Warn().Str("bookingNumber", reservation.BookingNumber).Msg("booking number collision, regenerating")
		default:
			log.Error().Err(err).Msg("failed to insert reservation")

			return res, fmt.Errorf("failed to insert reservation: %w", err)
		}
	}

	res.FromModel(reservation)

	go func() {
		c := context.WithoutCancel(ctx)

		s.guard.Record(c, tenantID, req.IdempotencyKey, res)

		if err := s.events.ReservationCreated(c, reservation); err != nil {
			log.Error().Err(err).Msg("failed to publish reservation created event")
		}
	}()

	s.invalidate(ctx, tenantID, venue.ID, constant.Empty)

	return res, nil
}

func (s *serviceImpl) validateWindow(window model.TimeRange, now time.Time) error {
	if !window.EndsAt.After(window.StartsAt) {
		return failure.BadRequestFromString("reservation must end after it starts") // nolint:wrapcheck
	}

	if window.StartsAt.Before(now) {
		return failure.BadRequestFromString("reservation cannot start in the past") // nolint:wrapcheck
	}

	if window.StartsAt.Before(now.Add(time.Duration(s.cfg.Booking.MinLeadTimeHours) * time.Hour)) {
		return failure.BadRequestFromString(fmt.Sprintf("reservation must start at least %d hours from now", s.cfg.Booking.MinLeadTimeHours)) // nolint:wrapcheck
	}

	duration := window.Duration()

	if duration < time.Duration(s.cfg.Booking.MinDurationMinutes)*time.Minute {
		return failure.BadRequestFromString(fmt.Sprintf("reservation must last at least %d minutes", s.cfg.Booking.MinDurationMinutes)) // nolint:wrapcheck
	}

	if duration > time.Duration(s.cfg.Booking.MaxDurationHours)*time.Hour {
		return failure.BadRequestFromString(fmt.Sprintf("reservation must not exceed %d hours", s.cfg.Booking.MaxDurationHours)) // nolint:wrapcheck
	}

	if window.StartsAt.After(now.AddDate(0, 0, s.cfg.Booking.MaxAdvanceDays)) {
		return failure.BadRequestFromString(fmt.Sprintf("reservation cannot start more than %d days ahead", s.cfg.Booking.MaxAdvanceDays)) // nolint:wrapcheck
	}

	return nil
}

// insertConflict rebuilds conflict details after the store rejected an insert
// that passed the advisory pre-check. The cached availability answer is stale
// at this point, so it is dropped before re-reading.
func (s *serviceImpl) insertConflict(ctx context.Context, tenantID, venueID string, window model.TimeRange) error {
	shared.InvalidateCaches(ctx, s.cache, shared.BuildCacheKey(constant.CacheKeyAvailability, tenantID, venueID))

	check, err := s.checker.Check(ctx, tenantID, venueID, window, constant.Empty)
	if err != nil {
		log.Error().Err(err).Msg("failed to rebuild conflict details")

		return failure.Conflict("venue is already reserved for the requested time range") // nolint:wrapcheck
	}

	return failure.ConflictWithDetails("venue is already reserved for the requested time range", check) // nolint:wrapcheck
}

// replayFromStore serves the concurrent-duplicate case: another request with
// the same idempotency key won the insert race, so its row is the outcome of
// this logical request too.
func (s *serviceImpl) replayFromStore(ctx context.Context, tenantID, key string) (dto.ReservationResponse, error) {
	var res dto.ReservationResponse

	winner, err := s.repo.GetByIdempotencyKey(ctx, tenantID, key)
	if err != nil {
		log.Error().Err(err).Msg("failed to load reservation by idempotency key")

		return res, fmt.Errorf("failed to load reservation by idempotency key: %w", err)
	}

	if winner.ID == constant.Empty {
		return res, failure.Conflict("a request with this idempotency key is still in flight") // nolint:wrapcheck
	}

	res.FromModel(winner)

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllReservation, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservations")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reservations")

		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservations")

		return res, fmt.Errorf("failed to get reservations: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservations to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountReservation, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reservations")

		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservation count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)
	cacheKey := shared.BuildCacheKey(cacheGetReservation, tenantID, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservation")

		return res, nil
	}

	reservation, err := s.getForTenant(ctx, tenantID, id)
	if err != nil {
		return res, err
	}

	res.FromModel(reservation)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservation to cache")
		}
	}()

	return res, nil
}

// Confirm moves a pending reservation to confirmed on behalf of the acting
// staff member. Confirming an already-confirmed reservation is a success
// no-op so double submits and callback retries stay safe.
func (s *serviceImpl) Confirm(ctx context.Context, id string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Confirm")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)

	reservation, err := s.getForTenant(ctx, tenantID, id)
	if err != nil {
		return res, err
	}

	if reservation.Status == model.StatusConfirmed {
		res.FromModel(reservation)

		return res, nil
	}

	if reservation.Status != model.StatusPending {
		return res, failure.Conflict(fmt.Sprintf("cannot confirm a reservation in status %s", reservation.Status)) // nolint:wrapcheck
	}

	if user == constant.Empty {
		return res, failure.BadRequestFromString("confirming actor is required") // nolint:wrapcheck
	}

	now := timezone.NowUTC()

	updated, err := s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		TenantID:    tenantID,
		ID:          id,
		From:        []model.Status{model.StatusPending},
		To:          model.StatusConfirmed,
		ModifiedBy:  user,
		ConfirmedAt: &now,
		ConfirmedBy: &user,
	})
	if err != nil {
		return s.resolveStaleTransition(ctx, tenantID, id, model.StatusConfirmed, err)
	}

	res.FromModel(updated)

	s.afterTransition(ctx, updated, s.events.ReservationConfirmed, "failed to publish reservation confirmed event")

	return res, nil
}

// SelectPayment marks that the customer picked a payment method, converting
// the temporary hold into a pending reservation awaiting payment.
func (s *serviceImpl) SelectPayment(ctx context.Context, id string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SelectPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)

	reservation, err := s.getForTenant(ctx, tenantID, id)
	if err != nil {
		return res, err
	}

	if reservation.Status != model.StatusTempHold {
		return res, failure.Conflict(fmt.Sprintf("cannot move a reservation in status %s to pending", reservation.Status)) // nolint:wrapcheck
	}

	updated, err := s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		TenantID:   tenantID,
		ID:         id,
		From:       []model.Status{model.StatusTempHold},
		To:         model.StatusPending,
		ModifiedBy: user,
	})
	if err != nil {
		return s.resolveStaleTransition(ctx, tenantID, id, model.StatusPending, err)
	}

	res.FromModel(updated)

	s.invalidate(ctx, tenantID, updated.VenueID, id)

	return res, nil
}

// RecordPayment is the payment subsystem's callback. The venue's confirmation
// policy decides through the dispatch table whether the reported payment
// milestone advances the reservation; events that do not trigger a transition
// are acknowledged without touching the row.
func (s *serviceImpl) RecordPayment(ctx context.Context, id string, req dto.RecordPaymentRequest) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RecordPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)

	kind := model.PaymentKind(req.Kind)
	if !kind.Valid() {
		return res, failure.BadRequestFromString(fmt.Sprintf("unknown payment kind %q", req.Kind)) // nolint:wrapcheck
	}

	reservation, err := s.getForTenant(ctx, tenantID, id)
	if err != nil {
		return res, err
	}

	venue, err := s.venues.GetModel(ctx, reservation.VenueID)
	if err != nil {
		return res, err
	}

	target, triggers := paymentTarget(venue.ConfirmationPolicy, kind)
	if !triggers {
		log.Info().Str("policy", string(venue.ConfirmationPolicy)).Str("kind", string(kind)).Msg("payment event does not advance the lifecycle under this policy")

		res.FromModel(reservation)

		return res, nil
	}

	// Payment callbacks retry; reaching the target twice is a success no-op.
	if reservation.Status == target {
		res.FromModel(reservation)

		return res, nil
	}

	if !reservation.Status.CanTransitionTo(target) {
		return res, failure.Conflict(fmt.Sprintf("cannot move a reservation in status %s to %s", reservation.Status, target)) // nolint:wrapcheck
	}

	now := timezone.NowUTC()

	params := repository.UpdateStatusParams{
		TenantID:   tenantID,
		ID:         id,
		From:       []model.Status{reservation.Status},
		To:         target,
		ModifiedBy: user,
	}

	if target == model.StatusConfirmed {
		params.ConfirmedAt = &now

		if user != constant.Empty {
			params.ConfirmedBy = &user
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, params)
	if err != nil {
		return s.resolveStaleTransition(ctx, tenantID, id, target, err)
	}

	res.FromModel(updated)

	s.afterTransition(ctx, updated, s.events.ReservationConfirmed, "failed to publish reservation confirmed event")

	return res, nil
}

// Cancel moves any active reservation to cancelled. For confirmed
// reservations the refund split is computed from the lead time between now
// and the event start; holds and pending reservations have not been charged,
// so no refund fields are written.
func (s *serviceImpl) Cancel(ctx context.Context, id string, req dto.CancelReservationRequest) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)

	reservation, err := s.getForTenant(ctx, tenantID, id)
	if err != nil {
		return res, err
	}

	if !reservation.Status.CanTransitionTo(model.StatusCancelled) {
		return res, failure.Conflict(fmt.Sprintf("cannot cancel a reservation in status %s", reservation.Status)) // nolint:wrapcheck
	}

	now := timezone.NowUTC()

	params := repository.UpdateStatusParams{
		TenantID:    tenantID,
		ID:          id,
		From:        []model.Status{reservation.Status},
		To:          model.StatusCancelled,
		ModifiedBy:  user,
		CancelledAt: &now,
	}

	if req.Reason != constant.Empty {
		params.CancellationReason = &req.Reason
	}

	if reservation.Status == model.StatusConfirmed {
		percent := model.RefundPercent(now, reservation.StartsAt)
		amount := model.RefundAmountCents(reservation.TotalAmountCents, percent)
		params.RefundPercent = &percent
		params.RefundAmountCents = &amount
	}

	updated, err := s.repo.UpdateStatus(ctx, params)
	if err != nil {
		return s.resolveStaleTransition(ctx, tenantID, id, model.StatusCancelled, err)
	}

	res.FromModel(updated)

	s.afterTransition(ctx, updated, s.events.ReservationCancelled, "failed to publish reservation cancelled event")

	return res, nil
}

func (s *serviceImpl) CheckAvailability(ctx context.Context, venueID string, window model.TimeRange, excludeID string) (res availability.Result, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)

	if !window.EndsAt.After(window.StartsAt) {
		return res, failure.BadRequestFromString("range must end after it starts") // nolint:wrapcheck
	}

	if _, err = s.venues.GetModel(ctx, venueID); err != nil {
		return res, err
	}

	return s.checker.Check(ctx, tenantID, venueID, window, excludeID) // nolint:wrapcheck
}

// Calendar rolls the venue's reservations up into per-day buckets with day
// boundaries in the venue's timezone. An empty start date means today.
func (s *serviceImpl) Calendar(ctx context.Context, venueID, startDate string, days int) (res []availability.Day, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Calendar")
	defer scope.End()
	defer scope.TraceIfError(err)

	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)

	venue, err := s.venues.GetModel(ctx, venueID)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(venue.Timezone)
	if err != nil {
		log.Warn().Str("timezone", venue.Timezone).Msg("unknown venue timezone, using UTC")

		loc = time.UTC
	}

	from := timezone.NowUTC().In(loc)

	if startDate != constant.Empty {
		parsed, parseErr := time.ParseInLocation(time.DateOnly, startDate, loc)
		if parseErr != nil {
			return nil, failure.BadRequestFromString(fmt.Sprintf("invalid start date: %v", parseErr)) // nolint:wrapcheck
		}

		from = parsed
	}

	return s.checker.Calendar(ctx, tenantID, venueID, from, days, loc) // nolint:wrapcheck
}

func (s *serviceImpl) getForTenant(ctx context.Context, tenantID, id string) (model.Reservation, error) {
	reservation, err := s.repo.Get(ctx, tenantScopedFilter(tenantID, id))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return reservation, fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return reservation, failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	return reservation, nil
}

// resolveStaleTransition decides what a failed CAS means: the reservation
// either raced to the same target (return it, the outcome stands) or to a
// different status (state conflict).
func (s *serviceImpl) resolveStaleTransition(ctx context.Context, tenantID, id string, target model.Status, casErr error) (dto.ReservationResponse, error) {
	var res dto.ReservationResponse

	if !errors.Is(casErr, repository.ErrStaleStatus) {
		log.Error().Err(casErr).Msg("failed to update reservation status")

		return res, fmt.Errorf("failed to update reservation status: %w", casErr)
	}

	current, err := s.getForTenant(ctx, tenantID, id)
	if err != nil {
		return res, err
	}

	if current.Status == target {
		res.FromModel(current)

		return res, nil
	}

	return res, failure.Conflict(fmt.Sprintf("reservation moved to status %s concurrently", current.Status)) // nolint:wrapcheck
}

// afterTransition publishes the lifecycle event and drops every cache the
// status change could have made stale.
func (s *serviceImpl) afterTransition(ctx context.Context, reservation model.Reservation, publish func(context.Context, model.Reservation) error, failMsg string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := publish(c, reservation); err != nil {
			log.Error().Err(err).Msg(failMsg)
		}
	}()

	s.invalidate(ctx, reservation.TenantID, reservation.VenueID, reservation.ID)
}

func (s *serviceImpl) invalidate(ctx context.Context, tenantID, venueID, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if id != constant.Empty {
			if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetReservation, tenantID, id)); err != nil {
				log.Error().Err(err).Msg("failed to delete reservation from cache")
			}
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
		shared.InvalidateCaches(c, s.cache, cacheCountReservation)
		shared.InvalidateCaches(c, s.cache, shared.BuildCacheKey(constant.CacheKeyAvailability, tenantID, venueID))
	}()
}
