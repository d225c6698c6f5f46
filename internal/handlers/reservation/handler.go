package reservation

import (
	"net/http"
	"strconv"
	"time"

	"hallbooking/infras/otel"
	"hallbooking/internal/domains/reservation/model"
	"hallbooking/internal/domains/reservation/model/dto"
	"hallbooking/internal/domains/reservation/service"
	"hallbooking/shared/constant"
	gDto "hallbooking/shared/dto"
	"hallbooking/shared/failure"
	"hallbooking/shared/validator"
	"hallbooking/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Reservation
	otel    otel.Otel
}

func New(service service.Reservation, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/reservations", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateReservation)
		routerGroup.Get("/", handler.GetReservations)
		routerGroup.Get("/{id}", handler.GetReservationByID)
		routerGroup.Post("/{id}/confirm", handler.ConfirmReservation)
		routerGroup.Post("/{id}/cancel", handler.CancelReservation)
		routerGroup.Post("/{id}/payment-method", handler.SelectPayment)
		routerGroup.Post("/{id}/payments", handler.RecordPayment)
	})

	router.Route("/availability/{venueId}", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.CheckAvailability)
		routerGroup.Get("/calendar", handler.GetCalendar)
	})
}

// CreateReservation places a temporary hold on a venue time slot.
// @Summary Create a new reservation
// @Description Place a temporary hold on a venue for the requested time range. Retries may carry an Idempotency-Key header.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key (UUID)"
// @Param request body dto.CreateReservationRequest true "Create Reservation Request"
// @Success 201 {object} dto.ReservationResponse "Reservation held successfully"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error "Time range conflicts with an existing reservation"
// @Failure 500 {object} response.Error
// @Router /v1/reservations [post]
// @Security BearerAuth
func (handler *Handler) CreateReservation(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateReservation")
	defer scope.End()

	req := dto.CreateReservationRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	req.IdempotencyKey = request.Header.Get(constant.RequestHeaderIdempotencyKey)

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create reservation")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Reservation held as " + res.BookingNumber)

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetReservations retrieves reservations for the tenant.
// @Summary Get reservations
// @Description Retrieve reservations with optional filtering and pagination.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param venue_id query string false "Filter by venue"
// @Param status query string false "Filter by status"
// @Success 200 {object} dto.GetReservationsResponse "List of reservations"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations [get]
// @Security BearerAuth
func (handler *Handler) GetReservations(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservations")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldTenantID,
				Operator: gDto.FilterOperatorEq,
				Value:    tenantID,
				Table:    model.TableName,
			},
		},
	}

	if venueID := request.URL.Query().Get(model.FieldVenueID); venueID != constant.Empty {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldVenueID,
			Operator: gDto.FilterOperatorEq,
			Value:    venueID,
			Table:    model.TableName,
		})
	}

	if status := model.Status(request.URL.Query().Get(model.FieldStatus)); status != constant.Empty {
		if !status.Valid() {
			err := failure.BadRequestFromString("unknown status filter")
			scope.TraceError(err)

			response.WithError(writer, err)

			return
		}

		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    string(status),
			Table:    model.TableName,
		})
	}

	reservations, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservations")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Reservations retrieved successfully")

	response.WithJSON(writer, http.StatusOK, reservations)
}

// GetReservationByID retrieves one reservation.
// @Summary Get a reservation by ID
// @Description Retrieve a reservation by its unique identifier.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} dto.ReservationResponse "Reservation details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetReservationByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservationByID")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	reservation, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservation by ID")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Reservation retrieved successfully")

	response.WithJSON(writer, http.StatusOK, reservation)
}

// ConfirmReservation confirms a pending reservation on behalf of staff.
// @Summary Confirm a reservation
// @Description Move a pending reservation to confirmed. Confirming an already confirmed reservation returns it unchanged.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} dto.ReservationResponse "Reservation confirmed"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Reservation is not in a confirmable status"
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id}/confirm [post]
// @Security BearerAuth
func (handler *Handler) ConfirmReservation(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ConfirmReservation")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	res, err := handler.service.Confirm(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to confirm reservation")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Reservation confirmed by user " + user)

	response.WithJSON(writer, http.StatusOK, res)
}

// CancelReservation cancels an active reservation.
// @Summary Cancel a reservation
// @Description Cancel a hold, pending or confirmed reservation. Confirmed reservations get a lead-time based refund.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body dto.CancelReservationRequest false "Cancel Reservation Request"
// @Success 200 {object} dto.ReservationResponse "Reservation cancelled"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Reservation is already terminal"
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id}/cancel [post]
// @Security BearerAuth
func (handler *Handler) CancelReservation(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelReservation")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.CancelReservationRequest{}
	if request.ContentLength > 0 {
		if err := validator.Validate(request.Body, &req); err != nil {
			scope.TraceError(err)
			log.Error().Err(err).Msg("failed to validate request body")

			response.WithError(writer, err)

			return
		}
	}

	res, err := handler.service.Cancel(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to cancel reservation")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Reservation cancelled")

	response.WithJSON(writer, http.StatusOK, res)
}

// SelectPayment converts a temporary hold into a pending reservation.
// @Summary Select a payment method
// @Description Mark that the customer picked a payment method, moving the hold to pending.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} dto.ReservationResponse "Reservation pending payment"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error "Reservation is not a temporary hold"
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id}/payment-method [post]
// @Security BearerAuth
func (handler *Handler) SelectPayment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SelectPayment")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	res, err := handler.service.SelectPayment(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to select payment method")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Reservation moved to pending")

	response.WithJSON(writer, http.StatusOK, res)
}

// RecordPayment receives a payment milestone from the payment subsystem.
// @Summary Record a payment event
// @Description Report a deposit or full payment. The venue's confirmation policy decides whether the reservation advances.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body dto.RecordPaymentRequest true "Record Payment Request"
// @Success 200 {object} dto.ReservationResponse "Payment recorded"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id}/payments [post]
// @Security BearerAuth
func (handler *Handler) RecordPayment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RecordPayment")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.RecordPaymentRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.RecordPayment(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to record payment")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Payment event recorded")

	response.WithJSON(writer, http.StatusOK, res)
}

// CheckAvailability answers whether a venue is free for a time range.
// @Summary Check venue availability
// @Description Report conflicts, blackout periods and suggested alternative slots for the requested range.
// @Tags Availability
// @Accept json
// @Produce json
// @Param venueId path string true "Venue ID"
// @Param starts_at query string true "Range start (RFC3339)"
// @Param ends_at query string true "Range end (RFC3339)"
// @Param exclude_id query string false "Reservation to ignore"
// @Success 200 {object} availability.Result "Availability result"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/availability/{venueId} [get]
// @Security BearerAuth
func (handler *Handler) CheckAvailability(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CheckAvailability")
	defer scope.End()

	venueID := chi.URLParam(request, requestParamVenueID)

	window, err := parseWindow(request)
	if err != nil {
		scope.TraceError(err)

		response.WithError(writer, err)

		return
	}

	excludeID := request.URL.Query().Get(requestParamExcludeID)

	res, err := handler.service.CheckAvailability(ctx, venueID, window, excludeID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to check availability")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Availability checked")

	response.WithJSON(writer, http.StatusOK, res)
}

// GetCalendar rolls venue reservations up into per-day buckets.
// @Summary Get a venue calendar
// @Description Day-by-day availability for up to 90 days, with day boundaries in the venue's timezone.
// @Tags Availability
// @Accept json
// @Produce json
// @Param venueId path string true "Venue ID"
// @Param start_date query string false "First day (YYYY-MM-DD, defaults to today)"
// @Param days query int false "Number of days (default 30, max 90)"
// @Success 200 {array} availability.Day "Calendar days"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/availability/{venueId}/calendar [get]
// @Security BearerAuth
func (handler *Handler) GetCalendar(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetCalendar")
	defer scope.End()

	venueID := chi.URLParam(request, requestParamVenueID)
	startDate := request.URL.Query().Get(requestParamStartDate)

	days := defaultCalendarDays
	if raw := request.URL.Query().Get(requestParamDays); raw != constant.Empty {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			err := failure.BadRequestFromString("days must be a positive integer")
			scope.TraceError(err)

			response.WithError(writer, err)

			return
		}

		days = parsed
	}

	res, err := handler.service.Calendar(ctx, venueID, startDate, days)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get calendar")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Calendar retrieved successfully")

	response.WithJSON(writer, http.StatusOK, res)
}

const (
	requestParamVenueID   = "venueId"
	requestParamExcludeID = "exclude_id"
	requestParamStartDate = "start_date"
	requestParamDays      = "days"
	requestParamStartsAt  = "starts_at"
	requestParamEndsAt    = "ends_at"

	defaultCalendarDays = 30
)

func parseWindow(request *http.Request) (model.TimeRange, error) {
	startsAt, err := time.Parse(constant.DateFormat, request.URL.Query().Get(requestParamStartsAt))
	if err != nil {
		return model.TimeRange{}, failure.BadRequestFromString("starts_at must be a valid RFC3339 timestamp")
	}

	endsAt, err := time.Parse(constant.DateFormat, request.URL.Query().Get(requestParamEndsAt))
	if err != nil {
		return model.TimeRange{}, failure.BadRequestFromString("ends_at must be a valid RFC3339 timestamp")
	}

	return model.TimeRange{StartsAt: startsAt.UTC(), EndsAt: endsAt.UTC()}, nil
}
