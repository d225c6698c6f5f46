package venue

import (
	"net/http"
	"time"

	"hallbooking/infras/otel"
	"hallbooking/internal/domains/venue/model"
	"hallbooking/internal/domains/venue/model/dto"
	"hallbooking/internal/domains/venue/service"
	"hallbooking/shared/constant"
	gDto "hallbooking/shared/dto"
	"hallbooking/shared/failure"
	"hallbooking/shared/timezone"
	"hallbooking/shared/validator"
	"hallbooking/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Venue
	otel    otel.Otel
}

func New(service service.Venue, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/venues", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateVenue)
		routerGroup.Get("/", handler.GetVenues)
		routerGroup.Get("/{id}", handler.GetVenueByID)
		routerGroup.Patch("/{id}", handler.UpdateVenue)
		routerGroup.Delete("/{id}", handler.DeleteVenue)

		routerGroup.Get("/{id}/blackouts", handler.GetBlackouts)
		routerGroup.Post("/{id}/blackouts", handler.CreateBlackout)
		routerGroup.Delete("/{id}/blackouts/{blackoutId}", handler.DeleteBlackout)
	})
}

// CreateVenue registers a new venue for the tenant.
// @Summary Create a new venue
// @Description Register a venue with its capacity, rate and confirmation policy.
// @Tags Venue
// @Accept json
// @Produce json
// @Param request body dto.CreateVenueRequest true "Create Venue Request"
// @Success 201 {object} response.Message "Venue created successfully"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/venues [post]
// @Security BearerAuth
func (handler *Handler) CreateVenue(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateVenue")
	defer scope.End()

	req := dto.CreateVenueRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create venue")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Venue created successfully by user " + user)

	response.WithMessage(writer, http.StatusCreated, "Venue created successfully")
}

// GetVenues retrieves venues for the tenant.
// @Summary Get all venues
// @Description Retrieve venues with optional filtering and pagination.
// @Tags Venue
// @Accept json
// @Produce json
// @Param name query string false "Filter by name"
// @Success 200 {object} dto.GetVenuesResponse "List of venues"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/venues [get]
// @Security BearerAuth
func (handler *Handler) GetVenues(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetVenues")
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

	if name := request.URL.Query().Get(model.FieldName); name != constant.Empty {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldName,
			Operator: gDto.FilterOperatorLike,
			Value:    name,
			Table:    model.TableName,
		})
	}

	venues, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get venues")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Venues retrieved successfully")

	response.WithJSON(writer, http.StatusOK, venues)
}

// GetVenueByID retrieves a venue by its ID.
// @Summary Get a venue by ID
// @Description Retrieve a venue by its unique identifier.
// @Tags Venue
// @Accept json
// @Produce json
// @Param id path string true "Venue ID"
// @Success 200 {object} dto.VenueResponse "Venue details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/venues/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetVenueByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetVenueByID")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	venue, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get venue by ID")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Venue retrieved successfully")

	response.WithJSON(writer, http.StatusOK, venue)
}

// UpdateVenue updates an existing venue.
// @Summary Update a venue by ID
// @Description Update the details of an existing venue.
// @Tags Venue
// @Accept json
// @Produce json
// @Param id path string true "Venue ID"
// @Param request body dto.UpdateVenueRequest true "Update Venue Request"
// @Success 200 {object} response.Message "Venue updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/venues/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateVenue(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateVenue")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.UpdateVenueRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update venue")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Venue updated successfully")

	response.WithMessage(writer, http.StatusOK, "Venue updated successfully")
}

// DeleteVenue removes a venue.
// @Summary Delete a venue by ID
// @Description Delete a venue. Existing reservations keep their audit trail.
// @Tags Venue
// @Accept json
// @Produce json
// @Param id path string true "Venue ID"
// @Success 200 {object} response.Message "Venue deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/venues/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteVenue(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteVenue")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete venue")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Venue deleted successfully")

	response.WithMessage(writer, http.StatusOK, "Venue deleted successfully")
}

// GetBlackouts lists a venue's blackout periods.
// @Summary Get venue blackouts
// @Description List blackout periods intersecting the given range, or all upcoming ones.
// @Tags Venue
// @Accept json
// @Produce json
// @Param id path string true "Venue ID"
// @Param starts_at query string false "Range start (RFC3339)"
// @Param ends_at query string false "Range end (RFC3339)"
// @Success 200 {object} dto.GetBlackoutsResponse "Blackout periods"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/venues/{id}/blackouts [get]
// @Security BearerAuth
func (handler *Handler) GetBlackouts(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBlackouts")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	startsAt, endsAt, err := parseOptionalWindow(request)
	if err != nil {
		scope.TraceError(err)

		response.WithError(writer, err)

		return
	}

	// Without an explicit range, show the upcoming year.
	if startsAt.IsZero() {
		startsAt = timezone.NowUTC()
	}

	if endsAt.IsZero() {
		endsAt = startsAt.AddDate(1, 0, 0)
	}

	blackouts, err := handler.service.ListBlackouts(ctx, id, startsAt, endsAt)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get blackouts")

		response.WithError(writer, err)

		return
	}

	res := dto.GetBlackoutsResponse{}
	res.FromModels(blackouts)

	scope.AddEvent("Blackouts retrieved successfully")

	response.WithJSON(writer, http.StatusOK, res)
}

// CreateBlackout adds a blackout period to a venue.
// @Summary Create a venue blackout
// @Description Block a time range for maintenance or private use. Blackouts make the range unavailable without occupying a reservation slot.
// @Tags Venue
// @Accept json
// @Produce json
// @Param id path string true "Venue ID"
// @Param request body dto.CreateBlackoutRequest true "Create Blackout Request"
// @Success 201 {object} response.Message "Blackout created successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/venues/{id}/blackouts [post]
// @Security BearerAuth
func (handler *Handler) CreateBlackout(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBlackout")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.CreateBlackoutRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.CreateBlackout(ctx, id, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create blackout")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Blackout created successfully")

	response.WithMessage(writer, http.StatusCreated, "Blackout created successfully")
}

// DeleteBlackout removes a blackout period.
// @Summary Delete a venue blackout
// @Description Remove a blackout period from a venue.
// @Tags Venue
// @Accept json
// @Produce json
// @Param id path string true "Venue ID"
// @Param blackoutId path string true "Blackout ID"
// @Success 200 {object} response.Message "Blackout deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/venues/{id}/blackouts/{blackoutId} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteBlackout(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteBlackout")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)
	blackoutID := chi.URLParam(request, requestParamBlackoutID)

	if err := handler.service.DeleteBlackout(ctx, id, blackoutID); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete blackout")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Blackout deleted successfully")

	response.WithMessage(writer, http.StatusOK, "Blackout deleted successfully")
}

const (
	requestParamBlackoutID = "blackoutId"
	requestParamStartsAt   = "starts_at"
	requestParamEndsAt     = "ends_at"
)

func parseOptionalWindow(request *http.Request) (time.Time, time.Time, error) {
	var startsAt, endsAt time.Time

	if raw := request.URL.Query().Get(requestParamStartsAt); raw != constant.Empty {
		parsed, err := time.Parse(constant.DateFormat, raw)
		if err != nil {
			return startsAt, endsAt, failure.BadRequestFromString("starts_at must be a valid RFC3339 timestamp")
		}

		startsAt = parsed.UTC()
	}

	if raw := request.URL.Query().Get(requestParamEndsAt); raw != constant.Empty {
		parsed, err := time.Parse(constant.DateFormat, raw)
		if err != nil {
			return startsAt, endsAt, failure.BadRequestFromString("ends_at must be a valid RFC3339 timestamp")
		}

		endsAt = parsed.UTC()
	}

	return startsAt, endsAt, nil
}
