package tenant

import (
	"net/http"

	"hallbooking/infras/otel"
	"hallbooking/internal/domains/tenant/model"
	"hallbooking/internal/domains/tenant/model/dto"
	"hallbooking/internal/domains/tenant/service"
	"hallbooking/shared/constant"
	gDto "hallbooking/shared/dto"
	"hallbooking/shared/validator"
	"hallbooking/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Tenant
	otel    otel.Otel
}

func New(service service.Tenant, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/tenants", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateTenant)
		routerGroup.Get("/", handler.GetTenants)
		routerGroup.Get("/{id}", handler.GetTenantByID)
		routerGroup.Patch("/{id}", handler.UpdateTenant)
		routerGroup.Delete("/{id}", handler.DeleteTenant)
	})
}

// CreateTenant registers a new tenant.
// @Summary Create a new tenant
// @Description Register a tenant organization.
// @Tags Tenant
// @Accept json
// @Produce json
// @Param request body dto.CreateTenantRequest true "Create Tenant Request"
// @Success 201 {object} response.Message "Tenant created successfully"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tenants [post]
// @Security BearerAuth
func (handler *Handler) CreateTenant(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateTenant")
	defer scope.End()

	req := dto.CreateTenantRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create tenant")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Tenant created successfully by user " + user)

	response.WithMessage(writer, http.StatusCreated, "Tenant created successfully")
}

// GetTenants retrieves tenants.
// @Summary Get all tenants
// @Description Retrieve tenants with optional filtering and pagination.
// @Tags Tenant
// @Accept json
// @Produce json
// @Param name query string false "Filter by name"
// @Success 200 {object} dto.GetTenantsResponse "List of tenants"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tenants [get]
// @Security BearerAuth
func (handler *Handler) GetTenants(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTenants")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if name := request.URL.Query().Get(model.FieldName); name != constant.Empty {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldName,
			Operator: gDto.FilterOperatorLike,
			Value:    name,
			Table:    model.TableName,
		})
	}

	tenants, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get tenants")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Tenants retrieved successfully")

	response.WithJSON(writer, http.StatusOK, tenants)
}

// GetTenantByID retrieves a tenant by its ID.
// @Summary Get a tenant by ID
// @Description Retrieve a tenant by its unique identifier.
// @Tags Tenant
// @Accept json
// @Produce json
// @Param id path string true "Tenant ID"
// @Success 200 {object} dto.TenantResponse "Tenant details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tenants/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetTenantByID(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTenantByID")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	tenant, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get tenant by ID")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Tenant retrieved successfully")

	response.WithJSON(writer, http.StatusOK, tenant)
}

// UpdateTenant updates an existing tenant.
// @Summary Update a tenant by ID
// @Description Update the details of an existing tenant.
// @Tags Tenant
// @Accept json
// @Produce json
// @Param id path string true "Tenant ID"
// @Param request body dto.UpdateTenantRequest true "Update Tenant Request"
// @Success 200 {object} response.Message "Tenant updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tenants/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateTenant(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateTenant")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.UpdateTenantRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update tenant")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Tenant updated successfully")

	response.WithMessage(writer, http.StatusOK, "Tenant updated successfully")
}

// DeleteTenant removes a tenant.
// @Summary Delete a tenant by ID
// @Description Delete a tenant organization.
// @Tags Tenant
// @Accept json
// @Produce json
// @Param id path string true "Tenant ID"
// @Success 200 {object} response.Message "Tenant deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tenants/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteTenant(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteTenant")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete tenant")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Tenant deleted successfully")

	response.WithMessage(writer, http.StatusOK, "Tenant deleted successfully")
}
