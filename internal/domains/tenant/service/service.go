package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"hallbooking/config"
	"hallbooking/infras/otel"
	"hallbooking/internal/domains/tenant/model"
	"hallbooking/internal/domains/tenant/model/dto"
	"hallbooking/internal/domains/tenant/repository"
	"hallbooking/shared"
	"hallbooking/shared/cache"
	"hallbooking/shared/constant"
	gDto "hallbooking/shared/dto"
	"hallbooking/shared/failure"
)

const (
	cacheGetTenantModel = "tenant:model"
	cacheGetAllTenant   = "tenant:gets"
	cacheCountTenant    = "tenant:count"
)

type Tenant interface {
	Create(ctx context.Context, req dto.CreateTenantRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetTenantsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.TenantResponse, error)
	GetModel(ctx context.Context, id string) (model.Tenant, error)
	Update(ctx context.Context, req dto.UpdateTenantRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo  repository.Tenant
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Tenant, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Tenant {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateTenantRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if err = s.repo.Insert(ctx, req.ToModel(user)); err != nil {
		log.Error().Err(err).Msg("failed to create tenant")

		return fmt.Errorf("failed to create tenant: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllTenant)
		shared.InvalidateCaches(c, s.cache, cacheCountTenant)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetTenantsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllTenant, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for tenants")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count tenants")

		return res, fmt.Errorf("failed to count tenants: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get tenants")

		return res, fmt.Errorf("failed to get tenants: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save tenants to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountTenant, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count tenants")

		return res, fmt.Errorf("failed to count tenants: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save tenant count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.TenantResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	tenant, err := s.GetModel(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(tenant)

	return res, nil
}

// GetModel returns the tenant row itself so callers can check the tenant is
// still active before acting on its behalf.
func (s *serviceImpl) GetModel(ctx context.Context, id string) (res model.Tenant, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetModel")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetTenantModel, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	tenant, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get tenant")

		return res, fmt.Errorf("failed to get tenant: %w", err)
	}

	if tenant.ID == constant.Empty {
		return res, failure.NotFound("tenant not found") // nolint:wrapcheck
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, tenant, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save tenant to cache")
		}
	}()

	return tenant, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateTenantRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	current, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check tenant existence")

		return fmt.Errorf("failed to check tenant existence: %w", err)
	}

	if current.ID == constant.Empty {
		return failure.NotFound("tenant not found") // nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, user)

	if err := s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update tenant")

		return fmt.Errorf("failed to update tenant: %w", err)
	}

	s.invalidateTenant(ctx, id)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if tenant exists")

		return fmt.Errorf("failed to check if tenant exists: %w", err)
	}

	if !exist {
		return failure.NotFound("tenant not found") // nolint:wrapcheck
	}

	if err := s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete tenant")

		return fmt.Errorf("failed to delete tenant: %w", err)
	}

	s.invalidateTenant(ctx, id)

	return nil
}

func (s *serviceImpl) invalidateTenant(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetTenantModel, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete tenant cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllTenant)
		shared.InvalidateCaches(c, s.cache, cacheCountTenant)
	}()
}
