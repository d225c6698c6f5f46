package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"hallbooking/config"
	"hallbooking/infras/otel"
	"hallbooking/internal/domains/venue/model"
	"hallbooking/internal/domains/venue/model/dto"
	"hallbooking/internal/domains/venue/repository"
	"hallbooking/shared"
	"hallbooking/shared/cache"
	"hallbooking/shared/constant"
	gDto "hallbooking/shared/dto"
	"hallbooking/shared/failure"
)

const (
	cacheGetVenue      = "venue:get"
	cacheGetVenueModel = "venue:model"
	cacheGetAllVenue   = "venue:gets"
	cacheCountVenue    = "venue:count"
)

type Venue interface {
	Create(ctx context.Context, req dto.CreateVenueRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetVenuesResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.VenueResponse, error)
	GetModel(ctx context.Context, id string) (model.Venue, error)
	Update(ctx context.Context, req dto.UpdateVenueRequest, id string) error
	Delete(ctx context.Context, id string) error

	ListBlackouts(ctx context.Context, venueID string, startsAt, endsAt time.Time) ([]model.VenueBlackout, error)
	CreateBlackout(ctx context.Context, venueID string, req dto.CreateBlackoutRequest) error
	DeleteBlackout(ctx context.Context, venueID, blackoutID string) error
}

type serviceImpl struct {
	repo      repository.Venue
	blackouts repository.Blackout
	cfg       *config.Config
	cache     cache.RedisCache
	otel      otel.Otel
}

func New(repo repository.Venue, blackouts repository.Blackout, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Venue {
	return &serviceImpl{
		repo:      repo,
		blackouts: blackouts,
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

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateVenueRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)

	if err = s.repo.Insert(ctx, req.ToModel(tenantID, user)); err != nil {
		return err
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllVenue)
		shared.InvalidateCaches(c, s.cache, cacheCountVenue)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetVenuesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllVenue, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for venues")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count venues")

		return res, fmt.Errorf("failed to count venues: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get venues")

		return res, fmt.Errorf("failed to get venues: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save venues to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountVenue, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count venues")

		return res, fmt.Errorf("failed to count venues: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save venue count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.VenueResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	venue, err := s.GetModel(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(venue)

	return res, nil
}

// GetModel returns the venue row itself for collaborators that price, check
// capacity or resolve the venue timezone.
func (s *serviceImpl) GetModel(ctx context.Context, id string) (res model.Venue, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetModel")
	defer scope.End()
	defer scope.TraceIfError(err)

	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)
	cacheKey := shared.BuildCacheKey(cacheGetVenueModel, tenantID, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		return res, nil
	}

	venue, err := s.repo.Get(ctx, tenantScopedFilter(tenantID, id))
	if err != nil {
		log.Error().Err(err).Msg("failed to get venue")

		return res, fmt.Errorf("failed to get venue: %w", err)
	}

	if venue.ID == constant.Empty {
		return res, failure.NotFound("venue not found") // nolint:wrapcheck
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, venue, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save venue to cache")
		}
	}()

	return venue, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateVenueRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)
	filter := tenantScopedFilter(tenantID, id)

	current, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check venue existence")

		return err
	}

	if current.ID == constant.Empty {
		return failure.NotFound("venue not found") // nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, user)

	if err := s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update venue")

		return fmt.Errorf("failed to update venue: %w", err)
	}

	s.invalidateVenue(ctx, tenantID, id)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)
	filter := tenantScopedFilter(tenantID, id)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if venue exists")

		return fmt.Errorf("failed to check if venue exists: %w", err)
	}

	if !exist {
		return failure.NotFound("venue not found") // nolint:wrapcheck
	}

	if err := s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete venue")

		return fmt.Errorf("failed to delete venue: %w", err)
	}

	s.invalidateVenue(ctx, tenantID, id)

	return nil
}

// ListBlackouts returns the blackouts intersecting [startsAt, endsAt) for the
// venue, ordered by start.
func (s *serviceImpl) ListBlackouts(ctx context.Context, venueID string, startsAt, endsAt time.Time) (res []model.VenueBlackout, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ListBlackouts")
	defer scope.End()
	defer scope.TraceIfError(err)

	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)

	res, err = s.blackouts.FindOverlapping(ctx, tenantID, venueID, startsAt, endsAt)
	if err != nil {
		log.Error().Err(err).Msg("failed to list venue blackouts")

		return nil, fmt.Errorf("failed to list venue blackouts: %w", err)
	}

	return res, nil
}

func (s *serviceImpl) CreateBlackout(ctx context.Context, venueID string, req dto.CreateBlackoutRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CreateBlackout")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)

	if _, err = s.GetModel(ctx, venueID); err != nil {
		return err
	}

	blackout, err := req.ToModel(tenantID, venueID, user)
	if err != nil {
		return failure.BadRequest(fmt.Errorf("invalid blackout range: %w", err)) // nolint:wrapcheck
	}

	if !blackout.EndsAt.After(blackout.StartsAt) {
		return failure.BadRequestFromString("blackout must end after it starts") // nolint:wrapcheck
	}

	if err = s.blackouts.Insert(ctx, blackout); err != nil {
		log.Error().Err(err).Msg("failed to insert venue blackout")

		return fmt.Errorf("failed to insert venue blackout: %w", err)
	}

	s.invalidateVenue(ctx, tenantID, venueID)

	return nil
}

func (s *serviceImpl) DeleteBlackout(ctx context.Context, venueID, blackoutID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DeleteBlackout")
	defer scope.End()
	defer scope.TraceIfError(err)

	tenantID, _ := ctx.Value(constant.ContextKeyTenantID).(string)

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.BlackoutFieldTenantID, Value: tenantID, Operator: gDto.FilterOperatorEq, Table: model.BlackoutTableName},
			gDto.Filter{Field: model.BlackoutFieldVenueID, Value: venueID, Operator: gDto.FilterOperatorEq, Table: model.BlackoutTableName},
			gDto.Filter{Field: model.BlackoutFieldID, Value: blackoutID, Operator: gDto.FilterOperatorEq, Table: model.BlackoutTableName},
		},
	}

	blackout, err := s.blackouts.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get venue blackout")

		return fmt.Errorf("failed to get venue blackout: %w", err)
	}

	if blackout.ID == constant.Empty {
		return failure.NotFound("venue blackout not found") // nolint:wrapcheck
	}

	if err = s.blackouts.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete venue blackout")

		return fmt.Errorf("failed to delete venue blackout: %w", err)
	}

	s.invalidateVenue(ctx, tenantID, venueID)

	return nil
}

// invalidateVenue drops every cache entry derived from the venue, including
// availability answers, since they embed venue attributes and blackouts.
func (s *serviceImpl) invalidateVenue(ctx context.Context, tenantID, venueID string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetVenueModel, tenantID, venueID)); err != nil {
			log.Error().Err(err).Msg("failed to delete venue model cache")
		}

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetVenue, venueID)); err != nil {
			log.Error().Err(err).Msg("failed to delete venue cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllVenue)
		shared.InvalidateCaches(c, s.cache, cacheCountVenue)
		shared.InvalidateCaches(c, s.cache, shared.BuildCacheKey(constant.CacheKeyAvailability, tenantID, venueID))
	}()
}
