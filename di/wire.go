//go:build wireinject
// +build wireinject

package di

import (
	"hallbooking/config"
	"hallbooking/infras/jwt"
	"hallbooking/infras/kafka"
	"hallbooking/infras/otel"
	"hallbooking/infras/postgres"
	"hallbooking/infras/redis"
	healthHandler "hallbooking/internal/handlers/health"
	reservationHandler "hallbooking/internal/handlers/reservation"
	tenantHandler "hallbooking/internal/handlers/tenant"
	venueHandler "hallbooking/internal/handlers/venue"
	"hallbooking/permissions"
	"hallbooking/shared/cache"
	"hallbooking/transport/http"
	"hallbooking/transport/http/middleware"
	"hallbooking/transport/http/router"

	customerRepository "hallbooking/internal/domains/customer/repository"
	"hallbooking/internal/domains/reservation/availability"
	"hallbooking/internal/domains/reservation/reconciler"
	reservationRepository "hallbooking/internal/domains/reservation/repository"
	"hallbooking/internal/domains/reservation/sequence"
	reservationService "hallbooking/internal/domains/reservation/service"
	tenantRepository "hallbooking/internal/domains/tenant/repository"
	tenantService "hallbooking/internal/domains/tenant/service"
	venueRepository "hallbooking/internal/domains/venue/repository"
	venueService "hallbooking/internal/domains/venue/service"
	"hallbooking/internal/events"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	provideIdempotencyGuard,
	events.New,
)

var tenantDomain = wire.NewSet(
	tenantRepository.New,
	tenantService.New,
)

var venueDomain = wire.NewSet(
	venueRepository.New,
	venueRepository.NewBlackout,
	venueService.New,
)

var customerDomain = wire.NewSet(
	customerRepository.New,
)

var reservationDomain = wire.NewSet(
	reservationRepository.New,
	sequence.New,
	availability.New,
	reservationService.New,
	reconciler.New,
)

var domains = wire.NewSet(
	tenantDomain,
	venueDomain,
	customerDomain,
	reservationDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	healthHandler.New,
	tenantHandler.New,
	venueHandler.New,
	reservationHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeApp() *App {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
		wire.Struct(new(App), "*"),
	)

	return &App{}
}
