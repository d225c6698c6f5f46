// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"github.com/google/wire"
	"hallbooking/config"
	"hallbooking/infras/jwt"
	"hallbooking/infras/kafka"
	"hallbooking/infras/otel"
	"hallbooking/infras/postgres"
	"hallbooking/infras/redis"
	repository4 "hallbooking/internal/domains/customer/repository"
	"hallbooking/internal/domains/reservation/availability"
	"hallbooking/internal/domains/reservation/reconciler"
	repository3 "hallbooking/internal/domains/reservation/repository"
	"hallbooking/internal/domains/reservation/sequence"
	service3 "hallbooking/internal/domains/reservation/service"
	"hallbooking/internal/domains/tenant/repository"
	"hallbooking/internal/domains/tenant/service"
	repository2 "hallbooking/internal/domains/venue/repository"
	service2 "hallbooking/internal/domains/venue/service"
	"hallbooking/internal/events"
	"hallbooking/internal/handlers/health"
	"hallbooking/internal/handlers/reservation"
	"hallbooking/internal/handlers/tenant"
	"hallbooking/internal/handlers/venue"
	"hallbooking/permissions"
	"hallbooking/shared/cache"
	"hallbooking/transport/http"
	"hallbooking/transport/http/middleware"
	"hallbooking/transport/http/router"
)

// Injectors from wire.go:

func InitializeService() *http.HTTP {
	configConfig := config.Get()
	handler := health.New(configConfig)
	connection := postgres.New(configConfig)
	otelOtel := otel.New(configConfig)
	repositoryTenant := repository.New(connection, otelOtel)
	client := redis.New(configConfig)
	redisCache := cache.NewRedisCache(client, otelOtel)
	serviceTenant := service.New(repositoryTenant, configConfig, redisCache, otelOtel)
	tenantHandler := tenant.New(serviceTenant, otelOtel)
	repositoryVenue := repository2.New(connection, otelOtel)
	blackout := repository2.NewBlackout(connection, otelOtel)
	serviceVenue := service2.New(repositoryVenue, blackout, configConfig, redisCache, otelOtel)
	venueHandler := venue.New(serviceVenue, otelOtel)
	repositoryReservation := repository3.New(connection, otelOtel)
	customer := repository4.New(connection, otelOtel)
	generator := sequence.New(repositoryReservation, redisCache, otelOtel)
	guard := provideIdempotencyGuard(redisCache, configConfig)
	checker := availability.New(repositoryReservation, blackout, configConfig, redisCache, otelOtel)
	kafkaClient := kafka.New(configConfig)
	publisher := events.New(kafkaClient, configConfig)
	serviceReservation := service3.New(repositoryReservation, customer, serviceVenue, serviceTenant, generator, guard, checker, publisher, configConfig, redisCache, otelOtel)
	reservationHandler := reservation.New(serviceReservation, otelOtel)
	domainHandlers := router.DomainHandlers{
		Health:      handler,
		Tenant:      tenantHandler,
		Venue:       venueHandler,
		Reservation: reservationHandler,
	}
	routerRouter := router.New(domainHandlers)
	appMiddleware := middleware.NewAppMiddleware(otelOtel, configConfig, redisCache)
	jwtJWT := jwt.New(configConfig)
	permissionData := permissions.Get()
	authRole := middleware.NewAuthRoleMiddleware(jwtJWT, otelOtel, permissionData, configConfig)
	httpHTTP := http.New(configConfig, routerRouter, appMiddleware, authRole)
	return httpHTTP
}

func InitializeApp() *App {
	configConfig := config.Get()
	handler := health.New(configConfig)
	connection := postgres.New(configConfig)
	otelOtel := otel.New(configConfig)
	repositoryTenant := repository.New(connection, otelOtel)
	client := redis.New(configConfig)
	redisCache := cache.NewRedisCache(client, otelOtel)
	serviceTenant := service.New(repositoryTenant, configConfig, redisCache, otelOtel)
	tenantHandler := tenant.New(serviceTenant, otelOtel)
	repositoryVenue := repository2.New(connection, otelOtel)
	blackout := repository2.NewBlackout(connection, otelOtel)
	serviceVenue := service2.New(repositoryVenue, blackout, configConfig, redisCache, otelOtel)
	venueHandler := venue.New(serviceVenue, otelOtel)
	repositoryReservation := repository3.New(connection, otelOtel)
	customer := repository4.New(connection, otelOtel)
	generator := sequence.New(repositoryReservation, redisCache, otelOtel)
	guard := provideIdempotencyGuard(redisCache, configConfig)
	checker := availability.New(repositoryReservation, blackout, configConfig, redisCache, otelOtel)
	kafkaClient := kafka.New(configConfig)
	publisher := events.New(kafkaClient, configConfig)
	serviceReservation := service3.New(repositoryReservation, customer, serviceVenue, serviceTenant, generator, guard, checker, publisher, configConfig, redisCache, otelOtel)
	reservationHandler := reservation.New(serviceReservation, otelOtel)
	domainHandlers := router.DomainHandlers{
		Health:      handler,
		Tenant:      tenantHandler,
		Venue:       venueHandler,
		Reservation: reservationHandler,
	}
	routerRouter := router.New(domainHandlers)
	appMiddleware := middleware.NewAppMiddleware(otelOtel, configConfig, redisCache)
	jwtJWT := jwt.New(configConfig)
	permissionData := permissions.Get()
	authRole := middleware.NewAuthRoleMiddleware(jwtJWT, otelOtel, permissionData, configConfig)
	httpHTTP := http.New(configConfig, routerRouter, appMiddleware, authRole)
	reconcilerReconciler := reconciler.New(repositoryReservation, publisher, redisCache, configConfig, otelOtel)
	app := &App{
		HTTP:       httpHTTP,
		Reconciler: reconcilerReconciler,
	}
	return app
}

// wire.go:

var configurations = wire.NewSet(config.Get, permissions.Get)

var infrastructures = wire.NewSet(postgres.New, otel.New, redis.New, jwt.New, kafka.New)

var middlewares = wire.NewSet(middleware.NewAppMiddleware, middleware.NewAuthRoleMiddleware)

var sharedHelpers = wire.NewSet(cache.NewRedisCache, provideIdempotencyGuard, events.New)

var tenantDomain = wire.NewSet(repository.New, service.New)

var venueDomain = wire.NewSet(repository2.New, repository2.NewBlackout, service2.New)

var customerDomain = wire.NewSet(repository4.New)

var reservationDomain = wire.NewSet(repository3.New, sequence.New, availability.New, service3.New, reconciler.New)

var domains = wire.NewSet(
	tenantDomain,
	venueDomain,
	customerDomain,
	reservationDomain,
)

var routing = wire.NewSet(wire.Struct(new(router.DomainHandlers), "*"), health.New, tenant.New, venue.New, reservation.New, router.New)
