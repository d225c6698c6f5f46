package di

import (
	"hallbooking/config"
	"hallbooking/internal/domains/reservation/reconciler"
	"hallbooking/shared/cache"
	"hallbooking/shared/idempotency"
	"hallbooking/transport/http"
)

// App bundles the long-running pieces of the process: the HTTP server and the
// background reconciliation sweeps.
type App struct {
	HTTP       *http.HTTP
	Reconciler *reconciler.Reconciler
}

func provideIdempotencyGuard(c cache.RedisCache, cfg *config.Config) idempotency.Guard {
	return idempotency.New(c, cfg.Booking.IdempotencyTTLHours*60*60)
}
