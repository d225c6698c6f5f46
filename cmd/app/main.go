package main

import (
	"context"

	"hallbooking/config"
	"hallbooking/di"
	"hallbooking/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	app := di.InitializeApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.Reconciler.Start(ctx)
	app.HTTP.Serve()
}
