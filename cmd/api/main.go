package main

import (
	"context"
	"log"

	"upload-registry/config"
	"upload-registry/internal/app"
	"upload-registry/internal/handler"
	"upload-registry/internal/server"
	"upload-registry/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.LogMode)
	logger.SetGlobalLogger(l)
	defer func() { _ = l.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Build(ctx, cfg, l)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	a.Retention.Start(ctx)

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Upload: handler.NewUploadHandler(a.Uploads, a.Cleanup, l),
	}, server.Deps{
		Auth:    a.Auth,
		Health:  a.Uploads,
		Limiter: a.Limiter,
	})

	if err := srv.Start(); err != nil {
		l.Errorf("server exited: %v", err)
	}
}
