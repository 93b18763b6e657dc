package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"mindwell/wellbeing-platform/internal/app"
	"mindwell/wellbeing-platform/internal/config"
)

func main() {
	if path, err := config.LoadDotenv(); err != nil {
		log.Fatalf("load .env: %v", err)
	} else if path != "" {
		log.Printf("loaded environment from %s", path)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("create app: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("run app: %v", err)
	}
}
