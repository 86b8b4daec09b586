package main

import (
	"context"
	"log"

	"gigmarket/internal/devserver"
	"gigmarket/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	srv := devserver.New(ctx, cfg)
	if err := srv.Start(); err != nil {
		log.Fatalf("Dev server stopped: %v", err)
	}
}
