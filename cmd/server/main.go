package main

import (
	"context"
	"log"
	"os"

	"github.com/abidm-bit/riceKrispies/internal/logging"
	"github.com/abidm-bit/riceKrispies/internal/server"
	"github.com/abidm-bit/riceKrispies/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "init failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped", "error", err)
		_ = app.Close()
		os.Exit(1)
	}
}
