package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/powerzone/gymclient/internal/config"
	"github.com/powerzone/gymclient/internal/stub"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Open and prepare the database
	db, err := stub.OpenDB(cfg.Stub.DBPath)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := stub.Migrate(ctx, db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	if cfg.Stub.Seed {
		if err := stub.Seed(ctx, db); err != nil {
			logger.Fatal("Failed to seed database", zap.Error(err))
		}
	}

	repo := stub.NewRepo(db, logger)
	router := stub.NewRouter(repo, logger, cfg.Environment)

	// The storefront runs in a browser, so the stub answers preflights too.
	handler := cors.AllowAll().Handler(router)

	addr := ":" + cfg.Stub.Port
	logger.Info("Stub backend listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
