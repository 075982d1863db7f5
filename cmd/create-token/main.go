package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/powerzone/gymclient/internal/config"
	"github.com/powerzone/gymclient/internal/stub"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/create-token/main.go <user-name> <token>")
		fmt.Println("Example: go run cmd/create-token/main.go \"Sara Haddad\" \"sara-dev-token-12345\"")
		os.Exit(1)
	}

	userName := os.Args[1]
	token := os.Args[2]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Open the stub database
	db, err := stub.OpenDB(cfg.Stub.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := stub.Migrate(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to migrate database: %v\n", err)
		os.Exit(1)
	}

	repo := stub.NewRepo(db, logger)
	userID, err := repo.CreateToken(ctx, userName, token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Created token for %s (user id %d)\n", userName, userID)
	fmt.Printf("Save it for the CLI with: echo %q > ~/.gymclient-token\n", token)
}
