package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Conceptual-Machines/composer-api/internal/app"
	"github.com/Conceptual-Machines/composer-api/internal/config"
	"github.com/joho/godotenv"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, GetVersion()); err != nil {
		log.Fatal("❌ ", err)
	}
}
