package main

import (
	"log"

	"github.com/chirpnest/backend/internal/media"
	"github.com/chirpnest/backend/internal/router"
	"github.com/chirpnest/backend/pkg/config"
	"github.com/chirpnest/backend/pkg/logger"
	"github.com/chirpnest/backend/validators"
	"github.com/labstack/echo/v4"
)

func main() {
	// Initialize database connection (also loads .env)
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	// Load configuration
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	// Initialize media host client
	mediaSvc, err := media.NewCloudinaryService(
		cfg.CloudinaryCloudName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		log.Fatalf("Failed to initialize media service: %v", err)
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Mongo.Database(cfg.MongoDB), mediaSvc, cfg)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
