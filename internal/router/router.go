package router

import (
	"errors"
	"net/http"

	"github.com/chirpnest/backend/internal/handlers"
	"github.com/chirpnest/backend/internal/media"
	"github.com/chirpnest/backend/internal/middleware"
	"github.com/chirpnest/backend/internal/repositories"
	"github.com/chirpnest/backend/pkg/config"
	"github.com/chirpnest/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SetupMiddleware configures global Echo middleware and the error
// handler producing the {"error": "<message>"} body
func SetupMiddleware(e *echo.Echo) {
	e.Pre(eMiddleware.RemoveTrailingSlash())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.HTTPErrorHandler = HTTPErrorHandler
	logger.Log.Info("global middleware configured")
}

// HTTPErrorHandler maps every failure to one JSON error body and
// status. Internal errors are logged server-side and never exposed to
// the client.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err))
		message = "Internal server error"
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": message})
}

// SetupRoutes configures all application routes and injects
// dependencies
func SetupRoutes(e *echo.Echo, db *mongo.Database, mediaSvc media.Service, cfg *config.Config) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	userRepo := repositories.NewMongoUserRepository(db)
	postRepo := repositories.NewMongoPostRepository(db)
	notificationRepo := repositories.NewMongoNotificationRepository(db)

	api := e.Group("/api")

	// Unprotected routes for authentication
	authGroup := api.Group("/auth")

	// Protected routes (require a valid session cookie)
	protected := api.Group("")
	protected.Use(middleware.SessionAuthMiddleware(cfg.JWTSecret))

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.Env)
	authHandler.RegisterAuthRoutes(authGroup, protected)
	logger.Log.Info("auth routes configured")

	userHandler := handlers.NewUserHandler(userRepo, notificationRepo, mediaSvc)
	userHandler.RegisterUserRoutes(protected)
	logger.Log.Info("user routes configured")

	postHandler := handlers.NewPostHandler(postRepo, userRepo, notificationRepo, mediaSvc)
	postHandler.RegisterPostRoutes(protected)
	logger.Log.Info("post routes configured")

	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	notificationHandler.RegisterNotificationRoutes(protected)
	logger.Log.Info("notification routes configured")
}
