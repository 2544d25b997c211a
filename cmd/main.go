package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"device-registry/internal/auth"
	"device-registry/internal/handler"
	"device-registry/internal/middleware"
	"device-registry/internal/store"
	"device-registry/pkg/config"
	"device-registry/pkg/database"
	"device-registry/pkg/jwtutil"
	"device-registry/pkg/logger"
	"device-registry/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting device registry service...", cfg.LogConfig()...)

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire the auth core: codec, stores, services, handlers
	codec := jwtutil.New(&cfg.JWT)
	credentials := store.NewGormCredentialStore(db)
	devices := store.NewGormDeviceStore(db)
	authService := auth.NewService(credentials, codec, log)

	authHandler := handler.NewAuthHandler(authService)
	platformHandler := handler.NewPlatformHandler(credentials)
	deviceHandler := handler.NewDeviceHandler(devices)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	api := e.Group("/api")

	// Authentication routes
	authGroup := api.Group("/auth")
	authGroup.POST("/login/", authHandler.Login)
	authGroup.POST("/register/", authHandler.Register)
	authGroup.POST("/refresh/", authHandler.Refresh)

	// Public, read-only platform catalogue
	api.GET("/platforms/", platformHandler.List)

	// Device routes - all require a resolved identity
	deviceGroup := api.Group("/devices")
	deviceGroup.Use(middleware.Auth(codec, authService))
	deviceGroup.GET("/", deviceHandler.List)
	deviceGroup.POST("/", deviceHandler.Create)
	deviceGroup.GET("/my_devices/", deviceHandler.MyDevices)
	deviceGroup.GET("/:id/", deviceHandler.Get)
	deviceGroup.PATCH("/:id/", deviceHandler.Update)
	deviceGroup.DELETE("/:id/", deviceHandler.Delete)
	deviceGroup.PATCH("/:id/toggle_active/", deviceHandler.ToggleActive)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
