package main

import (
	"time"

	"vendor-service/internal/handler"
	"vendor-service/internal/middleware"
	"vendor-service/pkg/config"
	"vendor-service/pkg/database"
	"vendor-service/pkg/jwtutil"
	"vendor-service/pkg/logger"
	"vendor-service/pkg/validate"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
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
	log.Info("Starting vendor service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize database and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.Database.Host),
		zap.String("db_name", cfg.Database.Name))

	// Create Echo instance
	e := echo.New()
	e.Validator = validate.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(prometheus.Middleware())

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Process request
			err := next(c)

			// Log request details
			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Float64("duration_s", time.Since(start).Seconds()),
				zap.String("ip", c.RealIP()),
			)

			return err
		}
	})

	// Routes
	// Public routes that don't require authentication
	e.GET("/", handler.Hello)
	e.GET("/health", handler.Hello)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(prometheus.Handler()))

	// API routes that require a vendor credential
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Vendor endpoints
	vendors := api.Group("/vendors")
	vendors.POST("", handler.CreateVendor)
	vendors.GET("", handler.ListVendors)
	vendors.GET("/:id", handler.GetVendor)
	vendors.PUT("/:id", handler.UpdateVendor)
	vendors.DELETE("/:id", handler.DeleteVendor)
	vendors.GET("/:id/performance", handler.GetVendorPerformance)
	vendors.GET("/:id/performance/history", handler.GetVendorPerformanceHistory)

	// Purchase order endpoints
	orders := api.Group("/purchase_orders")
	orders.POST("", handler.CreatePurchaseOrder)
	orders.GET("", handler.ListPurchaseOrders)
	orders.GET("/:id", handler.GetPurchaseOrder)
	orders.PUT("/:id", handler.UpdatePurchaseOrder)
	orders.DELETE("/:id", handler.DeletePurchaseOrder)
	orders.POST("/:id/acknowledge", handler.AcknowledgePurchaseOrder)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
