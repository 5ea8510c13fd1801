package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/checkout-api/config"
	orderControllers "github.com/junaidrashid-git/checkout-api/controllers/order"
	"github.com/junaidrashid-git/checkout-api/events"
	"github.com/junaidrashid-git/checkout-api/inventory"
	"github.com/junaidrashid-git/checkout-api/middleware"
	"github.com/junaidrashid-git/checkout-api/models"
	"github.com/junaidrashid-git/checkout-api/routes"
	"github.com/junaidrashid-git/checkout-api/services"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config failed: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("❌ Logger setup failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("✅ Starting application...", zap.String("env", cfg.Environment))

	// Init DB
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("❌ DB connection failed", zap.Error(err))
	}

	// Auto-migrate all tables
	if err := db.AutoMigrate(
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.GuestUser{},
	); err != nil {
		logger.Fatal("❌ AutoMigrate failed", zap.Error(err))
	}

	// Order events: websocket dashboard always, Redis when configured
	hub := orderControllers.NewHub(logger)
	publishers := events.Multi{hub}
	if cfg.RedisURL != "" {
		redisPublisher, err := events.NewRedisPublisher(cfg.RedisURL, cfg.OrderEventsChannel)
		if err != nil {
			logger.Fatal("❌ Redis connection failed", zap.Error(err))
		}
		defer redisPublisher.Close()
		publishers = append(publishers, redisPublisher)
		logger.Info("📣 Publishing order events to Redis", zap.String("channel", cfg.OrderEventsChannel))
	}

	// Checkout core
	ledger := inventory.NewLedger(db)
	carts := services.NewCartService(db, ledger, logger, cfg.CartMaxLineQuantity)
	validator := services.NewCartValidator(carts)
	factory := services.NewOrderFactory(db, ledger, carts, validator, publishers, logger)
	lifecycle := services.NewOrderLifecycle(db, ledger, publishers, logger)

	// Gin setup
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(cfg.CORSAllowOrigins),
		MaxAge:           12 * time.Hour,
	}))

	// Setup routes
	routes.SetupRoutes(r, &routes.Deps{
		DB:          db,
		Logger:      logger,
		JWTSecret:   cfg.JWTSecret,
		AdminAPIKey: cfg.AdminAPIKey,
		Ledger:      ledger,
		Carts:       carts,
		Validator:   validator,
		Factory:     factory,
		Lifecycle:   lifecycle,
		Hub:         hub,
	})

	// Start server
	logger.Info("🚀 Server running", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("❌ Failed to start server", zap.Error(err))
	}
}

// newLogger builds a production JSON logger or a development console logger.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// gin-contrib/cors rejects credentials together with a wildcard origin.
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
