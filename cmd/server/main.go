package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	stockapp "github.com/farmstock/backend/internal/application/stock"
	"github.com/farmstock/backend/internal/infrastructure/config"
	"github.com/farmstock/backend/internal/infrastructure/event"
	"github.com/farmstock/backend/internal/infrastructure/logger"
	"github.com/farmstock/backend/internal/infrastructure/persistence"
	"github.com/farmstock/backend/internal/interfaces/http/handler"
	"github.com/farmstock/backend/internal/interfaces/http/middleware"
	"github.com/farmstock/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("Starting FarmStock backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Connect to database with zap-backed GORM logging
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("dbname", cfg.Database.DBName),
	)

	// Repositories
	entryRepo := persistence.NewGormStockEntryRepository(db.DB)
	txRepo := persistence.NewGormStockTransactionRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Application services
	ledgerService := stockapp.NewLedgerService(entryRepo, txRepo, txScope)
	consumptionService := stockapp.NewConsumptionService(entryRepo, txRepo, txScope)

	// Event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(stockapp.NewLotDepletedHandler(log).
		WithNotifier(stockapp.NewLoggingRestockNotifier(log)))

	ctx := context.Background()
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := eventBus.Stop(stopCtx); err != nil {
			log.Warn("Event bus shutdown incomplete", zap.Error(err))
		}
	}()

	ledgerService.SetEventPublisher(eventBus)
	consumptionService.SetEventPublisher(eventBus)

	// HTTP handlers
	entryHandler := handler.NewStockEntryHandler(ledgerService)
	consumptionHandler := handler.NewConsumptionHandler(consumptionService)
	systemHandler := handler.NewSystemHandler()

	// Gin setup
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
			AllowMethods:  cfg.HTTP.CORSAllowMethods,
			AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		}),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check outside the versioned API
	engine.GET("/health", healthHandler(db, log))

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	stockGroup := router.NewDomainGroup("stock", "/stock")
	stockGroup.
		POST("/entries", entryHandler.Receive).
		GET("/entries/:id", entryHandler.GetByID).
		GET("/entries/:id/balance", entryHandler.Balance).
		GET("/entries/:id/transactions", entryHandler.History).
		POST("/entries/:id/ledger", entryHandler.InitializeLedger).
		GET("/entries/:id/ledger/verify", entryHandler.VerifyLedger).
		POST("/entries/:id/add", entryHandler.AddStock).
		POST("/entries/:id/waste", entryHandler.RecordWaste).
		POST("/entries/:id/deactivate", entryHandler.Deactivate).
		POST("/entries/:id/activate", entryHandler.Activate).
		GET("/lots", consumptionHandler.ListLots).
		GET("/lots/:category/:code", consumptionHandler.LotSummary).
		GET("/lots/:category/:code/entries", consumptionHandler.LotEntries).
		GET("/lots/:category/:code/quantity", consumptionHandler.Quantity).
		GET("/lots/:category/:code/depleted", consumptionHandler.IsDepleted).
		GET("/lots/:category/:code/can-consume", consumptionHandler.CanConsume).
		GET("/lots/:category/:code/plan", consumptionHandler.Plan).
		POST("/consume", consumptionHandler.Consume)

	systemGroup := router.NewDomainGroup("system", "/system")
	systemGroup.
		GET("/info", systemHandler.GetSystemInfo).
		GET("/ping", systemHandler.Ping)

	r.Register(stockGroup).Register(systemGroup)
	r.Setup()

	// HTTP server
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// healthHandler reports service and database health
func healthHandler(db *persistence.Database, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			log.Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "down",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "up",
		})
	}
}
