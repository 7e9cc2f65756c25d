package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-pos-checkout/internal/ai"
	"go-pos-checkout/internal/auth"
	"go-pos-checkout/internal/config"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/events"
	"go-pos-checkout/internal/handlers"
	"go-pos-checkout/internal/logger"
	"go-pos-checkout/internal/metrics"
	"go-pos-checkout/internal/middleware"
	"go-pos-checkout/internal/models"
	"go-pos-checkout/internal/tenant"
	"go-pos-checkout/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	if _, err := logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile}); err != nil {
		log.Fatal("Failed to set up logging: ", err)
	}
	slog.Info("Starting POS checkout server", "instance_id", utils.InstanceID())

	auth.Init(cfg.JWTSecret, cfg.TokenTTL)

	db, err := database.Connect(database.Options{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DBDSN,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		LogSQL:       strings.EqualFold(cfg.LogLevel, "debug"),
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Tenant lookups: shared through Redis when configured ---
	var tenantCache tenant.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("Redis unreachable, tenant lookups go to the database", "addr", cfg.RedisAddr, "error", err)
		}
		tenantCache = tenant.NewRedisCache(rdb, cfg.TenantCacheTTL)
	}
	resolver := tenant.NewResolver(db, tenantCache)

	serverMetrics := metrics.New(nil)

	// --- Outbox relay: only when a broker is configured ---
	relayEnabled := len(cfg.KafkaBrokers) > 0
	if relayEnabled {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers)
		defer publisher.Close()
		relay := events.NewRelay(db, publisher, cfg.OutboxInterval).OnSent(serverMetrics.EventsSent)
		go relay.Run(ctx)
		slog.Info("📨 Outbox relay started", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		slog.Warn("KAFKA_BROKERS not set; order events stay in the outbox")
	}

	var assistant *ai.Agent
	if cfg.GeminiAPIKey != "" {
		assistant = ai.NewAgent(cfg.GeminiAPIKey)
	}

	handlers.Configure(handlers.Settings{
		BaseURL:         cfg.BaseURL,
		UploadDir:       "./uploads",
		CheckoutTimeout: cfg.CheckoutTimeout,
		EventTopic:      cfg.KafkaTopic,
		Metrics:         serverMetrics,
		Assistant:       assistant,
		RelayEnabled:    relayEnabled,
	})

	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.RequestLogger(), serverMetrics.Middleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", handlers.IdempotencyHeader, logger.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.GET("/metrics", gin.WrapH(serverMetrics.Handler()))
	r.POST("/login", handlers.Login)
	r.Static("/uploads", "./uploads")
	r.GET("/api/system/status", handlers.GetSystemStatus)

	// --- FEATURE FLAG: Admin Registration ---
	// Only opens if we explicitly allow it in .env
	if cfg.AllowRegistration {
		r.POST("/register", handlers.Register)
		slog.Warn("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		slog.Info("🔒 Registration route is safely DISABLED.")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(resolver))
	{
		// STAFF & ADMIN
		api.POST("/checkout", handlers.Checkout)
		api.GET("/orders", handlers.ListOrders)
		api.GET("/orders/:id", handlers.GetOrder)
		api.GET("/products", handlers.GetProducts)
		api.GET("/products/scan/:barcode", handlers.ScanProduct)
		api.GET("/customers", handlers.ListCustomers)
		api.GET("/customers/:id/orders", handlers.CustomerOrders)
		api.POST("/customers/payments", handlers.RecordPayment)

		// ADMIN ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/ask", handlers.AskAI)
			admin.POST("/upload", handlers.UploadImage)
			admin.POST("/products", handlers.AddProduct)
			admin.PUT("/products/:id", handlers.UpdateProduct)
			admin.DELETE("/products/:id", handlers.DeleteProduct)
			admin.POST("/workers", handlers.CreateWorker)
			admin.GET("/customers/:id/statement", handlers.CustomerStatement)
			admin.GET("/reports", handlers.GetSalesReport)
			admin.GET("/reports/valuation", handlers.GetStockValuation)
			admin.GET("/reports/low-stock", handlers.GetLowStock)
		}
	}

	// --- DEPLOYMENT: Serve React Frontend ---
	r.Static("/assets", "./web/assets")
	r.StaticFile("/vite.svg", "./web/vite.svg")

	// SPA Catch-All: unknown API paths stay 404, everything else is index.html.
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "kind": "not_found"})
			return
		}
		c.File("./web/index.html")
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("🚀 Server starting on " + cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.CheckoutTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	slog.Info("Server exited")
}
