package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/meghkala/api/internal"
	"github.com/meghkala/api/internal/auth"
	"github.com/meghkala/api/internal/bootstrap"
	"github.com/meghkala/api/internal/email"
	"github.com/meghkala/api/internal/events"
	apihandler "github.com/meghkala/api/internal/handler/api"
	"github.com/meghkala/api/internal/jobs"
	"github.com/meghkala/api/internal/middleware"
	"github.com/meghkala/api/internal/postgres"
	"github.com/meghkala/api/internal/router"
	"github.com/meghkala/api/internal/routes"
	"github.com/meghkala/api/internal/service"
	"github.com/meghkala/api/internal/storage"
	"github.com/meghkala/api/internal/telemetry"
)

const otpTTL = 10 * time.Minute

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize stores
	productStore := postgres.NewProductStore(pool)
	orderStore := postgres.NewOrderStore(pool)
	couponStore := postgres.NewCouponStore(pool)
	discountStore := postgres.NewDiscountStore(pool)
	shippingStore := postgres.NewShippingStore(pool)
	categoryStore := postgres.NewCategoryStore(pool)
	reviewStore := postgres.NewReviewStore(pool)
	userStore := postgres.NewUserStore(pool)
	sessionStore := postgres.NewSessionStore(pool)
	alertStore := postgres.NewStockAlertStore(pool)

	// Initialize Redis-backed OTP store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	otpStore := auth.NewOTPStore(redisClient, otpTTL)

	// Initialize event publisher. No NATS URL means events are dropped.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		conn, err := nats.Connect(cfg.NATS.URL, nats.Name("meghkala-api"))
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer conn.Close()
		publisher = events.NewNATSPublisher(conn, logger)
		logger.Info("NATS event publisher initialized", "url", cfg.NATS.URL)
	}

	// Initialize file storage
	files, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "provider", cfg.Storage.Provider)

	// Initialize email
	sender := email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.Email.Host,
		Port:     int(cfg.Email.Port),
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	}, logger)
	mailer := email.NewService(sender, logger)

	// Initialize metrics
	metrics := middleware.NewMetrics("meghkala")
	business := telemetry.InitBusinessMetrics("meghkala")

	// Initialize services
	orderService := service.NewOrderService(service.OrderServiceDeps{
		Orders:   orderStore,
		Products: productStore,
		Coupons:  couponStore,
		Shipping: shippingStore,
		Users:    userStore,
		Files:    files,
		Events:   publisher,
		Mail:     mailer,
		Metrics:  business,
		Logger:   logger,
	})
	accountService := service.NewAccountService(userStore, sessionStore, otpStore, mailer, business, logger)
	catalogService := service.NewCatalogService(productStore, discountStore)
	categoryService := service.NewCategoryService(categoryStore, productStore)
	reviewService := service.NewReviewService(reviewStore, productStore, orderStore)
	couponService := service.NewCouponService(couponStore)
	discountService := service.NewDiscountService(discountStore)
	shippingService := service.NewShippingService(shippingStore)
	notificationService := service.NewNotificationService(alertStore, productStore, mailer, business, logger)

	// Seed the initial admin user when configured
	if err := bootstrap.EnsureAdmin(ctx, userStore, cfg.Admin, logger); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	// Purge expired sessions in the background
	go jobs.NewSessionCleaner(sessionStore, jobs.DefaultCleanupInterval, logger).Run(ctx)

	// Configure rate limiting
	defaultRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())

	// Create router and register routes
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		defaultRateLimiter.Middleware,
		router.CORS(cfg.CORSOrigins),
		middleware.WithUser(accountService),
		middleware.WithRequestLogger(logger),
		router.Logger(logger),
	)

	deps := routes.Deps{
		Auth:           apihandler.NewAuthHandler(accountService, logger),
		Products:       apihandler.NewProductHandler(catalogService, logger),
		Categories:     apihandler.NewCategoryHandler(categoryService, logger),
		Reviews:        apihandler.NewReviewHandler(reviewService, logger),
		Orders:         apihandler.NewOrderHandler(orderService, logger),
		Coupons:        apihandler.NewCouponHandler(couponService, logger),
		Discounts:      apihandler.NewDiscountHandler(discountService, logger),
		Shipping:       apihandler.NewShippingHandler(shippingService, logger),
		StockAlerts:    apihandler.NewStockAlertHandler(notificationService, logger),
		MetricsHandler: metrics.Handler(),
	}
	if cfg.Storage.Provider == "local" {
		deps.UploadsDir = cfg.Storage.LocalPath
	}
	routes.Register(r, deps)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Starting server", "address", addr, "env", cfg.Env)

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
