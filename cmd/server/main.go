package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_shop/internal/cache"
	appcfg "github.com/Skotchmaster/coffee_shop/internal/config"
	"github.com/Skotchmaster/coffee_shop/internal/httpserver"
	"github.com/Skotchmaster/coffee_shop/internal/metrics"
	"github.com/Skotchmaster/coffee_shop/internal/mykafka"
	"github.com/Skotchmaster/coffee_shop/internal/payment"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
	"github.com/Skotchmaster/coffee_shop/internal/search"
	"github.com/Skotchmaster/coffee_shop/internal/service"
	pkgdb "github.com/Skotchmaster/coffee_shop/pkg/db"
	"github.com/Skotchmaster/coffee_shop/pkg/logging"
	"github.com/Skotchmaster/coffee_shop/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/coffee_shop/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := appcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	db, err := openDB(cfg)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	gormRepo := &repo.GormRepo{DB: db}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var events service.EventPublisher
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		events = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	catalog := &service.CatalogService{Repo: gormRepo, Events: events}
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword, cfg.ESProductIndex)
		if err != nil {
			log.Fatalf("elasticsearch client: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := es.Ping(ctx); err != nil {
			logger.Warn("elasticsearch_unavailable", "reason", "search falls back to the database", "error", err)
		}
		cancel()
		catalog.Search = es
	}

	var redisCache *cache.Cache
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err = cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		cancel()
		if err != nil {
			logger.Warn("cache_disabled", "reason", "redis unavailable", "error", err)
		} else {
			catalog.Cache = redisCache
		}
	}

	payments := &service.PaymentService{
		Repo:          gormRepo,
		KeySecret:     cfg.PaymentKeySecret,
		WebhookSecret: cfg.PaymentWebhookSecret,
		Currency:      cfg.PaymentCurrency,
		Timeout:       cfg.PaymentTimeout,
		Events:        events,
		Metrics:       m,
	}
	if cfg.PaymentsEnabled() {
		payments.Provider = payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentKeyID, cfg.PaymentKeySecret, cfg.PaymentTimeout)
	} else {
		logger.Warn("online_payments_disabled", "reason", "PAYMENT_KEY_ID is empty")
	}

	orders := &service.OrderService{Repo: gormRepo, Payments: payments, Events: events, Metrics: m}
	subscriptions := &service.SubscriptionService{Repo: gormRepo, Payments: payments, Events: events, Metrics: m}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	deps := &httpserver.Deps{
		Auth: &httpserver.AuthHTTP{
			Svc:          &service.AuthService{Repo: gormRepo, JWTSecret: cfg.JWTSecret, TokenTTL: cfg.JWTTTL, Events: events},
			SecureCookie: cfg.CookieSecure,
		},
		Account:       &httpserver.AccountHTTP{Svc: &service.AccountService{Repo: gormRepo}},
		Catalog:       &httpserver.CatalogHTTP{Svc: catalog},
		Order:         &httpserver.OrderHTTP{Svc: orders, Payments: payments},
		Subscription:  &httpserver.SubscriptionHTTP{Svc: subscriptions, Payments: payments},
		Payment:       &httpserver.PaymentHTTP{Svc: payments},
		Cart:          &httpserver.CartHTTP{Svc: &service.CartService{Repo: gormRepo, Orders: orders}},
		JWTSecret:     cfg.JWTSecret,
		DB:            db,
		Gatherer:      reg,
		AuthRateLimit: cfg.AuthRateLimit,
	}
	if cfg.CSRFEnabled {
		csrfCfg := csrf.DefaultConfig()
		csrfCfg.Secure = cfg.CookieSecure
		deps.CSRF = &csrfCfg
	}
	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_error", "error", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if redisCache != nil {
		_ = redisCache.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("server_stopped")
}

func openDB(cfg appcfg.ServiceConfig) (*gorm.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cfg.DBDriver == "sqlite" {
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "file:coffee_shop.db?_pragma=foreign_keys(1)"
		}
		return pkgdb.OpenSQLite(ctx, dsn)
	}
	return pkgdb.Open(ctx, cfg.DatabaseURL)
}
