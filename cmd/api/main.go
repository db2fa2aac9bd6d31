package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/georgemunganga/cardshop-backend/internal/config"
	"github.com/georgemunganga/cardshop-backend/internal/modules/audit"
	"github.com/georgemunganga/cardshop-backend/internal/modules/auth"
	"github.com/georgemunganga/cardshop-backend/internal/modules/banner"
	"github.com/georgemunganga/cardshop-backend/internal/modules/bot"
	"github.com/georgemunganga/cardshop-backend/internal/modules/catalog"
	"github.com/georgemunganga/cardshop-backend/internal/modules/inventory"
	"github.com/georgemunganga/cardshop-backend/internal/modules/notification"
	"github.com/georgemunganga/cardshop-backend/internal/modules/order"
	"github.com/georgemunganga/cardshop-backend/internal/platform/database"
	"github.com/georgemunganga/cardshop-backend/internal/platform/discovery"
	"github.com/georgemunganga/cardshop-backend/internal/platform/ratelimit"
	"github.com/georgemunganga/cardshop-backend/internal/platform/telemetry"
)

const (
	orderLimitWindow = time.Hour
	apiLimitWindow   = 15 * time.Minute
)

// stores holds the repositories selected by STORAGE_DRIVER.
type stores struct {
	catalog   catalog.Repository
	inventory inventory.Repository
	orders    order.Repository
	db        *sqlx.DB
}

func main() {
	logger := log.New(os.Stdout, "", log.Ldate|log.Ltime|log.Lshortfile)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	tracing, err := telemetry.Setup(cfg.ServiceID, cfg.TracesExporter, os.Stdout)
	if err != nil {
		logger.Fatalf("telemetry: %v", err)
	}

	st, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	if st.db != nil {
		defer st.db.Close()
	}

	// JSON-only stores
	auditRepo, err := audit.NewJSONRepository(cfg.DataDir)
	if err != nil {
		logger.Fatal(err)
	}
	bannerRepo, err := banner.NewJSONRepository(cfg.DataDir)
	if err != nil {
		logger.Fatal(err)
	}

	// ── Catalog & Inventory ─────────────────────────────────
	catalogService := catalog.NewService(st.catalog)
	if cfg.CatalogSeed != "" {
		seedCatalog(catalogService, cfg.CatalogSeed, logger)
	}
	inventoryService := inventory.NewService(st.inventory, catalogService)
	auditService := audit.NewService(auditRepo)
	bannerService := banner.NewService(bannerRepo)
	authService := auth.NewService(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.JWTSecret)
	if !cfg.AdminEnabled() {
		logger.Println("ADMIN_PASSWORD_HASH not set, operator API login disabled")
	}

	// ── Notifications ───────────────────────────────────────
	var botAPI *tgbotapi.BotAPI
	var telegram *notification.TelegramNotifier
	if cfg.BotToken != "" {
		botAPI, err = tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			logger.Fatalf("telegram bot: %v", err)
		}
		telegram = notification.NewTelegramNotifier(botAPI)
		logger.Printf("Authorized on Telegram as @%s", botAPI.Self.UserName)
	}

	var mailer notification.Mailer = notification.NewLogMailer(logger)
	if cfg.SMTPHost != "" {
		mailer = notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.EmailFrom,
		})
	} else {
		logger.Println("SMTP_HOST not set, buyer emails are written to the log")
	}

	var events notification.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		events = notification.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer events.Close()
	}

	dispatcher := notification.NewDispatcher(telegram, mailer, events, cfg.AdminChatID, logger)

	// ── Orders ──────────────────────────────────────────────
	orderService := order.NewService(st.orders, st.inventory, catalogService, dispatcher, logger, order.Options{
		MaxLineQuantity: cfg.MaxLineQuantity,
		NotifyTimeout:   cfg.NotifyTimeout,
	})

	// ── Router ──────────────────────────────────────────────
	apiLimit, orderLimit := rateLimiters(cfg, logger)
	opts := routerOptions{
		authService: authService,
		apiLimit:    apiLimit,
		orderLimit:  orderLimit,
		corsOrigins: cfg.CORSAllowedOrigins,
	}
	if st.db != nil {
		opts.health = st.db.PingContext
	}
	router := newRouter(handlers{
		auth:      auth.NewHandler(authService),
		catalog:   catalog.NewHandler(catalogService, auditService, logger),
		inventory: inventory.NewHandler(inventoryService, auditService, logger),
		order:     order.NewHandler(orderService, logger),
		banner:    banner.NewHandler(bannerService, auditService, logger),
		audit:     audit.NewHandler(auditService),
	}, opts)

	// ── Bot ─────────────────────────────────────────────────
	botCtx, stopBot := context.WithCancel(context.Background())
	botDone := make(chan struct{})
	if botAPI != nil {
		b := bot.New(botAPI, orderService, catalogService, inventoryService, auditService, cfg.AdminChatID, logger)
		go func() {
			defer close(botDone)
			b.Run(botCtx)
		}()
	} else {
		close(botDone)
		logger.Println("BOT_TOKEN not set, Telegram bot disabled")
	}

	// ── Service discovery ───────────────────────────────────
	var consul *discovery.ConsulClient
	if cfg.ConsulAddr != "" {
		consul, err = discovery.NewConsulClient(cfg.ConsulAddr)
		if err != nil {
			logger.Printf("consul: %v", err)
		} else if err := consul.RegisterService(cfg.ServiceID, "cardshop-api", cfg.ServerPort); err != nil {
			logger.Printf("consul register: %v", err)
			consul = nil
		} else {
			logger.Printf("Registered %s with consul at %s", cfg.ServiceID, cfg.ConsulAddr)
		}
	}

	// ── Start Server ────────────────────────────────────────
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10*time.Second + cfg.NotifyTimeout,
		ErrorLog:     logger,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Printf("Card shop API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		logger.Printf("Server error: %v", err)
	case sig := <-quit:
		logger.Printf("Received signal %s. Shutting down server...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if consul != nil {
		if err := consul.DeregisterService(cfg.ServiceID); err != nil {
			logger.Printf("consul deregister: %v", err)
		}
	}

	stopBot()
	select {
	case <-botDone:
	case <-time.After(10 * time.Second):
		logger.Println("Telegram bot did not stop in time.")
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("Graceful server shutdown failed: %v", err)
	} else {
		logger.Println("Server gracefully stopped.")
	}

	if err := tracing.Shutdown(ctx); err != nil {
		logger.Printf("telemetry shutdown: %v", err)
	}
	logger.Println("Application shut down complete.")
}

func openStores(cfg *config.Config, logger *log.Logger) (*stores, error) {
	if cfg.StorageDriver == config.DriverPostgres {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.RunMigrations(db, logger); err != nil {
			db.Close()
			return nil, err
		}
		logger.Println("Successfully connected to the database!")
		return &stores{
			catalog:   catalog.NewPostgresRepository(db),
			inventory: inventory.NewPostgresRepository(db),
			orders:    order.NewPostgresRepository(db),
			db:        db,
		}, nil
	}

	catalogRepo, err := catalog.NewJSONRepository(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	inventoryRepo, err := inventory.NewJSONRepository(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	orderRepo, err := order.NewJSONRepository(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	logger.Printf("Using JSON storage in %s", cfg.DataDir)
	return &stores{catalog: catalogRepo, inventory: inventoryRepo, orders: orderRepo}, nil
}

func seedCatalog(service catalog.Service, path string, logger *log.Logger) {
	products, err := catalog.LoadSeed(path)
	if err != nil {
		logger.Printf("catalog seed: %v", err)
		return
	}
	n, err := service.Seed(context.Background(), products)
	if err != nil {
		logger.Printf("catalog seed: %v", err)
		return
	}
	if n > 0 {
		logger.Printf("Seeded catalog with %d products from %s", n, path)
	}
}

// rateLimiters shares counters through Redis when REDIS_ADDR is set.
func rateLimiters(cfg *config.Config, logger *log.Logger) (apiLimit, orderLimit func(http.Handler) http.Handler) {
	var apiLimiter, orderLimiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Printf("redis %s unreachable, using in-process rate limits: %v", cfg.RedisAddr, err)
			client.Close()
		} else {
			apiLimiter = ratelimit.NewRedisLimiter(client, cfg.APIRateLimit, apiLimitWindow)
			orderLimiter = ratelimit.NewRedisLimiter(client, cfg.OrderRateLimit, orderLimitWindow)
		}
	}
	if apiLimiter == nil {
		apiLimiter = ratelimit.NewMemoryLimiter(cfg.APIRateLimit, apiLimitWindow)
		orderLimiter = ratelimit.NewMemoryLimiter(cfg.OrderRateLimit, orderLimitWindow)
	}
	return ratelimit.Middleware(apiLimiter, "api", logger), ratelimit.Middleware(orderLimiter, "order", logger)
}
