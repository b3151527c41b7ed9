package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-booking/internal/analytics"
	analytics_api "ms-booking/internal/analytics/api"
	"ms-booking/internal/auth"
	"ms-booking/internal/campaign"
	"ms-booking/internal/campaign/campaign_api"
	"ms-booking/internal/config"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/gateway"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/middleware"
	"ms-booking/internal/order"
	kafkapub "ms-booking/internal/order/kafka"
	"ms-booking/internal/order/order_api"
	rediswrap "ms-booking/internal/order/redis"
	"ms-booking/internal/sse"
	"ms-booking/internal/storage"
	"ms-booking/internal/tickets"
	"ms-booking/internal/tickets/ticket_api"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func connectDatabase(cfg config.DatabaseConfig, logger *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.URL)
		if err == nil {
			err = sqldb.Ping()
		}
		if err == nil {
			break
		}
		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	logger.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	logger.Info("REDIS", fmt.Sprintf("Redis connection successful to %s (DB: %d)", cfg.Addr, cfg.DB))
	return client
}

func newVerifier(ctx context.Context, cfg config.AuthConfig, logger *logger.Logger) auth.Verifier {
	if cfg.OIDCIssuer != "" {
		verifier, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			logger.Fatal("AUTH", fmt.Sprintf("Failed to initialise OIDC verifier: %v", err))
		}
		logger.Info("AUTH", fmt.Sprintf("Verifying bearer tokens against issuer %s", cfg.OIDCIssuer))
		return verifier
	}
	logger.Info("AUTH", "Verifying bearer tokens with the shared HS256 secret")
	return auth.NewHS256Verifier(cfg.JWTSecret, cfg.OIDCClientID)
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logger.NewLogger(logger.Options{
		Service:  "booking-service",
		Dir:      cfg.Log.Dir,
		MinLevel: logger.ParseLevel(cfg.Log.Level),
	})
	defer logger.Close()

	logger.Info("STARTUP", "Starting booking service initialization")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bunDB := connectDatabase(cfg.Database, logger)
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{AutoMigrate: true, SeedData: cfg.Database.SeedData}, logger)
		if err := runner.RunMigrations(); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
		if err := runner.Close(); err != nil {
			logger.Warn("DATABASE", err.Error())
		}
	}

	store := storage.NewBunStore(bunDB)

	var events order.EventPublisher = kafkapub.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, cfg.Kafka.Topics.All()); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
		events = kafkapub.NewPublisher(producer, cfg.Kafka.Topics, logger)
		logger.Info("KAFKA", fmt.Sprintf("Publishing order events to %v", cfg.Kafka.Brokers))
	} else {
		logger.Info("KAFKA", "Kafka disabled, order events are not published")
	}

	emitter := sse.NewCheckoutEventEmitter()
	opts := []order.Option{order.WithCheckoutNotifier(emitter)}
	if cfg.Midtrans.VerifySignature {
		opts = append(opts, order.WithSignatureVerification(cfg.Midtrans.ServerKey))
	}

	var keys *rediswrap.Redis
	if cfg.Redis.Enabled {
		client := connectRedis(ctx, cfg.Redis, logger)
		defer client.Close()
		keys = rediswrap.NewRedis(client, logger)
		opts = append(opts, order.WithIdempotency(keys, cfg.Orders.IdempotencyTTL))
		if cfg.Orders.PendingTTL > 0 {
			opts = append(opts, order.WithExpiry(keys, cfg.Orders.PendingTTL))
		}
	}

	midtrans := gateway.NewMidtrans(cfg.Midtrans.ServerKey, cfg.Midtrans.IsProduction, logger)
	orderService := order.NewOrderService(store, midtrans, events, logger, opts...)
	campaignService := campaign.NewCampaignService(store, logger)
	ticketService := tickets.NewTicketService(orderService, store)
	analyticsService := analytics.NewService(bunDB)

	orderHandler := order_api.NewHandler(orderService, logger)
	sseHandler := order_api.NewSSEHandler(logger, emitter, campaignService)
	campaignHandler := campaign_api.NewHandler(campaignService, logger)
	ticketHandler := ticket_api.NewHandler(ticketService, orderService, logger)
	analyticsHandler := analytics_api.NewHandler(analyticsService, campaignService, logger)

	verifier := newVerifier(ctx, cfg.Auth, logger)

	logger.Info("STARTUP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderCorrelationID, order_api.HeaderIdempotencyKey},
		ExposedHeaders:   []string{middleware.HeaderCorrelationID},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Correlation(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := store.HealthCheck(r.Context()); err != nil {
			utils.WriteError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes ---
		campaignHandler.RegisterPublicRoutes(r)
		orderHandler.RegisterWebhookRoutes(r)
		logger.Info("ROUTER", "Public campaign and payment notification routes registered")

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(verifier, logger))

			orderHandler.RegisterRoutes(r)
			ticketHandler.RegisterBuyerRoutes(r)
			logger.Info("ROUTER", "Buyer routes registered under /api")

			r.Route("/partner", func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RolePartner))
				campaignHandler.RegisterPartnerRoutes(r)
				analyticsHandler.RegisterRoutes(r)
				sseHandler.RegisterRoutes(r)
				ticketHandler.RegisterPartnerRoutes(r)
			})
			logger.Info("ROUTER", "Partner routes registered under /api/partner")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP", fmt.Sprintf("Booking service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if keys != nil && cfg.Orders.PendingTTL > 0 {
		listener := rediswrap.NewListener(keys, orderService)
		g.Go(func() error {
			return listener.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("STARTUP", "Shutdown signal received, initiating graceful shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("STARTUP", fmt.Sprintf("Service stopped with error: %v", err))
		return
	}
	logger.Info("STARTUP", "Booking service shutdown complete")
}
