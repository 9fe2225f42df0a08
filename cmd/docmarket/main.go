package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/arefin-anik/docmarket/internal/assignment"
	"github.com/arefin-anik/docmarket/internal/booking"
	"github.com/arefin-anik/docmarket/internal/entitlement"
	"github.com/arefin-anik/docmarket/internal/handlers"
	"github.com/arefin-anik/docmarket/internal/outbox"
	"github.com/arefin-anik/docmarket/internal/storage"
	"github.com/arefin-anik/docmarket/libs/config"
	"github.com/arefin-anik/docmarket/libs/db"
	"github.com/arefin-anik/docmarket/libs/httpx"
	"github.com/arefin-anik/docmarket/libs/kafkax"
	otelx "github.com/arefin-anik/docmarket/libs/otel"
	"github.com/arefin-anik/docmarket/libs/runtime"
)

const serviceName = "docmarket"

func main() {
	logger := runtime.NewLogger(serviceName)
	ctx, stop := runtime.SignalContext()
	defer stop()

	shutdownTracing, err := otelx.Setup(ctx, otelx.ConfigFromEnv(serviceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	databaseURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}
	port, err := config.Port("PORT", "8080")
	if err != nil {
		logger.Error("config error", "err", err)
		os.Exit(1)
	}

	pool, err := db.Open(ctx, databaseURL)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Repositories.
	outboxRepo := outbox.NewRepository(pool)
	appointments := storage.NewAppointmentRepo(pool, outboxRepo)
	rules := storage.NewRuleRepo(pool)
	entitlements := storage.NewEntitlementRepo(pool, outboxRepo)
	assignments := storage.NewAssignmentRepo(pool)
	users := storage.NewUserRepo(pool)

	// Domain services.
	engine := entitlement.NewEngine(entitlements, logger, entitlement.Config{
		GraceWindow: config.Duration("SUBSCRIPTION_GRACE_WINDOW", 7*24*time.Hour),
	})
	resolver := assignment.NewResolver(assignments)
	bookingSvc := booking.NewService(rules, appointments, engine, logger, booking.Config{
		SlotDuration: config.Duration("SLOT_DURATION", time.Hour),
		Horizon:      config.Duration("BOOKING_HORIZON", 30*24*time.Hour),
	})

	// Background workers.
	sweeper := entitlement.NewSweepWorker(engine, logger, config.Duration("SWEEP_INTERVAL", time.Minute))
	go sweeper.Run(ctx)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go publisher.Run(ctx)

	// Rate limiting: Redis-backed when configured, in-process otherwise.
	var rateLimit httpx.Middleware
	readyChecks := []runtime.ReadyCheck{{Name: "postgres", Check: db.ReadyCheck(pool)}}
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		limiter := httpx.NewRedisRateLimiter(rdb,
			config.Int("RATE_LIMIT", 120),
			config.Duration("RATE_LIMIT_WINDOW", time.Minute),
			serviceName,
		)
		rateLimit = limiter.Middleware(logger, true)
		readyChecks = append(readyChecks, runtime.ReadyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	} else {
		rateLimit = httpx.NewRateLimiter(config.Int("RATE_LIMIT", 120), config.Duration("RATE_LIMIT_WINDOW", time.Minute)).Middleware()
	}
	if kafkaBrokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}

	// Handlers.
	authmw := &handlers.Auth{Secret: jwtSecret, Resolver: resolver, Logger: logger}
	authHandler := &handlers.AuthHandler{
		Users:        users,
		Entitlements: entitlements,
		Logger:       logger,
		Secret:       jwtSecret,
		TokenTTL:     config.Duration("TOKEN_TTL", 24*time.Hour),
	}
	bookingHandler := &handlers.BookingHandler{Service: bookingSvc, Directory: entitlements, Logger: logger}
	rulesHandler := &handlers.RulesHandler{Repo: rules, Logger: logger}
	adminHandler := &handlers.AdminHandler{Engine: engine, Logger: logger}
	assignmentHandler := &handlers.AssignmentHandler{Resolver: resolver, Logger: logger}
	webhookHandler := &handlers.StripeWebhookHandler{
		Payments:      entitlements,
		Logger:        logger,
		SigningSecret: config.String("STRIPE_WEBHOOK_SECRET", ""),
	}

	mux := runtime.NewBaseMuxWithReady(readyChecks...)

	mux.HandleFunc("/api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("/api/v1/auth/login", authHandler.Login)

	mux.HandleFunc("/api/v1/public/doctors", bookingHandler.Doctors)
	mux.HandleFunc("/api/v1/public/slots", bookingHandler.Slots)
	mux.HandleFunc("/api/v1/public/book", authmw.RequireAuth(bookingHandler.Book))

	mux.HandleFunc("/api/v1/appointments/cancel", authmw.RequireAuth(bookingHandler.Cancel))
	mux.HandleFunc("/api/v1/appointments/complete", authmw.RequireRole(bookingHandler.Complete, "doctor", "assistant", "admin"))
	mux.HandleFunc("/api/v1/appointments/no-show", authmw.RequireRole(bookingHandler.NoShow, "doctor", "assistant", "admin"))

	mux.HandleFunc("/api/v1/doctor/schedule", authmw.RequireRole(bookingHandler.Schedule, "doctor", "assistant", "admin"))
	mux.HandleFunc("/api/v1/doctor/rules", authmw.RequireRole(rulesHandler.Rules, "doctor", "assistant", "admin"))
	mux.HandleFunc("/api/v1/doctor/rules/toggle", authmw.RequireRole(rulesHandler.SetActive, "doctor", "assistant", "admin"))
	mux.HandleFunc("/api/v1/doctor/rules/delete", authmw.RequireRole(rulesHandler.Delete, "doctor", "assistant", "admin"))

	mux.HandleFunc("/api/v1/admin/verification", authmw.RequireRole(adminHandler.Verification, "admin"))
	mux.HandleFunc("/api/v1/admin/subscription/payment", authmw.RequireRole(adminHandler.RecordPayment, "admin"))
	mux.HandleFunc("/api/v1/admin/subscription/extend", authmw.RequireRole(adminHandler.Extend, "admin"))
	mux.HandleFunc("/api/v1/admin/subscription/override", authmw.RequireRole(adminHandler.Override, "admin"))

	mux.HandleFunc("/api/v1/assistant/assignment", authmw.RequireRole(assignmentHandler.Assignment, "assistant"))

	mux.HandleFunc("/api/v1/billing/stripe/webhook", webhookHandler.Handle)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: splitCSV(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         10 * time.Minute,
		}),
		rateLimit,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
	)
	handler = otelhttp.NewHandler(handler, serviceName)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go startGRPC(ctx, logger, engine)

	go func() {
		logger.Info("http server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}
}

func splitCSV(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
