package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hoclconnect/leads/internal/config"
	"github.com/hoclconnect/leads/internal/handler"
	"github.com/hoclconnect/leads/internal/infra/idempotency"
	"github.com/hoclconnect/leads/internal/infra/mail"
	"github.com/hoclconnect/leads/internal/infra/observability"
	"github.com/hoclconnect/leads/internal/infra/queue"
	"github.com/hoclconnect/leads/internal/infra/resilience"
	"github.com/hoclconnect/leads/internal/infra/sqlstore"
	"github.com/hoclconnect/leads/internal/port"
	"github.com/hoclconnect/leads/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	warnings, err := cfg.Validate()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_postgres", cfg.UsePostgres()),
		zap.Int("lead_rate_limit", cfg.LeadRateLimit),
		zap.Strings("trusted_proxies", cfg.TrustedProxies),
		zap.Duration("lead_rate_window", cfg.LeadRateWindow),
		zap.Duration("idempotency_ttl", cfg.IdempotencyTTL),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("amqp", cfg.AMQPURL != ""),
		zap.Bool("mail", cfg.MailEnabled()),
	)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "hocl-leads-api")
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	openCfg := sqlstore.OpenConfig{
		Dialect:      sqlstore.DialectSQLite,
		DSN:          cfg.SQLitePath,
		MaxOpenConns: cfg.DBMaxOpenConns,
		Retry: resilience.Config{
			MaxRetries:     cfg.DBConnectRetries,
			InitialBackoff: cfg.DBInitialBackoff,
		},
	}
	if cfg.UsePostgres() {
		openCfg.Dialect = sqlstore.DialectPostgres
		openCfg.DSN = cfg.DatabaseURL
	}
	store, err := sqlstore.Open(ctx, openCfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	guarded := sqlstore.NewGuarded(store, cfg.StoreTimeout, logger)

	// --- Idempotency ---
	var idem port.IdempotencyStore
	if cfg.RedisURL != "" {
		r, err := idempotency.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer r.Close()
		idem = r
		logger.Info("idempotency keys stored in redis")
	} else {
		m := idempotency.NewMemory(cfg.IdempotencyTTL)
		defer m.Close()
		idem = m
		logger.Info("idempotency keys stored in memory")
	}

	// --- Notifiers ---
	var notifiers []port.LeadNotifier
	if cfg.AMQPURL != "" {
		pub, err := queue.Dial(cfg.AMQPURL)
		if err != nil {
			return err
		}
		defer pub.Close()
		notifiers = append(notifiers, pub)
		logger.Info("lead events published to rabbitmq")
	}
	if cfg.MailEnabled() {
		notifiers = append(notifiers, mail.NewNotifier(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass,
			cfg.LeadNotifyFrom, cfg.LeadNotifyTo,
		))
		logger.Info("ops mail enabled", zap.Strings("to", cfg.LeadNotifyTo))
	}

	// --- Services ---
	leadSvc := service.NewLeadService(guarded, metrics, logger,
		service.WithIdempotency(idem, cfg.IdempotencyTTL),
		service.WithNotifiers(notifiers...),
		service.WithNotifyTimeout(cfg.NotifyTimeout),
	)
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.AdminUsername, cfg.AdminPasswordHash, logger)

	// --- Router ---
	routerCfg := handler.RouterConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		LeadRateLimit:  cfg.LeadRateLimit,
		LeadRateWindow: cfg.LeadRateWindow,
	}
	if cfg.CORSOriginPattern != "" {
		routerCfg.OriginPattern = regexp.MustCompile(cfg.CORSOriginPattern)
	}
	routerCfg.TrustedProxies, err = handler.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	router := handler.NewRouter(leadSvc, authSvc, routerCfg, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		// Let in-flight notifications finish before the store and publishers close.
		return leadSvc.Wait(shutdownCtx)
	})

	return g.Wait()
}
