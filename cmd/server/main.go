// Command server runs the identity and credit-verification platform. main
// wires storage, services and the HTTP router; business logic lives in the
// internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vericred/internal/admin"
	adminhandler "vericred/internal/admin/handler"
	"vericred/internal/auth"
	authhandler "vericred/internal/auth/handler"
	authstore "vericred/internal/auth/store"
	"vericred/internal/entity"
	entityhandler "vericred/internal/entity/handler"
	entitystore "vericred/internal/entity/store"
	"vericred/internal/gateway"
	gatewayhandler "vericred/internal/gateway/handler"
	gatewaymetrics "vericred/internal/gateway/metrics"
	gatewaystore "vericred/internal/gateway/store"
	"vericred/internal/otp"
	otphandler "vericred/internal/otp/handler"
	otpmetrics "vericred/internal/otp/metrics"
	"vericred/internal/otp/notify"
	otpstore "vericred/internal/otp/store"
	"vericred/internal/platform/config"
	"vericred/internal/platform/httpserver"
	"vericred/internal/platform/logger"
	"vericred/internal/platform/metrics"
	"vericred/internal/platform/postgres"
	redisplatform "vericred/internal/platform/redis"
	"vericred/internal/registry"
	registryhandler "vericred/internal/registry/handler"
	registrymetrics "vericred/internal/registry/metrics"
	registrystore "vericred/internal/registry/store"
	"vericred/internal/verification"
	verificationhandler "vericred/internal/verification/handler"
	verificationmetrics "vericred/internal/verification/metrics"
	verificationstore "vericred/internal/verification/store"
	dErrors "vericred/pkg/domain-errors"
	"vericred/pkg/platform/audit"
	auditpublisher "vericred/pkg/platform/audit/publisher"
	auditmemory "vericred/pkg/platform/audit/store/memory"
	auditpostgres "vericred/pkg/platform/audit/store/postgres"
	authmw "vericred/pkg/platform/middleware/auth"
	"vericred/pkg/platform/middleware/metadata"
	"vericred/pkg/platform/tx"
)

const (
	tokenTTL        = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. Postgres when configured, memory otherwise; the OTP store
	// additionally prefers Redis for its TTL handling.
	var (
		db     *sql.DB
		atomic tx.Atomic = tx.Passthrough
	)
	if cfg.PostgresURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		atomic = tx.Runner(db)
		log.Info("postgres storage ready")
	}

	var challengeStore otp.Store
	switch {
	case cfg.RedisURL != "":
		client, err := redisplatform.New(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		challengeStore = otpstore.NewRedis(client.Client)
		log.Info("redis challenge store ready")
	case db != nil:
		challengeStore = otpstore.NewPostgres(db)
	default:
		challengeStore = otpstore.NewMemory()
	}

	var (
		profileStore  registrystore.Store
		businessStore entitystore.Store
		recordStore   verificationstore.Store
		consumerStore gatewaystore.Store
		adminStore    auth.Store
		auditor       audit.Store
	)
	if db != nil {
		profileStore = registrystore.NewPostgres(db)
		businessStore = entitystore.NewPostgres(db)
		recordStore = verificationstore.NewPostgres(db)
		consumerStore = gatewaystore.NewPostgres(db)
		adminStore = authstore.NewPostgres(db)
		auditor = auditpostgres.New(db)
	} else {
		profileStore = registrystore.NewMemory()
		businessStore = entitystore.NewMemory()
		recordStore = verificationstore.NewMemory()
		consumerStore = gatewaystore.NewMemory()
		adminStore = authstore.NewMemory()
		auditor = auditmemory.New()
	}

	var publisher audit.Publisher = audit.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := auditpublisher.NewKafka(ctx, cfg.KafkaBrokers, log)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			kafka.Close(closeCtx)
		}()
		publisher = kafka
		log.Info("kafka audit publisher ready", "brokers", cfg.KafkaBrokers)
	}

	// Services.
	dispatcher := buildDispatcher(cfg, log, profileStore)
	otpService, err := otp.NewService(challengeStore, dispatcher, log, otpmetrics.New())
	if err != nil {
		return err
	}
	registryService, err := registry.NewService(profileStore, otpService, auditor, publisher, atomic, log, registrymetrics.New())
	if err != nil {
		return err
	}
	entityService, err := entity.NewService(businessStore, registryService, auditor, publisher, atomic, log)
	if err != nil {
		return err
	}
	verificationService, err := verification.NewService(registryService, entityService, otpService, recordStore, auditor, publisher, atomic, log, verificationmetrics.New())
	if err != nil {
		return err
	}
	gatewayService, err := gateway.NewService(consumerStore, auditor, publisher, log, gatewaymetrics.New())
	if err != nil {
		return err
	}
	tokenService := auth.NewTokenService(cfg.JWTSigningKey, "vericred", tokenTTL)
	authService, err := auth.NewService(adminStore, tokenService, log)
	if err != nil {
		return err
	}
	adminService, err := admin.NewService(profileStore, businessStore, recordStore, auditor, log)
	if err != nil {
		return err
	}

	if cfg.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	// Router.
	httpMetrics := metrics.NewHTTP()
	r := chi.NewRouter()
	r.Use(metadata.Capture)
	r.Use(httpMetrics.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	authhandler.New(authService, log, tokenTTL).Register(r)
	otphandler.New(otpService, log, cfg.IsDev()).Register(r)

	gwHandler := gatewayhandler.New(gatewayService, verificationService, log)
	gwHandler.RegisterExternal(r)

	r.Group(func(guarded chi.Router) {
		guarded.Use(authmw.Middleware(tokenService))
		registryhandler.New(registryService, log).Register(guarded)
		entityhandler.New(entityService, log).Register(guarded)
		verificationhandler.New(verificationService, log).Register(guarded)
		adminhandler.New(adminService, log).Register(guarded)
		gwHandler.RegisterKeyIssuance(guarded)
	})

	// Serve until signalled.
	srv := httpserver.New(cfg.Addr, r)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildDispatcher selects the OTP delivery mode. SMTP resolves the recipient
// address through the profile store; MOCK logs the code.
func buildDispatcher(cfg config.Config, log *slog.Logger, profiles registrystore.Store) otp.Dispatcher {
	if cfg.OTPProvider != "SMTP" {
		return notify.Mock{Logger: log}
	}
	resolve := func(ctx context.Context, channel otp.Channel, value string) (string, error) {
		var (
			p   registry.PrimaryProfile
			err error
		)
		switch channel {
		case otp.ChannelPhone:
			p, err = profiles.GetPrimaryByPhone(ctx, value)
		case otp.ChannelPrimaryID:
			p, err = profiles.GetPrimaryByNumber(ctx, value)
		default:
			return "", dErrors.New(dErrors.CodeBadRequest, "unknown challenge channel")
		}
		if err != nil {
			return "", err
		}
		if p.Email == "" {
			return "", dErrors.New(dErrors.CodeNotFound, "profile has no email address")
		}
		return p.Email, nil
	}
	return notify.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, resolve)
}
