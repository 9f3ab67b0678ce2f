package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"grantapp/internal/application/filestore"
	"grantapp/internal/application/handler"
	appmetrics "grantapp/internal/application/metrics"
	"grantapp/internal/application/notify"
	"grantapp/internal/application/service"
	"grantapp/internal/application/store"
	"grantapp/internal/application/validation"
	httpapi "grantapp/internal/http"
	"grantapp/internal/platform/config"
	"grantapp/internal/platform/db"
	"grantapp/internal/platform/httpserver"
	"grantapp/internal/platform/logger"
	"grantapp/internal/platform/metrics"
	"grantapp/internal/platform/ratelimit"
	"grantapp/internal/platform/redis"
	"grantapp/pkg/platform/circuit"
	"grantapp/pkg/platform/retry"
)

// applicationStore is what main needs from either store backend.
type applicationStore interface {
	service.Repository
	Ping(ctx context.Context) error
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("grantapp stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := appmetrics.New(reg)
	platformMetrics := metrics.New(reg)
	health := map[string]httpapi.Pinger{}

	repo, closeRepo, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeRepo()
	health["database"] = repo

	files, err := openFileStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	policy := retry.NewFixed(cfg.Mail.MaxAttempts, cfg.Mail.RetryDelay, cfg.Mail.AttemptTimeout)
	notifier := notify.New(notify.Config{
		AdminRecipient: cfg.Mail.NotifyAddress,
		From:           cfg.Mail.FromAddress,
		ReplyTo:        cfg.Mail.ReplyAddress(),
		AppName:        cfg.Branding.AppName,
		FrontendURL:    cfg.Branding.FrontendURL,
	}, newMailer(cfg.Mail, log), files, policy,
		notify.WithLogger(log),
		notify.WithMetrics(appMetrics),
	)

	svc := service.New(
		validation.New(),
		validation.NewSanitizer(),
		files,
		repo,
		notifier,
		store.NewReferenceGenerator(cfg.Branding.ReferencePrefix),
		service.WithLogger(log),
		service.WithMetrics(appMetrics),
	)

	memLimiter := ratelimit.NewMemory(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	var limiter ratelimit.Limiter = memLimiter
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		health["redis"] = rdb
		limiter = ratelimit.NewFailover(
			ratelimit.NewRedis(rdb.Client, cfg.RateLimit.Limit, cfg.RateLimit.Window),
			memLimiter,
			ratelimit.WithBreaker(circuit.New("ratelimit-redis")),
			ratelimit.WithFailoverLogger(log),
			ratelimit.WithFailoverMetrics(platformMetrics),
		)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:       log,
		Applications: handler.New(svc, log),
		RateLimit: ratelimit.NewMiddleware(limiter, log,
			ratelimit.WithDisabled(cfg.RateLimit.Disabled),
			ratelimit.WithMetrics(platformMetrics),
		),
		Metrics:        platformMetrics,
		MetricsHandler: metrics.Handler(reg),
		Health:         health,
		AllowedOrigins: cfg.Branding.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxUploadBytes,
		TrustProxy:     cfg.Server.TrustProxy,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting grantapp", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.RateLimit.Window)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				memLimiter.Sweep()
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down grantapp")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.Database, log *slog.Logger) (applicationStore, func(), error) {
	if cfg.URL == "" {
		log.Warn("DATABASE_URL not set, applications are kept in memory")
		return store.NewInMemory(), func() {}, nil
	}
	conn, err := db.Open(ctx, cfg.URL, db.DefaultOptions())
	if err != nil {
		return nil, nil, err
	}
	if cfg.Migrate {
		if err := db.Migrate(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
	}
	return store.NewPostgres(conn), func() { _ = conn.Close() }, nil
}

func openFileStore(ctx context.Context, cfg config.Storage) (filestore.Store, error) {
	if cfg.Driver == config.StorageS3 {
		client, err := filestore.NewS3Client(ctx, filestore.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return filestore.NewS3(client, cfg.S3Bucket), nil
	}
	return filestore.NewLocal(cfg.Root)
}

func newMailer(cfg config.Mail, log *slog.Logger) notify.Mailer {
	if cfg.Host == "" {
		log.Warn("MAIL_HOST not set, emails are logged instead of sent")
		return notify.NewLogMailer(log)
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  cfg.AttemptTimeout,
	})
}
