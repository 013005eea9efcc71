package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/seoscan/internal/application"
	appai "github.com/bryanwahyu/seoscan/internal/application/ai"
	appauth "github.com/bryanwahyu/seoscan/internal/application/auth"
	appscans "github.com/bryanwahyu/seoscan/internal/application/scans"
	"github.com/bryanwahyu/seoscan/internal/config"
	"github.com/bryanwahyu/seoscan/internal/domain/scanerrors"
	domain "github.com/bryanwahyu/seoscan/internal/domain/scans"
	"github.com/bryanwahyu/seoscan/internal/domain/users"
	"github.com/bryanwahyu/seoscan/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/seoscan/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/seoscan/internal/infra/db/postgres"
	"github.com/bryanwahyu/seoscan/internal/infra/httpserver"
	"github.com/bryanwahyu/seoscan/internal/infra/pagespeed"
	"github.com/bryanwahyu/seoscan/internal/infra/scheduler"
	"github.com/bryanwahyu/seoscan/internal/infra/session"
	minioStore "github.com/bryanwahyu/seoscan/internal/infra/storage"
	"github.com/bryanwahyu/seoscan/internal/infra/worker"
	"github.com/bryanwahyu/seoscan/internal/logger"
	"github.com/bryanwahyu/seoscan/internal/middleware"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// path config.yaml
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", logger.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", logger.Error(err))
	}
}

type stores struct {
	db     *sql.DB
	scans  domain.Repository
	users  users.Repository
	errors scanerrors.Repository
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := pgp.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &stores{
			db:     db,
			scans:  pgp.NewScanRepository(db),
			users:  pgp.NewUserRepository(db),
			errors: pgp.NewScanErrorRepository(db),
		}, nil
	default:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := mysqlp.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &stores{
			db:     db,
			scans:  mysqlp.NewScanRepository(db),
			users:  mysqlp.NewUserRepository(db),
			errors: mysqlp.NewScanErrorRepository(db),
		}, nil
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
	}
	defer st.db.Close()
	log.Info("database ready", logger.String("driver", cfg.Database.Driver))

	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: st.db},
	}

	// init minio (opsional)
	var artifacts domain.ArtifactStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx, minioStore.Config{
			Endpoint:   cfg.Minio.Endpoint,
			Region:     cfg.Minio.Region,
			Bucket:     cfg.Minio.BucketName,
			AccessKey:  cfg.Minio.AccessKey,
			SecretKey:  cfg.Minio.SecretKey,
			UseSSL:     cfg.Minio.UseSSL,
			PresignTTL: cfg.Minio.PresignTTL,
		})
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		artifacts = store
		checkers["storage"] = store
	}

	auditor := pagespeed.New(pagespeed.Config{
		Endpoint: cfg.PageSpeed.Endpoint,
		APIKey:   cfg.PageSpeed.APIKey,
		Strategy: cfg.PageSpeed.Strategy,
		Timeout:  cfg.PageSpeed.Timeout,
	}, nil, log)

	llm := openai.NewClient(openai.Config{
		APIKey:   cfg.AI.APIKey,
		BaseURL:  cfg.AI.BaseURL,
		Model:    cfg.AI.Model,
		Timeout:  cfg.AI.Timeout,
		JSONMode: cfg.AI.JSONMode,
	})

	metrics := middleware.NewMetrics()
	pool := worker.New(cfg.Worker.Concurrency, log)
	clock := application.SystemClock{}

	scansSvc := &appscans.Service{
		Repo:            st.scans,
		Auditor:         auditor,
		Suggester:       appai.NewService(llm, log),
		Fallback:        appai.Fallback,
		Artifacts:       artifacts,
		Errors:          st.errors,
		Dispatcher:      pool,
		Metrics:         metrics,
		Clock:           clock,
		Logger:          log,
		AnalysisTimeout: cfg.Worker.AnalysisTimeout,
	}

	tokens := session.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authSvc := &appauth.Service{
		Users:  st.users,
		Tokens: tokens,
		Clock:  clock,
		Logger: log,
		Cost:   cfg.Auth.BcryptCost,
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	defer limiter.Close()

	sweeper, err := scheduler.NewSweeper(scansSvc, cfg.Worker.SweepSchedule, cfg.Worker.StaleAfter, log)
	if err != nil {
		return err
	}
	// scans left over from a previous process
	if _, err := sweeper.RunOnce(ctx); err != nil {
		log.Warn("initial stale scan sweep", logger.Error(err))
	}
	sweeper.Start()

	handler := httpserver.NewRouter(scansSvc, authSvc, tokens, httpserver.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SecureCookie:   cfg.Server.SecureCookie,
		SessionTTL:     tokens.TTL(),
		RateLimiter:    limiter,
		Metrics:        metrics,
		Checkers:       checkers,
		Logger:         log,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	// graceful shutdown: stop intake, then let running analyses finish
	log.Info("shutting down server...")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Warn("http shutdown", logger.Error(err))
	}
	if err := sweeper.Stop(sctx); err != nil {
		log.Warn("sweeper shutdown", logger.Error(err))
	}
	if err := pool.Shutdown(sctx); err != nil {
		log.Warn("analyses still running at shutdown; they will be failed by the next sweep",
			logger.Int("in_flight", pool.InFlight()),
			logger.Error(err),
		)
	}
	return nil
}
