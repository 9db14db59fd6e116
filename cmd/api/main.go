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

	"github.com/joho/godotenv"

	"github.com/bryanwahyu/draft-analyzer/internal/application"
	appai "github.com/bryanwahyu/draft-analyzer/internal/application/ai"
	appdrafts "github.com/bryanwahyu/draft-analyzer/internal/application/drafts"
	"github.com/bryanwahyu/draft-analyzer/internal/config"
	domain "github.com/bryanwahyu/draft-analyzer/internal/domain/drafts"
	aiopenai "github.com/bryanwahyu/draft-analyzer/internal/infra/ai/openai"
	"github.com/bryanwahyu/draft-analyzer/internal/infra/db/memory"
	"github.com/bryanwahyu/draft-analyzer/internal/infra/db/migrations"
	mysqlp "github.com/bryanwahyu/draft-analyzer/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/draft-analyzer/internal/infra/db/postgres"
	"github.com/bryanwahyu/draft-analyzer/internal/infra/httpserver"
	"github.com/bryanwahyu/draft-analyzer/internal/infra/storage"
	"github.com/bryanwahyu/draft-analyzer/internal/middleware"
)

func main() {
	// .env optional, variabel yang sudah ada tidak ditimpa
	_ = godotenv.Load()

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("config load error", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.App.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

type repositories struct {
	drafts   domain.DraftRepository
	analyses domain.AnalysisRepository
	checker  middleware.HealthChecker
	db       *sql.DB
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if repos.db != nil {
		defer repos.db.Close()
	}

	files, err := openFileStore(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is empty; analyze requests will fail")
	}
	client := aiopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, nil)

	// init service
	svc := &appdrafts.Service{
		Drafts:       repos.drafts,
		Analyses:     repos.analyses,
		Files:        files,
		AI:           appai.NewService(client, cfg.OpenAI.Timeout),
		Clock:        application.SystemClock{},
		Log:          logger,
		MaxFileSize:  cfg.Upload.MaxFileSize,
		ShareBaseURL: cfg.Share.BaseURL,
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond)
	go limiter.Run(ctx, time.Minute)

	handler := httpserver.NewRouter(svc, httpserver.Options{
		AppName:     cfg.App.Name,
		Debug:       cfg.App.Debug,
		MaxFileSize: cfg.Upload.MaxFileSize,
		CORSOrigins: cfg.CORS.Origins,
		Limiter:     limiter,
		Checkers:    map[string]middleware.HealthChecker{"database": repos.checker},
		Log:         logger,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.OpenAI.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "model", client.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositories, error) {
	driver, dsn := cfg.DSN()

	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case config.DriverMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			drafts:   store.Drafts(),
			analyses: store.Analyses(),
			checker:  middleware.CheckerFunc(func(context.Context) error { return nil }),
		}, nil
	case config.DriverPostgres:
		db, err = pgp.Connect(ctx, dsn)
	default:
		db, err = mysqlp.Connect(ctx, dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("%s connect: %w", driver, err)
	}

	if err := migrations.Up(ctx, db, driver); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("database ready", "driver", driver)

	repos := &repositories{db: db, checker: &middleware.DatabaseHealthChecker{DB: db}}
	if driver == config.DriverPostgres {
		repos.drafts = pgp.NewDraftRepository(db)
		repos.analyses = pgp.NewAnalysisRepository(db)
	} else {
		repos.drafts = mysqlp.NewDraftRepository(db)
		repos.analyses = mysqlp.NewAnalysisRepository(db)
	}
	return repos, nil
}

func openFileStore(ctx context.Context, cfg *config.Config) (domain.FileStore, error) {
	switch cfg.Storage.Driver {
	case "minio":
		store, err := storage.NewMinio(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return nil, fmt.Errorf("minio init: %w", err)
		}
		return store, nil
	case "local", "":
		store, err := storage.NewLocal(cfg.Upload.Dir)
		if err != nil {
			return nil, fmt.Errorf("upload dir: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
