// The api binary is the composition root of the back-office HTTP server:
// config, migrations, database pool, event bus, domain modules, router, and
// graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"logistica_backend/internal/clients"
	"logistica_backend/internal/email"
	apphttp "logistica_backend/internal/http"
	"logistica_backend/internal/http/router"
	"logistica_backend/internal/notification"
	"logistica_backend/internal/processes"
	"logistica_backend/internal/roles"
	"logistica_backend/internal/scheduler"
	"logistica_backend/internal/serviceorders"
	"logistica_backend/internal/tasks"
	"logistica_backend/internal/users"
	usersrepo "logistica_backend/internal/users/repository"
	"logistica_backend/migrations"
	"logistica_backend/platform/config"
	"logistica_backend/platform/db"
	"logistica_backend/platform/events"
	"logistica_backend/platform/logger"
	"logistica_backend/platform/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("production").Error("config load failed", "error", err.Error())
		os.Exit(1)
	}

	log := logger.New(cfg.Env)
	if !isDevelopment(cfg.Env) {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if err := db.RunMigrations(ctx, cfg, migrations.FS); err != nil {
		return err
	}
	log.Info("migrations applied")

	pool, err := connectWithRetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	var cache *redis.Client
	if cfg.GetRedisURL() != "" {
		opts, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			return err
		}
		cache = redis.NewClient(opts)
		defer cache.Close()
	} else {
		log.Warn("REDIS_URL not set, overdue cache disabled")
	}

	val := validator.New()
	bus := events.NewInMemoryBus(log)
	sender := email.NewSender(cfg, log)

	modules := []apphttp.Module{
		roles.NewModule(pool, val, log),
		users.NewModule(pool, cfg, val, log),
		clients.NewModule(pool, val, log),
		processes.NewModule(pool, val, log),
		serviceorders.NewModule(pool, bus, val, log),
		tasks.NewModule(pool, bus, cache, val, log),
	}

	if cfg.GetRedisURL() != "" {
		enqueuer, err := scheduler.NewEnqueuer(cfg)
		if err != nil {
			return err
		}
		defer enqueuer.Close()
		modules = append(modules, scheduler.NewModule(enqueuer, log))
	}

	notification.NewModule(sender, usersrepo.New(pool), cfg, log).Register(bus)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: bus,
		Modules:  modules,
	}

	server := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.GetHTTPAddr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	return server.Shutdown(shutdownCtx)
}

// connectWithRetry rides out the window where the database container is
// still coming up.
func connectWithRetry(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	const attempts = 5

	var lastErr error
	for i := 1; i <= attempts; i++ {
		pool, err := db.NewPool(ctx, cfg)
		if err == nil {
			return pool, nil
		}
		lastErr = err
		log.Warn("database connection failed, retrying",
			"attempt", i, "error", err.Error())

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i) * time.Second):
		}
	}
	return nil, lastErr
}

func isDevelopment(env string) bool {
	return env == "development"
}
