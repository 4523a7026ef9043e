// The scheduler binary runs the Redis-backed background jobs: an asynq
// worker consuming the queue and a cron scheduler enqueueing the periodic
// overdue-task scan.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"logistica_backend/internal/email"
	"logistica_backend/internal/scheduler"
	"logistica_backend/platform/config"
	"logistica_backend/platform/db"
	"logistica_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("production").Error("config load failed", "error", err.Error())
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("scheduler exited with error", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisOpt, err := asynq.ParseRedisURI(cfg.GetRedisURL())
	if err != nil {
		return err
	}

	sender := email.NewSender(cfg, log)
	handler := scheduler.NewHandler(scheduler.NewRepo(pool), sender, log)

	queue := cfg.GetAsynqQueueName()
	worker := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.GetAsynqConcurrency(),
		Queues:          map[string]int{queue: 1},
		ShutdownTimeout: 30 * time.Second,
	})

	cron := asynq.NewScheduler(redisOpt, nil)
	if _, err := cron.Register(cfg.GetOverdueScanCron(),
		scheduler.NewOverdueScanTask(), asynq.Queue(queue)); err != nil {
		return err
	}

	log.Info("scheduler starting",
		"queue", queue, "overdueScanCron", cfg.GetOverdueScanCron())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(handler.Mux())
	})
	g.Go(func() error {
		return cron.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		cron.Shutdown()
		worker.Shutdown()
		return nil
	})

	return g.Wait()
}
