// cmd/taskleased/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/calston/taskleased/internal/config"
	"github.com/calston/taskleased/internal/lease"
	"github.com/calston/taskleased/internal/leasestore"
	"github.com/calston/taskleased/internal/observability"
	"github.com/calston/taskleased/internal/store"
	"github.com/calston/taskleased/internal/worker"

	// Register store backends
	_ "github.com/calston/taskleased/internal/store/dynamodb"
	_ "github.com/calston/taskleased/internal/store/memory"
	_ "github.com/calston/taskleased/internal/store/redis"
	_ "github.com/calston/taskleased/internal/store/scylladb"
)

func main() {
	ctx := context.Background()

	configPath := flag.String("config", "/etc/taskleased/config.yaml", "Path to configuration file")
	flag.Parse()

	backend, err := config.DetectBackendType(*configPath)
	if err != nil {
		log.Fatalf("Failed to detect backend type: %v", err)
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signals
		fmt.Printf("Received signal: %v\n", sig)
		cancel()
	}()

	switch backend {
	case "memory":
		err = run(ctx, *configPath, backend, config.MemoryConfigLoader)
	case "redis":
		err = run(ctx, *configPath, backend, config.RedisConfigLoader)
	case "dynamodb":
		err = run(ctx, *configPath, backend, config.DynamoConfigLoader)
	case "scylladb":
		err = run(ctx, *configPath, backend, config.ScyllaConfigLoader)
	default:
		err = fmt.Errorf("unsupported backend type: %s", backend)
	}

	if err != nil && err != context.Canceled {
		log.Fatalf("Application error: %v", err)
	}
}

// run wires the configured backend into a lease-guarded task runner and
// blocks until shutdown.
func run[T store.StoreConfig](ctx context.Context, configPath, backend string, loadFn config.ConfigLoadFn[T]) error {
	_, cfg, err := config.LoadConfig(configPath, loadFn)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger.Level.GetZapLevel())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	otelShutdown, err := observability.InitProvider(ctx, cfg.Observability)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer otelShutdown()

	metrics, err := observability.NewMetricsClient(cfg.Observability, logger)
	if err != nil {
		return fmt.Errorf("failed to create metrics client: %w", err)
	}

	kv, err := leasestore.New(ctx, backend, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to create %s store: %w", backend, err)
	}
	defer kv.Close()

	leases, err := lease.New(kv,
		time.Duration(cfg.Store.GetTTL())*time.Second,
		logger,
		lease.WithMetrics(metrics),
	)
	if err != nil {
		return fmt.Errorf("failed to create lease store: %w", err)
	}

	queue := worker.NewQueue(cfg.Worker.QueueSize)
	runner, err := worker.NewRunner(queue, handleTask(logger), leases,
		cfg.Worker.Concurrency, logger,
		worker.WithTaskTimeout(cfg.Worker.TaskTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	logger.Infof("Starting taskleased with %s backend, %d workers", backend, cfg.Worker.Concurrency)

	var wg sync.WaitGroup
	for _, s := range cfg.Schedules {
		wg.Add(1)
		go func(s config.ScheduleConfig) {
			defer wg.Done()
			schedule(ctx, queue, s, logger)
		}(s)
	}

	err = runner.Run(ctx)

	wg.Wait()
	logger.Info("Shutdown complete")
	return err
}

// schedule enqueues a recurring task until the context is cancelled.
func schedule(ctx context.Context, queue *worker.Queue, s config.ScheduleConfig, logger *observability.SLogger) {
	t := time.NewTicker(s.Every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := queue.Enqueue(ctx, worker.NewTask(s.Name, s.Args)); err != nil {
				return
			}
			logger.Debugf("enqueued scheduled task %q", s.Name)
		}
	}
}

// handleTask is the placeholder task body. Real deployments hang their
// own work off the task name; the lease plumbing around it is what this
// daemon provides.
func handleTask(logger *observability.SLogger) worker.Handler {
	return func(ctx context.Context, task *worker.Task) error {
		logger.Infof("executing task %q (%s)", task.Name, task.ID)
		return nil
	}
}
