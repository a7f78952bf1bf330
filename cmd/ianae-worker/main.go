// Ianae Worker — автономный исполнитель заказов одного воркера.
//
// Worker:
//   - Опрашивает источник заказов (и просыпается по order.created из RabbitMQ)
//   - Просит модель сгенерировать файлы в пределах scope воркера
//   - Применяет их, гоняет тесты воркера, откатывает при провале
//   - Публикует статус и отчёт обратно в источник
//
// Использование:
//
//	ianae-worker WORKER [--config FILE] [--project-root DIR] [--poll-interval SECONDS] [--min-id N]
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Luc4sfdez/Ianae-sub001/internal/config"
	"github.com/Luc4sfdez/Ianae-sub001/internal/llm"
	"github.com/Luc4sfdez/Ianae-sub001/internal/mq"
	"github.com/Luc4sfdez/Ianae-sub001/internal/prompt"
	"github.com/Luc4sfdez/Ianae-sub001/internal/retry"
	"github.com/Luc4sfdez/Ianae-sub001/internal/scope"
	"github.com/Luc4sfdez/Ianae-sub001/internal/source"
	"github.com/Luc4sfdez/Ianae-sub001/internal/telemetry"
	"github.com/Luc4sfdez/Ianae-sub001/internal/testrun"
	"github.com/Luc4sfdez/Ianae-sub001/internal/worker"
)

// version задаётся через ldflags при сборке.
var version = "dev"

type options struct {
	configPath   string
	projectRoot  string
	sourceURL    string
	pollInterval int
	minID        int64
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:           "ianae-worker WORKER",
		Short:         "Autonomous order executor for one worker",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], opts)
		},
	}

	rootCmd.Flags().StringVar(&opts.configPath, "config", os.Getenv("IANAE_CONFIG"), "YAML config file")
	rootCmd.Flags().StringVar(&opts.projectRoot, "project-root", "", "Project root the worker edits (default: config or current dir)")
	rootCmd.Flags().StringVar(&opts.sourceURL, "source-url", "", "Order source API URL")
	rootCmd.Flags().IntVar(&opts.pollInterval, "poll-interval", 0, "Seconds between polls (default: config)")
	rootCmd.Flags().Int64Var(&opts.minID, "min-id", 0, "Ignore orders with a smaller id")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, name string, opts options) error {
	logger := telemetry.SetupLogger()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	wcfg, err := cfg.Worker(name)
	if err != nil {
		return err
	}

	logger = telemetry.WithWorker(logger, name)
	logger.Info("starting ianae-worker",
		"version", version,
		"project_root", cfg.ProjectRoot,
		"source_url", cfg.SourceURL,
		"scope", wcfg.Scope,
	)

	providers, err := llm.Build(cfg.Providers)
	if err != nil {
		return err
	}
	chain := llm.NewChain(llm.ChainConfig{
		Providers: providers,
		Timeout:   cfg.ModelTimeout,
		Logger:    logger,
	})

	prompts, err := prompt.New(cfg.Prompts.System, cfg.Prompts.User, cfg.MaxTokens)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewWorkerMetrics(registry)

	client := source.NewClient(cfg.SourceURL)

	executor, err := worker.NewExecutor(worker.ExecutorConfig{
		Worker:                 name,
		ProjectRoot:            cfg.ProjectRoot,
		Scope:                  wcfg.Scope,
		TestCommand:            wcfg.TestCommand,
		MaxFiles:               cfg.MaxFiles,
		Source:                 client,
		Provider:               chain,
		Prompts:                prompts,
		Tester:                 &testrun.Runner{Timeout: cfg.TestTimeout},
		Gatherer:               &scope.Gatherer{Budget: cfg.ContextBudget},
		BlockOnProviderFailure: cfg.BlockOnProviderFailure,
		Metrics:                metrics,
		Logger:                 logger,
	})
	if err != nil {
		return err
	}

	wc := worker.Config{
		Name:         name,
		Source:       client,
		Executor:     executor,
		Retry:        retry.New(cfg.MaxRetries, cfg.RetryDelay),
		PollInterval: cfg.PollInterval,
		MinOrderID:   opts.minID,
		Metrics:      metrics,
		Logger:       logger,
	}

	// RabbitMQ опционален: без него работает только polling.
	if conn := connectMQ(ctx, cfg, logger); conn != nil {
		defer conn.Close()
		wc.Conn = conn
		wc.Publisher = mq.NewPublisher(conn, logger)
	}

	w := worker.New(wc)

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		w.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("ianae-worker stopped")
	return err
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.projectRoot != "" {
		cfg.ProjectRoot = opts.projectRoot
	}
	if opts.sourceURL != "" {
		cfg.SourceURL = opts.sourceURL
	}
	if opts.pollInterval > 0 {
		cfg.PollInterval = time.Duration(opts.pollInterval) * time.Second
	}
}

func connectMQ(ctx context.Context, cfg *config.Config, logger *slog.Logger) *mq.Connection {
	if cfg.RabbitMQURL == "" {
		logger.Info("RabbitMQ not configured, running in polling-only mode")
		return nil
	}

	conn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		return nil
	}
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, conn, cfg.WorkerNames()); err != nil {
		logger.Warn("failed to setup topology", "error", err)
	}
	return conn
}
