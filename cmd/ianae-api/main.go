// Ianae API — источник заказов для воркеров.
//
// Хранит заказы (documents) и отчёты воркеров в PostgreSQL,
// отдаёт их по HTTP и публикует order.created в RabbitMQ,
// чтобы воркер не ждал следующего опроса.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Luc4sfdez/Ianae-sub001/internal/api"
	"github.com/Luc4sfdez/Ianae-sub001/internal/config"
	"github.com/Luc4sfdez/Ianae-sub001/internal/mq"
	"github.com/Luc4sfdez/Ianae-sub001/internal/repo"
	"github.com/Luc4sfdez/Ianae-sub001/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting ianae-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx, repo.PoolConfigFromEnv())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := repo.Migrate(ctx, pool); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	cfg := api.Config{
		Orders:  repo.NewOrderRepo(pool),
		Reports: repo.NewReportRepo(pool),
		Metrics: telemetry.NewAPIMetrics(nil),
		Logger:  logger,
	}

	// RabbitMQ (опционально)
	if mqURL := os.Getenv("RABBITMQ_URL"); mqURL != "" {
		conn, err := mq.NewConnection(mqURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, workers will rely on polling", "error", err)
		} else {
			defer conn.Close()
			if err := mq.SetupTopology(ctx, conn, workerNames()); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			cfg.Publisher = mq.NewPublisher(conn, logger)
			logger.Info("RabbitMQ connected")
		}
	}

	handler := api.NewHandler(cfg)

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Round(time.Second))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

// workerNames — воркеры, для которых объявляются очереди order.created.
// IANAE_WORKERS (через запятую) или набор по умолчанию.
func workerNames() []string {
	if v := os.Getenv("IANAE_WORKERS"); v != "" {
		var names []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		return names
	}
	return config.Default().WorkerNames()
}
