package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics — метрики воркера заказов.
type WorkerMetrics struct {
	// Orders — заказы, достигшие финального состояния (outcome: completed, blocked, duplicate, exhausted, gone).
	Orders *prometheus.CounterVec

	// Attempts — попытки выполнения по виду результата (kind: none, scope_violation, ...).
	Attempts *prometheus.CounterVec

	// Rollbacks — откаты после упавших тестов.
	Rollbacks *prometheus.CounterVec

	// ModelTokens — токены модели (direction: input, output).
	ModelTokens *prometheus.CounterVec

	// TestDuration — длительность прогона тестов.
	TestDuration *prometheus.HistogramVec
}

// NewWorkerMetrics регистрирует метрики воркера в reg.
// Если reg == nil, используется prometheus.DefaultRegisterer.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &WorkerMetrics{
		Orders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ianae_worker_orders_total",
			Help: "Orders that reached a terminal state, by outcome",
		}, []string{"worker", "outcome"}),
		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ianae_worker_attempts_total",
			Help: "Order execution attempts, by failure kind",
		}, []string{"worker", "kind"}),
		Rollbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ianae_worker_rollbacks_total",
			Help: "Applied batches rolled back after failing tests",
		}, []string{"worker"}),
		ModelTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ianae_worker_model_tokens_total",
			Help: "Tokens reported by model providers",
		}, []string{"worker", "provider", "direction"}),
		TestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ianae_worker_test_duration_seconds",
			Help:    "Duration of test command runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}, []string{"worker"}),
	}
}

// APIMetrics — метрики сервиса заказов.
type APIMetrics struct {
	Requests *prometheus.CounterVec
}

// NewAPIMetrics регистрирует метрики API в reg.
func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &APIMetrics{
		Requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ianae_api_http_requests_total",
			Help: "Total HTTP requests handled by ianae-api",
		}, []string{"method", "code"}),
	}
}
