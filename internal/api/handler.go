package api

import (
	"context"
	"log/slog"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
	"github.com/Luc4sfdez/Ianae-sub001/internal/mq"
	"github.com/Luc4sfdez/Ianae-sub001/internal/repo"
	"github.com/Luc4sfdez/Ianae-sub001/internal/telemetry"
)

// OrderStore — хранилище заказов (реализуется repo.OrderRepo).
type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListPending(ctx context.Context, worker string, limit int) ([]domain.Order, error)
	List(ctx context.Context, filter repo.OrderFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, update domain.StatusUpdate) error
}

// ReportStore — хранилище отчётов (реализуется repo.ReportRepo).
type ReportStore interface {
	Create(ctx context.Context, report *domain.Report) error
	ListByWorker(ctx context.Context, worker string, limit int) ([]domain.Report, error)
}

// EventPublisher публикует order.created (реализуется mq.Publisher).
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, payload mq.OrderCreatedPayload) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	orders    OrderStore
	reports   ReportStore
	publisher EventPublisher
	metrics   *telemetry.APIMetrics
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Orders  OrderStore
	Reports ReportStore

	// Publisher — опционально; без него воркеры узнают о заказах только опросом.
	Publisher EventPublisher

	Metrics *telemetry.APIMetrics
	Logger  *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		orders:    cfg.Orders,
		reports:   cfg.Reports,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}
