package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Luc4sfdez/Ianae-sub001/internal/dedup"
	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
	"github.com/Luc4sfdez/Ianae-sub001/internal/mq"
	"github.com/Luc4sfdez/Ianae-sub001/internal/retry"
	"github.com/Luc4sfdez/Ianae-sub001/internal/source"
	"github.com/Luc4sfdez/Ianae-sub001/internal/telemetry"
)

// Default configuration values.
const (
	defaultPollInterval = 60 * time.Second
)

// Исходы заказа для метрик и событий.
const (
	outcomeCompleted = "completed"
	outcomeBlocked   = "blocked"
	outcomeDuplicate = "duplicate"
	outcomeExhausted = "exhausted"
	outcomeGone      = "gone"
)

// EventPublisher публикует терминальные исходы заказов.
type EventPublisher interface {
	PublishOrderResolved(ctx context.Context, payload mq.OrderResolvedPayload) error
}

// Worker — poll loop одного воркера.
//
// Все поля состояния (processed, attempts, seen titles) принадлежат
// горутине цикла; Worker не предназначен для параллельного RunOnce.
type Worker struct {
	name     string
	source   OrderSource
	executor OrderExecutor
	retries  *retry.Controller
	titles   *dedup.Tracker

	processed  map[int64]struct{}
	minOrderID int64

	pollInterval time.Duration
	wake         chan struct{}

	publisher EventPublisher
	conn      *mq.Connection

	metrics *telemetry.WorkerMetrics

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	// Name — имя воркера, под которым источник отдаёт заказы.
	Name string

	Source   OrderSource
	Executor OrderExecutor

	// Retry — счётчик попыток (default: retry.New(2, 30s))
	Retry *retry.Controller

	// PollInterval — пауза между опросами (default: 60s)
	PollInterval time.Duration

	// MinOrderID — заказы с меньшим id игнорируются.
	MinOrderID int64

	// MQ (опционально; без них работает только polling)
	Publisher EventPublisher
	Conn      *mq.Connection

	Metrics *telemetry.WorkerMetrics
	Logger  *slog.Logger
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	retries := cfg.Retry
	if retries == nil {
		retries = retry.New(retry.DefaultMaxRetries, retry.DefaultDelay)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		name:         cfg.Name,
		source:       cfg.Source,
		executor:     cfg.Executor,
		retries:      retries,
		titles:       dedup.NewTracker(),
		processed:    make(map[int64]struct{}),
		minOrderID:   cfg.MinOrderID,
		pollInterval: pollInterval,
		wake:         make(chan struct{}, 1),
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		metrics:      cfg.Metrics,
		logger:       telemetry.WithWorker(logger, cfg.Name),
	}
}

// Start запускает poll loop и, если есть RabbitMQ, consumer пробуждений.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"poll_interval", w.pollInterval,
		"max_attempts", w.retries.MaxAttempts(),
		"retry_delay", w.retries.Delay(),
		"min_order_id", w.minOrderID,
	)

	if w.conn != nil {
		consumer := mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:   mq.CreatedQueue(w.name),
			Handler: w.handleOrderCreated,
		})

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("order consumer error", "error", err)
			}
		}()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()

	return nil
}

// Stop останавливает Worker и ждёт завершения текущей попытки.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// Wake прерывает паузу между опросами.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// handleOrderCreated — обработчик order.created из RabbitMQ.
func (w *Worker) handleOrderCreated(_ context.Context, msg *mq.Message) error {
	payload, err := mq.ParsePayload[mq.OrderCreatedPayload](msg)
	if err != nil {
		w.logger.Warn("failed to parse order.created payload", "error", err)
		return nil
	}

	if payload.Worker != w.name {
		return nil
	}

	w.logger.Debug("woken by order.created", "order_id", payload.OrderID)
	w.Wake()
	return nil
}

// pollLoop — опрос сразу при старте, затем раз в pollInterval или по Wake.
func (w *Worker) pollLoop(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-w.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		if _, err := w.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("poll failed", "error", err)
		}

		timer.Reset(w.pollInterval)
	}
}

// RunOnce выполняет один цикл опроса: находит первый подходящий заказ
// и доводит его до терминального состояния или исчерпания ctx.
// Возвращает true, если заказ был взят в работу.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	orders, err := w.source.ListPending(ctx, w.name)
	if err != nil {
		return false, err
	}

	for _, order := range orders {
		if !w.eligible(order) {
			continue
		}

		if w.titles.IsDuplicate(order.Title) {
			w.rejectDuplicate(ctx, order)
			continue
		}

		return true, w.process(ctx, order)
	}

	return false, nil
}

func (w *Worker) eligible(order domain.Order) bool {
	if _, done := w.processed[order.ID]; done {
		return false
	}
	if order.ID < w.minOrderID {
		return false
	}
	return order.WorkflowStatus == "" || order.WorkflowStatus == domain.StatusPending
}

func (w *Worker) rejectDuplicate(ctx context.Context, order domain.Order) {
	w.logger.Info("duplicate order blocked", "order_id", order.ID, "title", order.Title)

	err := w.source.UpdateStatus(ctx, order.ID, domain.StatusUpdate{
		WorkflowStatus: domain.StatusBlocked,
		Worker:         w.name,
		Message:        "duplicado de una orden ya resuelta: " + dedup.Normalize(order.Title),
	})
	if err != nil {
		w.logger.Warn("failed to block duplicate", "order_id", order.ID, "error", err)
	}

	w.processed[order.ID] = struct{}{}
	w.resolved(ctx, order, outcomeDuplicate, KindNone, 0)
}

// process выполняет попытки заказа подряд, с паузой retry_delay между ними.
func (w *Worker) process(ctx context.Context, order domain.Order) error {
	var previousFailure string

	for {
		attempt := w.retries.Begin(order.ID)
		if w.retries.IsExhausted(attempt) {
			w.logger.Warn("order exhausted its attempts", "order_id", order.ID, "attempt", attempt)
			w.processed[order.ID] = struct{}{}
			w.titles.Remember(order.Title)
			w.resolved(ctx, order, outcomeExhausted, KindNone, attempt-1)
			return nil
		}

		current, err := w.refresh(ctx, order)
		if err != nil {
			if errors.Is(err, ErrOrderGone) {
				w.logger.Info("order no longer pending, skipping", "order_id", order.ID, "reason", err)
				w.processed[order.ID] = struct{}{}
				w.resolved(ctx, order, outcomeGone, KindNone, attempt)
				return nil
			}
			return err
		}

		outcome := w.executor.Execute(ctx, current, Attempt{
			Number:          attempt,
			Final:           w.retries.IsFinal(attempt),
			ID:              uuid.NewString(),
			PreviousFailure: previousFailure,
			MaxAttempts:     w.retries.MaxAttempts(),
		})

		switch outcome.Result {
		case ResultSucceeded:
			w.processed[order.ID] = struct{}{}
			w.titles.Remember(order.Title)
			w.resolved(ctx, current, outcomeCompleted, outcome.Kind, attempt)
			return nil

		case ResultBlocked:
			w.processed[order.ID] = struct{}{}
			if outcome.Kind.Retryable() && w.retries.IsFinal(attempt) {
				w.titles.Remember(order.Title)
			}
			w.resolved(ctx, current, outcomeBlocked, outcome.Kind, attempt)
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		previousFailure = outcome.TestOutput
		w.logger.Info("retrying order",
			"order_id", order.ID,
			"next_attempt", attempt+1,
			"delay", w.retries.Delay(),
		)
		if err := w.retries.Wait(ctx); err != nil {
			return err
		}
	}
}

// refresh перечитывает полный документ заказа перед попыткой.
func (w *Worker) refresh(ctx context.Context, order domain.Order) (domain.Order, error) {
	full, err := w.source.GetOrder(ctx, order.ID)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			return order, ErrOrderGone
		}
		if ctx.Err() != nil {
			return order, ctx.Err()
		}
		w.logger.Warn("failed to fetch order document, using listing", "order_id", order.ID, "error", err)
		return order, nil
	}

	switch full.WorkflowStatus {
	case domain.StatusPending, domain.StatusInProgress, "":
		return *full, nil
	default:
		return order, ErrOrderGone
	}
}

func (w *Worker) resolved(ctx context.Context, order domain.Order, outcome string, kind Kind, attempts int) {
	if w.metrics != nil {
		w.metrics.Orders.WithLabelValues(w.name, outcome).Inc()
	}

	if w.publisher == nil {
		return
	}

	payload := mq.OrderResolvedPayload{
		OrderID:  order.ID,
		Worker:   w.name,
		Status:   outcome,
		Attempts: attempts,
	}
	if kind != KindNone {
		payload.Kind = kind.String()
	}

	if err := w.publisher.PublishOrderResolved(ctx, payload); err != nil {
		// Источник уже знает статус, событие только информирует.
		w.logger.Warn("failed to publish order.resolved", "order_id", order.ID, "error", err)
	}
}

// Processed сообщает, обработан ли заказ в этом процессе.
func (w *Worker) Processed(id int64) bool {
	_, ok := w.processed[id]
	return ok
}
