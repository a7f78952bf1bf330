package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Luc4sfdez/Ianae-sub001/internal/apply"
	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
	"github.com/Luc4sfdez/Ianae-sub001/internal/extract"
	"github.com/Luc4sfdez/Ianae-sub001/internal/llm"
	"github.com/Luc4sfdez/Ianae-sub001/internal/prompt"
	"github.com/Luc4sfdez/Ianae-sub001/internal/scope"
	"github.com/Luc4sfdez/Ianae-sub001/internal/source"
	"github.com/Luc4sfdez/Ianae-sub001/internal/telemetry"
	"github.com/Luc4sfdez/Ianae-sub001/internal/testrun"
)

// OrderSource — источник заказов.
type OrderSource interface {
	ListPending(ctx context.Context, worker string) ([]domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, update domain.StatusUpdate) error
	PublishReport(ctx context.Context, worker string, req source.ReportRequest) (*domain.Report, error)
}

// Tester запускает тестовую команду.
type Tester interface {
	Run(ctx context.Context, command, dir string) testrun.Result
}

// ContextGatherer собирает содержимое файлов scope.
type ContextGatherer interface {
	Gather(root string, entries []string) (*scope.Context, error)
}

// Attempt — номер попытки и её место в лимите.
type Attempt struct {
	Number int

	// Final — последняя разрешённая попытка.
	Final bool

	// ID — уникальный id попытки для логов.
	ID string

	// PreviousFailure — вывод тестов предыдущей попытки.
	PreviousFailure string

	// MaxAttempts — для промпта.
	MaxAttempts int
}

// OrderExecutor выполняет одну попытку заказа.
type OrderExecutor interface {
	Execute(ctx context.Context, order domain.Order, attempt Attempt) Outcome
}

// ExecutorConfig — конфигурация Executor.
type ExecutorConfig struct {
	Worker      string
	ProjectRoot string
	Scope       []string
	TestCommand string

	// MaxFiles — лимит файлов в пачке (default: 5)
	MaxFiles int

	Source   OrderSource
	Provider llm.Provider
	Prompts  *prompt.Builder
	Tester   Tester
	Gatherer ContextGatherer

	// BlockOnProviderFailure — блокировать заказ при первом отказе провайдеров.
	BlockOnProviderFailure bool

	Metrics *telemetry.WorkerMetrics
	Logger  *slog.Logger
}

// Executor — машина состояний одной попытки:
// fetched → modelInvoked → parsed → applied → tested → completed | blocked.
type Executor struct {
	worker      string
	root        string
	scope       []string
	testCommand string
	applier     *apply.Applier

	source   OrderSource
	provider llm.Provider
	prompts  *prompt.Builder
	tester   Tester
	gatherer ContextGatherer

	blockOnProviderFailure bool

	metrics *telemetry.WorkerMetrics
	logger  *slog.Logger
}

const defaultMaxFiles = 5

// NewExecutor создаёт Executor.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if cfg.Source == nil || cfg.Provider == nil || cfg.Tester == nil {
		return nil, errors.New("executor: source, provider and tester are required")
	}
	if len(cfg.Scope) == 0 {
		return nil, fmt.Errorf("executor: worker %s has an empty scope", cfg.Worker)
	}

	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}

	prompts := cfg.Prompts
	if prompts == nil {
		p, err := prompt.New("", "", 0)
		if err != nil {
			return nil, err
		}
		prompts = p
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = &scope.Gatherer{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		worker:      cfg.Worker,
		root:        cfg.ProjectRoot,
		scope:       cfg.Scope,
		testCommand: cfg.TestCommand,
		applier: &apply.Applier{
			Root:     cfg.ProjectRoot,
			Scope:    cfg.Scope,
			MaxFiles: maxFiles,
		},
		source:                 cfg.Source,
		provider:               cfg.Provider,
		prompts:                prompts,
		tester:                 cfg.Tester,
		gatherer:               gatherer,
		blockOnProviderFailure: cfg.BlockOnProviderFailure,
		metrics:                cfg.Metrics,
		logger:                 logger,
	}, nil
}

// Execute выполняет одну попытку. Ошибки всех компонентов превращаются
// в Outcome; наружу ничего не паникует и не возвращается как error.
func (e *Executor) Execute(ctx context.Context, order domain.Order, attempt Attempt) Outcome {
	logger := telemetry.WithOrder(e.logger, order.ID, attempt.Number, attempt.ID)
	logger.Info("attempt started", "title", order.Title, "final", attempt.Final)
	ctx = telemetry.WithLogger(ctx, logger)

	outcome := e.execute(ctx, logger, order, attempt)

	if e.metrics != nil {
		e.metrics.Attempts.WithLabelValues(e.worker, outcome.Kind.String()).Inc()
	}
	logger.Info("attempt finished",
		"result", outcome.Result,
		"kind", outcome.Kind,
		"error", outcome.Err,
	)
	return outcome
}

func (e *Executor) execute(ctx context.Context, logger *slog.Logger, order domain.Order, attempt Attempt) Outcome {
	// 1. in_progress
	e.updateStatus(ctx, logger, order.ID, domain.StatusInProgress, fmt.Sprintf("intento %d", attempt.Number))

	// 2. Контекст scope
	gathered, err := e.gatherer.Gather(e.root, e.scope)
	if err != nil {
		return e.fail(ctx, logger, order, attempt, KindIO, fmt.Errorf("gather context: %w", err), "")
	}

	// 3. Модель
	req, err := e.prompts.Build(prompt.Data{
		Worker:          e.worker,
		Order:           order,
		Scope:           e.scope,
		TestCommand:     e.testCommand,
		MaxFiles:        e.applier.MaxFiles,
		Context:         gathered.Render(),
		Attempt:         attempt.Number,
		MaxAttempts:     attempt.MaxAttempts,
		PreviousFailure: attempt.PreviousFailure,
	})
	if err != nil {
		return e.fail(ctx, logger, order, attempt, KindIO, err, "")
	}

	resp, err := e.provider.Generate(ctx, req)
	if err != nil {
		if e.blockOnProviderFailure {
			return e.block(ctx, logger, order, attempt, KindProviderFailure, err, providerFailureDetails(err))
		}
		return e.fail(ctx, logger, order, attempt, KindProviderFailure, err, providerFailureDetails(err))
	}
	e.recordUsage(resp)
	logger.Debug("model responded",
		"provider", resp.Provider,
		"model", resp.Model,
		"output_tokens", resp.Usage.OutputTokens,
	)

	// 4. Разбор ответа
	parsed := extract.Parse(resp.Text)
	if len(parsed.Files) == 0 {
		return e.fail(ctx, logger, order, attempt, KindEmptyGeneration, ErrEmptyGeneration, modelOutputDetails(resp))
	}

	// 5. Применение
	batch, err := e.applier.Apply(parsed.Files)
	if err != nil {
		kind := kindOf(err)
		if !kind.Retryable() {
			return e.block(ctx, logger, order, attempt, kind, err, violationDetails(err, e.scope, parsed.Paths()))
		}
		if batch != nil {
			e.rollback(logger, batch)
		}
		return e.fail(ctx, logger, order, attempt, kind, err, "")
	}
	logger.Info("changes applied", "files", batch.Paths())

	// 6. Тесты
	result := e.tester.Run(ctx, e.testCommand, e.root)
	if e.metrics != nil {
		e.metrics.TestDuration.WithLabelValues(e.worker).Observe(result.Duration.Seconds())
	}

	if !result.Passed {
		e.rollback(logger, batch)
		err := fmt.Errorf("%w: exit code %d", ErrTestsFailed, result.ExitCode)
		outcome := e.fail(ctx, logger, order, attempt, KindTestFailure, err, testFailureDetails(batch.Changes, result))
		outcome.TestOutput = result.Output
		return outcome
	}

	batch.Backups.Clear()
	return e.complete(ctx, logger, order, attempt, batch, resp, parsed.Report, result)
}

// fail — неудача повторяемого вида: на последней попытке заказ блокируется,
// иначе статус не трогается и отчёт не публикуется.
func (e *Executor) fail(ctx context.Context, logger *slog.Logger, order domain.Order, attempt Attempt, kind Kind, err error, details string) Outcome {
	if attempt.Final {
		return e.block(ctx, logger, order, attempt, kind, err, details)
	}
	logger.Warn("attempt failed, will retry", "kind", kind, "error", err)
	return Outcome{Result: ResultRetry, Kind: kind, Err: err}
}

// block переводит заказ в blocked и публикует отчёт.
func (e *Executor) block(ctx context.Context, logger *slog.Logger, order domain.Order, attempt Attempt, kind Kind, err error, details string) Outcome {
	report := blockedReport(e.worker, order, attempt, kind, err, details)

	e.updateStatus(ctx, logger, order.ID, domain.StatusBlocked, report.Title)
	reportID := e.publishReport(ctx, logger, report)

	logger.Warn("order blocked", "kind", kind, "error", err)
	return Outcome{Result: ResultBlocked, Kind: kind, Err: err, ReportID: reportID}
}

func (e *Executor) complete(ctx context.Context, logger *slog.Logger, order domain.Order, attempt Attempt, batch *apply.Batch, resp *llm.Response, modelReport string, result testrun.Result) Outcome {
	report := successReport(e.worker, order, attempt, batch.Changes, resp, modelReport, result)

	e.updateStatus(ctx, logger, order.ID, domain.StatusCompleted, report.Title)
	reportID := e.publishReport(ctx, logger, report)

	logger.Info("order completed", "files", len(batch.Changes))
	return Outcome{Result: ResultSucceeded, Kind: KindNone, Files: batch.Changes, ReportID: reportID}
}

func (e *Executor) rollback(logger *slog.Logger, batch *apply.Batch) {
	if err := batch.Backups.Rollback(); err != nil {
		logger.Error("rollback incomplete", "error", err)
	} else {
		logger.Info("changes rolled back", "files", batch.Paths())
	}
	if e.metrics != nil {
		e.metrics.Rollbacks.WithLabelValues(e.worker).Inc()
	}
}

// updateStatus — fire-and-forget: ошибка источника только логируется.
func (e *Executor) updateStatus(ctx context.Context, logger *slog.Logger, id int64, status domain.WorkflowStatus, message string) {
	err := e.source.UpdateStatus(ctx, id, domain.StatusUpdate{
		WorkflowStatus: status,
		Worker:         e.worker,
		Message:        message,
	})
	if err != nil {
		logger.Warn("failed to update workflow status", "status", status, "error", err)
	}
}

func (e *Executor) publishReport(ctx context.Context, logger *slog.Logger, report source.ReportRequest) int64 {
	published, err := e.source.PublishReport(ctx, e.worker, report)
	if err != nil {
		logger.Warn("failed to publish report", "title", report.Title, "error", err)
		return 0
	}
	return published.ID
}

func (e *Executor) recordUsage(resp *llm.Response) {
	if e.metrics == nil {
		return
	}
	e.metrics.ModelTokens.WithLabelValues(e.worker, resp.Provider, "input").Add(float64(resp.Usage.InputTokens))
	e.metrics.ModelTokens.WithLabelValues(e.worker, resp.Provider, "output").Add(float64(resp.Usage.OutputTokens))
}
