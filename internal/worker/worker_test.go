package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
	"github.com/Luc4sfdez/Ianae-sub001/internal/mq"
	"github.com/Luc4sfdez/Ianae-sub001/internal/retry"
	"github.com/Luc4sfdez/Ianae-sub001/internal/telemetry"
)

// scriptedExecutor возвращает заранее заданные результаты и запоминает попытки.
type scriptedExecutor struct {
	mu       sync.Mutex
	results  []Result
	kind     Kind
	attempts map[int64][]Attempt
	src      *fakeSource
}

func (e *scriptedExecutor) Execute(ctx context.Context, order domain.Order, attempt Attempt) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.attempts == nil {
		e.attempts = make(map[int64][]Attempt)
	}
	e.attempts[order.ID] = append(e.attempts[order.ID], attempt)

	n := len(e.attempts[order.ID])
	result := e.results[min(n-1, len(e.results)-1)]

	if e.src != nil {
		switch result {
		case ResultSucceeded:
			e.src.UpdateStatus(ctx, order.ID, domain.StatusUpdate{WorkflowStatus: domain.StatusCompleted})
		case ResultBlocked:
			e.src.UpdateStatus(ctx, order.ID, domain.StatusUpdate{WorkflowStatus: domain.StatusBlocked})
		}
	}

	kind := e.kind
	if result == ResultSucceeded {
		kind = KindNone
	}
	return Outcome{Result: result, Kind: kind, TestOutput: "out"}
}

func (e *scriptedExecutor) attemptsFor(id int64) []Attempt {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempts[id]
}

type fakePublisher struct {
	mu     sync.Mutex
	events []mq.OrderResolvedPayload
}

func (p *fakePublisher) PublishOrderResolved(_ context.Context, payload mq.OrderResolvedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, payload)
	return nil
}

func newTestWorker(src *fakeSource, exec OrderExecutor, pub EventPublisher, metrics *telemetry.WorkerMetrics) *Worker {
	cfg := Config{
		Name:     "core",
		Source:   src,
		Executor: exec,
		Retry:    retry.New(2, 0),
		Metrics:  metrics,
	}
	if pub != nil {
		cfg.Publisher = pub
	}
	return New(cfg)
}

func TestRunOnce_RetriesSameOrderUntilSuccess(t *testing.T) {
	src := newFakeSource(domain.Order{ID: 1, Title: "First"}, domain.Order{ID: 2, Title: "Second"})
	exec := &scriptedExecutor{results: []Result{ResultRetry, ResultRetry, ResultSucceeded}, kind: KindTestFailure, src: src}
	pub := &fakePublisher{}
	w := newTestWorker(src, exec, pub, nil)

	picked, err := w.RunOnce(context.Background())
	if err != nil || !picked {
		t.Fatalf("RunOnce: picked=%v err=%v", picked, err)
	}

	attempts := exec.attemptsFor(1)
	if len(attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(attempts))
	}
	for i, a := range attempts {
		if a.Number != i+1 {
			t.Errorf("attempt %d has number %d", i, a.Number)
		}
		if a.Final != (i == 2) {
			t.Errorf("attempt %d: final=%v", a.Number, a.Final)
		}
		if a.ID == "" {
			t.Error("attempt id should be set")
		}
	}
	if attempts[1].PreviousFailure != "out" {
		t.Error("retry should carry previous test output")
	}
	if src.getCalls != 3 {
		t.Errorf("document should be refreshed before every attempt, got %d fetches", src.getCalls)
	}

	if len(exec.attemptsFor(2)) != 0 {
		t.Error("at most one order advances per poll cycle")
	}
	if !w.Processed(1) {
		t.Error("completed order must be processed")
	}
	if len(pub.events) != 1 || pub.events[0].Status != "completed" || pub.events[0].Attempts != 3 {
		t.Errorf("unexpected events %+v", pub.events)
	}
}

func TestRunOnce_ExhaustedOrderIsNeverReselected(t *testing.T) {
	src := newFakeSource(domain.Order{ID: 1, Title: "Orden #1: Fix parser"})
	exec := &scriptedExecutor{results: []Result{ResultRetry, ResultRetry, ResultBlocked}, kind: KindTestFailure, src: src}
	w := newTestWorker(src, exec, nil, nil)

	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(exec.attemptsFor(1)) != 3 {
		t.Fatalf("expected max_retries+1 attempts, got %d", len(exec.attemptsFor(1)))
	}

	// Источник «забыл» статус: заказ снова pending, но процесс его не трогает.
	src.UpdateStatus(context.Background(), 1, domain.StatusUpdate{WorkflowStatus: domain.StatusPending})

	picked, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if picked {
		t.Error("processed order must never be reselected")
	}
	if len(exec.attemptsFor(1)) != 3 {
		t.Error("no further attempts expected")
	}
}

func TestRunOnce_DuplicateTitleBlockedWithoutExecution(t *testing.T) {
	src := newFakeSource(domain.Order{ID: 10, Title: "Orden #10: Add retry to HTTP client"})
	exec := &scriptedExecutor{results: []Result{ResultSucceeded}, src: src}
	w := newTestWorker(src, exec, nil, nil)

	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	src.mu.Lock()
	dup := &domain.Order{ID: 11, Title: "ORDEN-CORE-11: add retry to http client", WorkflowStatus: domain.StatusPending}
	src.orders[11] = dup
	src.order = append(src.order, 11)
	src.mu.Unlock()

	picked, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if picked {
		t.Error("duplicate must not be picked")
	}
	if len(exec.attemptsFor(11)) != 0 {
		t.Error("duplicate must never reach the executor")
	}
	if src.status(11) != domain.StatusBlocked {
		t.Errorf("duplicate should be blocked, got %s", src.status(11))
	}
	if !w.Processed(11) {
		t.Error("duplicate should be processed")
	}
}

func TestRunOnce_ScopeBlockedTitleNotRemembered(t *testing.T) {
	src := newFakeSource(domain.Order{ID: 1, Title: "Touch other module"})
	exec := &scriptedExecutor{results: []Result{ResultBlocked}, kind: KindScopeViolation, src: src}
	w := newTestWorker(src, exec, nil, nil)

	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(exec.attemptsFor(1)) != 1 {
		t.Fatalf("scope violation must not be retried, got %d attempts", len(exec.attemptsFor(1)))
	}
	if w.titles.IsDuplicate("Touch other module") {
		t.Error("only success or retry exhaustion records the title")
	}
}

func TestRunOnce_MinOrderID(t *testing.T) {
	src := newFakeSource(domain.Order{ID: 5, Title: "Old"}, domain.Order{ID: 50, Title: "New"})
	exec := &scriptedExecutor{results: []Result{ResultSucceeded}, src: src}

	w := New(Config{Name: "core", Source: src, Executor: exec, Retry: retry.New(2, 0), MinOrderID: 10})

	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(exec.attemptsFor(5)) != 0 {
		t.Error("orders below the minimum id must be skipped")
	}
	if len(exec.attemptsFor(50)) != 1 {
		t.Error("order above the minimum id should run")
	}
}

func TestRunOnce_OrderGoneBeforeAttempt(t *testing.T) {
	src := newFakeSource(domain.Order{ID: 3, Title: "Cancelled meanwhile"})
	exec := &scriptedExecutor{results: []Result{ResultSucceeded}}
	w := newTestWorker(src, exec, nil, nil)

	// Листинг ещё показывает pending, а документ уже отменён.
	orders, _ := src.ListPending(context.Background(), "core")
	src.UpdateStatus(context.Background(), 3, domain.StatusUpdate{WorkflowStatus: domain.StatusCancelled})

	if err := w.process(context.Background(), orders[0]); err != nil {
		t.Fatal(err)
	}
	if len(exec.attemptsFor(3)) != 0 {
		t.Error("cancelled order must not be executed")
	}
	if !w.Processed(3) {
		t.Error("cancelled order should be processed")
	}
}

func TestRunOnce_CancelledDuringRetryDelay(t *testing.T) {
	src := newFakeSource(domain.Order{ID: 1, Title: "Slow"})
	exec := &scriptedExecutor{results: []Result{ResultRetry}, kind: KindTestFailure}
	w := New(Config{Name: "core", Source: src, Executor: exec, Retry: retry.New(2, time.Hour)})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := w.RunOnce(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(exec.attemptsFor(1)) != 1 {
		t.Errorf("expected one attempt before cancellation, got %d", len(exec.attemptsFor(1)))
	}
	if w.Processed(1) {
		t.Error("interrupted order is not terminal")
	}
}

func TestRunOnce_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewWorkerMetrics(reg)

	src := newFakeSource(domain.Order{ID: 1, Title: "A"}, domain.Order{ID: 2, Title: "A"})
	exec := &scriptedExecutor{results: []Result{ResultSucceeded}, src: src}
	w := newTestWorker(src, exec, nil, metrics)

	w.RunOnce(context.Background())
	w.RunOnce(context.Background())

	if got := testutil.ToFloat64(metrics.Orders.WithLabelValues("core", "completed")); got != 1 {
		t.Errorf("completed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.Orders.WithLabelValues("core", "duplicate")); got != 1 {
		t.Errorf("duplicate = %v, want 1", got)
	}
}

func TestStart_PollsAndWakes(t *testing.T) {
	src := newFakeSource(domain.Order{ID: 1, Title: "A"})
	exec := &scriptedExecutor{results: []Result{ResultSucceeded}, src: src}
	w := New(Config{Name: "core", Source: src, Executor: exec, Retry: retry.New(0, 0), PollInterval: time.Hour})

	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	waitFor(t, func() bool { return len(exec.attemptsFor(1)) == 1 })

	src.mu.Lock()
	src.orders[2] = &domain.Order{ID: 2, Title: "B", WorkflowStatus: domain.StatusPending}
	src.order = append(src.order, 2)
	src.mu.Unlock()

	msg := mq.NewMessage(mq.MessageTypeOrderCreated, mq.OrderCreatedPayload{OrderID: 2, Worker: "core"})
	if err := w.handleOrderCreated(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return len(exec.attemptsFor(2)) == 1 })
}

func TestHandleOrderCreated_OtherWorkerIgnored(t *testing.T) {
	w := New(Config{Name: "core"})

	msg := mq.NewMessage(mq.MessageTypeOrderCreated, mq.OrderCreatedPayload{OrderID: 2, Worker: "ui"})
	if err := w.handleOrderCreated(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.wake:
		t.Error("message for another worker must not wake")
	default:
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
