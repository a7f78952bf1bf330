package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
	"github.com/Luc4sfdez/Ianae-sub001/internal/llm"
	"github.com/Luc4sfdez/Ianae-sub001/internal/source"
	"github.com/Luc4sfdez/Ianae-sub001/internal/testrun"
)

// fakeSource — источник заказов в памяти.
type fakeSource struct {
	mu       sync.Mutex
	orders   map[int64]*domain.Order
	order    []int64
	updates  []statusCall
	reports  []source.ReportRequest
	getCalls int
}

type statusCall struct {
	ID     int64
	Update domain.StatusUpdate
}

func newFakeSource(orders ...domain.Order) *fakeSource {
	s := &fakeSource{orders: make(map[int64]*domain.Order)}
	for i := range orders {
		o := orders[i]
		if o.WorkflowStatus == "" {
			o.WorkflowStatus = domain.StatusPending
		}
		s.orders[o.ID] = &o
		s.order = append(s.order, o.ID)
	}
	return s
}

func (s *fakeSource) ListPending(_ context.Context, _ string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []domain.Order
	for _, id := range s.order {
		if o := s.orders[id]; o.WorkflowStatus == domain.StatusPending {
			pending = append(pending, *o)
		}
	}
	return pending, nil
}

func (s *fakeSource) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getCalls++
	o, ok := s.orders[id]
	if !ok {
		return nil, source.ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (s *fakeSource) UpdateStatus(_ context.Context, id int64, update domain.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates = append(s.updates, statusCall{ID: id, Update: update})
	if o, ok := s.orders[id]; ok {
		o.WorkflowStatus = update.WorkflowStatus
	}
	return nil
}

func (s *fakeSource) PublishReport(_ context.Context, _ string, req source.ReportRequest) (*domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = append(s.reports, req)
	return &domain.Report{ID: int64(len(s.reports)), Title: req.Title}, nil
}

func (s *fakeSource) status(id int64) domain.WorkflowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id].WorkflowStatus
}

func (s *fakeSource) statusesFor(id int64) []domain.WorkflowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.WorkflowStatus
	for _, u := range s.updates {
		if u.ID == id {
			out = append(out, u.Update.WorkflowStatus)
		}
	}
	return out
}

// fakeProvider отдаёт ответы по очереди; последний повторяется.
type fakeProvider struct {
	replies []string
	err     error
	calls   int
	prompts []llm.Request
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	p.calls++
	p.prompts = append(p.prompts, req)
	if p.err != nil {
		return nil, p.err
	}
	i := min(p.calls-1, len(p.replies)-1)
	return &llm.Response{
		Text:     p.replies[i],
		Provider: "fake",
		Model:    "fake-1",
		Usage:    llm.Usage{InputTokens: 10, OutputTokens: 5},
	}, nil
}

// fakeTester отдаёт результаты по очереди; последний повторяется.
// check вызывается до возврата результата, пока файлы ещё применены.
type fakeTester struct {
	results []bool
	output  string
	calls   int
	check   func()
}

func (t *fakeTester) Run(_ context.Context, _ string, _ string) testrun.Result {
	t.calls++
	if t.check != nil {
		t.check()
	}
	passed := t.results[min(t.calls-1, len(t.results)-1)]
	r := testrun.Result{Passed: passed, Output: t.output}
	if !passed {
		r.ExitCode = 1
	}
	return r
}

func newTestExecutor(t *testing.T, root string, src OrderSource, provider llm.Provider, tester Tester) *Executor {
	t.Helper()
	e, err := NewExecutor(ExecutorConfig{
		Worker:      "core",
		ProjectRoot: root,
		Scope:       []string{"src/core/"},
		TestCommand: "pytest tests/core",
		MaxFiles:    2,
		Source:      src,
		Provider:    provider,
		Tester:      tester,
	})
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	return e
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, root, rel string) (string, bool) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if errors.Is(err, os.ErrNotExist) {
		return "", false
	}
	if err != nil {
		t.Fatal(err)
	}
	return string(data), true
}

const replyNewFile = "### FILE: src/core/cache.py\n```python\nclass Cache:\n    pass\n```\n\n### REPORT\nAdded a cache.\n"
