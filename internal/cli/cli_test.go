package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luc4sfdez/Ianae-sub001/internal/source"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *recorder) all() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.requests...)
}

// newFakeAPI отвечает фиксированными envelope'ами и записывает запросы.
func newFakeAPI(t *testing.T, rec *recorder) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	record := func(r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.requests = append(rec.requests, recordedRequest{Method: r.Method, Path: r.URL.RequestURI(), Body: string(body)})
	}

	mux.HandleFunc("GET /api/v1/workers/{worker}/pending", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		io.WriteString(w, `{"data":[{"id":3,"title":"Orden #3: Add cache","workflow_status":"pending","priority":2}],"total":1}`)
	})
	mux.HandleFunc("GET /api/v1/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		if r.PathValue("id") != "3" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"code":"NOT_FOUND","message":"document not found"}}`)
			return
		}
		io.WriteString(w, `{"data":{"id":3,"title":"Orden #3: Add cache","content":"Create src/core/cache.py","workflow_status":"blocked","status_message":"tests fallidos"}}`)
	})
	mux.HandleFunc("POST /api/v1/documents", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data":{"id":9,"title":"New","workflow_status":"pending"}}`)
	})
	mux.HandleFunc("PUT /api/v1/documents/{id}/workflow-status", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		io.WriteString(w, `{"data":{"id":3,"workflow_status":"pending"}}`)
	})
	mux.HandleFunc("GET /api/v1/workers/{worker}/reports", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		io.WriteString(w, `{"data":[{"id":1,"title":"Orden #3 completada: Add cache","tags":["worker-report","core"]}],"total":1}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func runCLI(t *testing.T, server *httptest.Server, jsonMode bool, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	clientFn := func() *source.Client { return source.NewClient(server.URL) }
	outputFn := func() *Output { return NewOutputTo(&stdout, &stderr, jsonMode) }

	root := &cobra.Command{Use: "ianae", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(NewOrdersCmd(clientFn, outputFn), NewReportsCmd(clientFn, outputFn))
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestOrdersList(t *testing.T) {
	rec := &recorder{}
	server := newFakeAPI(t, rec)

	stdout, _, err := runCLI(t, server, false, "orders", "list", "core")
	require.NoError(t, err)

	assert.Contains(t, stdout, "ID")
	assert.Contains(t, stdout, "Orden #3: Add cache")
	assert.Contains(t, stdout, "pending")
	requests := rec.all()
	require.Len(t, requests, 1)
	assert.Equal(t, "/api/v1/workers/core/pending", requests[0].Path)
}

func TestOrdersList_JSON(t *testing.T) {
	rec := &recorder{}
	server := newFakeAPI(t, rec)

	stdout, _, err := runCLI(t, server, true, "orders", "list", "core")
	require.NoError(t, err)

	var orders []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &orders))
	require.Len(t, orders, 1)
	assert.EqualValues(t, 3, orders[0]["id"])
}

func TestOrdersShow(t *testing.T) {
	rec := &recorder{}
	server := newFakeAPI(t, rec)

	stdout, _, err := runCLI(t, server, false, "orders", "show", "3")
	require.NoError(t, err)
	assert.Contains(t, stdout, "blocked")
	assert.Contains(t, stdout, "Status message: tests fallidos")
	assert.Contains(t, stdout, "Create src/core/cache.py")

	_, _, err = runCLI(t, server, false, "orders", "show", "4")
	assert.ErrorIs(t, err, source.ErrNotFound)

	_, _, err = runCLI(t, server, false, "orders", "show", "abc")
	assert.ErrorContains(t, err, "invalid order id")
}

func TestOrdersCreate(t *testing.T) {
	rec := &recorder{}
	server := newFakeAPI(t, rec)

	_, stderr, err := runCLI(t, server, false, "orders", "create", "core", "--title", "New", "--content", "Do it", "--priority", "3")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Order created: 9")

	requests := rec.all()
	require.Len(t, requests, 1)
	var body source.CreateOrderRequest
	require.NoError(t, json.Unmarshal([]byte(requests[0].Body), &body))
	assert.Equal(t, source.CreateOrderRequest{Title: "New", Content: "Do it", Worker: "core", Priority: 3}, body)
}

func TestOrdersCreate_RequiresTitle(t *testing.T) {
	rec := &recorder{}
	server := newFakeAPI(t, rec)

	_, _, err := runCLI(t, server, false, "orders", "create", "core")
	require.Error(t, err)
	assert.Empty(t, rec.all())
}

func TestOrdersStatus(t *testing.T) {
	rec := &recorder{}
	server := newFakeAPI(t, rec)

	_, stderr, err := runCLI(t, server, false, "orders", "status", "3", "pending", "-m", "retry by hand")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Order 3 is now pending")

	requests := rec.all()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPut, requests[0].Method)
	assert.Contains(t, requests[0].Body, `"workflow_status":"pending"`)
	assert.Contains(t, requests[0].Body, `"message":"retry by hand"`)

	_, _, err = runCLI(t, server, false, "orders", "status", "3", "done")
	assert.ErrorContains(t, err, "unknown workflow status")
	assert.Len(t, rec.all(), 1)
}

func TestReportsList(t *testing.T) {
	rec := &recorder{}
	server := newFakeAPI(t, rec)

	stdout, _, err := runCLI(t, server, false, "reports", "list", "core", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Orden #3 completada")
	assert.Contains(t, stdout, "worker-report,core")
	requests := rec.all()
	require.Len(t, requests, 1)
	assert.Equal(t, "/api/v1/workers/core/reports?limit=5", requests[0].Path)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ñandú…", truncate("ñandúes", 6))
	assert.True(t, strings.HasSuffix(truncate(strings.Repeat("a", 100), 60), "…"))
}
