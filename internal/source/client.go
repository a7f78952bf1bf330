// Package source — HTTP-клиент источника заказов.
//
// Используется воркером (pending, document, workflow-status, reports)
// и операторским CLI.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
)

// ErrNotFound — документ не найден.
var ErrNotFound = errors.New("not found")

// APIError — ошибка из envelope {"error": {...}}.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap позволяет errors.Is(err, ErrNotFound) для 404.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// --- Request types ---

// CreateOrderRequest — создание заказа.
type CreateOrderRequest struct {
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Worker   string         `json:"worker"`
	Priority int            `json:"priority,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ReportRequest — публикация отчёта воркера.
type ReportRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для API источника заказов.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL возвращает адрес API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// --- Orders ---

// ListPending возвращает pending заказы воркера в порядке источника.
func (c *Client) ListPending(ctx context.Context, worker string) ([]domain.Order, error) {
	var orders []domain.Order
	err := c.list(ctx, "/api/v1/workers/"+url.PathEscape(worker)+"/pending", nil, &orders)
	return orders, err
}

// GetOrder возвращает полный документ заказа.
func (c *Client) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	if err := c.get(ctx, "/api/v1/documents/"+strconv.FormatInt(id, 10), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder создаёт заказ.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	var order domain.Order
	if err := c.post(ctx, "/api/v1/documents", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus запрашивает смену статуса заказа.
func (c *Client) UpdateStatus(ctx context.Context, id int64, update domain.StatusUpdate) error {
	return c.put(ctx, "/api/v1/documents/"+strconv.FormatInt(id, 10)+"/workflow-status", update, nil)
}

// --- Reports ---

// PublishReport публикует отчёт воркера.
func (c *Client) PublishReport(ctx context.Context, worker string, req ReportRequest) (*domain.Report, error) {
	var report domain.Report
	if err := c.post(ctx, "/api/v1/workers/"+url.PathEscape(worker)+"/reports", req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListReports возвращает отчёты воркера, новые первыми.
func (c *Client) ListReports(ctx context.Context, worker string, limit int) ([]domain.Report, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var reports []domain.Report
	err := c.list(ctx, "/api/v1/workers/"+url.PathEscape(worker)+"/reports", params, &reports)
	return reports, err
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doData(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.doData(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body any, result any) error {
	return c.doData(ctx, http.MethodPut, path, body, result)
}

func (c *Client) list(ctx context.Context, path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(lr.Data) == 0 {
		return nil
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil && len(dr.Data) > 0 {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return &APIError{Status: resp.StatusCode}
	}

	return &APIError{
		Status:  resp.StatusCode,
		Code:    er.Error.Code,
		Message: er.Error.Message,
	}
}
