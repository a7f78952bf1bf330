package api

import (
	"strings"
	"time"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
)

// Order DTOs

// CreateOrderRequest — запрос на создание заказа.
type CreateOrderRequest struct {
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Worker   string         `json:"worker"`
	Priority int            `json:"priority,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Validate возвращает текст ошибки или "".
func (r CreateOrderRequest) Validate() string {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return "title is required"
	case strings.TrimSpace(r.Worker) == "":
		return "worker is required"
	default:
		return ""
	}
}

// UpdateStatusRequest — запрос на смену workflow_status.
type UpdateStatusRequest struct {
	WorkflowStatus domain.WorkflowStatus `json:"workflow_status"`
	Worker         string                `json:"worker"`
	Message        string                `json:"message,omitempty"`
}

// OrderResponse — ответ с заказом.
type OrderResponse struct {
	ID             int64                 `json:"id"`
	Title          string                `json:"title"`
	Content        string                `json:"content"`
	WorkflowStatus domain.WorkflowStatus `json:"workflow_status"`
	Worker         string                `json:"worker"`
	Priority       int                   `json:"priority"`
	StatusMessage  string                `json:"status_message,omitempty"`
	Metadata       map[string]any        `json:"metadata,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// OrderFromDomain конвертирует domain.Order в OrderResponse.
func OrderFromDomain(o domain.Order) OrderResponse {
	return OrderResponse{
		ID:             o.ID,
		Title:          o.Title,
		Content:        o.Content,
		WorkflowStatus: o.WorkflowStatus,
		Worker:         o.Worker,
		Priority:       o.Priority,
		StatusMessage:  o.StatusMessage,
		Metadata:       o.Metadata,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func ordersFromDomain(orders []domain.Order) []OrderResponse {
	result := make([]OrderResponse, len(orders))
	for i, o := range orders {
		result[i] = OrderFromDomain(o)
	}
	return result
}

// Report DTOs

// CreateReportRequest — запрос на публикацию отчёта.
type CreateReportRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// ReportResponse — ответ с отчётом.
type ReportResponse struct {
	ID        int64     `json:"id"`
	Worker    string    `json:"worker"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportFromDomain конвертирует domain.Report в ReportResponse.
func ReportFromDomain(r domain.Report) ReportResponse {
	return ReportResponse{
		ID:        r.ID,
		Worker:    r.Worker,
		Title:     r.Title,
		Content:   r.Content,
		Tags:      r.Tags,
		CreatedAt: r.CreatedAt,
	}
}
