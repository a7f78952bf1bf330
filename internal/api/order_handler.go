package api

import (
	"net/http"
	"strconv"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
	"github.com/Luc4sfdez/Ianae-sub001/internal/mq"
	"github.com/Luc4sfdez/Ianae-sub001/internal/repo"
)

// ListOrders возвращает заказы с фильтрацией.
// GET /api/v1/documents?worker=...&status=...&limit=...&offset=...
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repo.OrderFilter{
		Worker: q.Get("worker"),
		Limit:  parseIntParam(q.Get("limit"), 50),
		Offset: parseIntParam(q.Get("offset"), 0),
	}

	if status := q.Get("status"); status != "" {
		parsed, err := domain.ParseWorkflowStatus(status)
		if err != nil {
			BadRequest(w, err.Error())
			return
		}
		filter.Status = parsed
	}

	orders, err := h.orders.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, ordersFromDomain(orders), len(orders))
}

// ListPending возвращает pending заказы воркера в порядке выполнения.
// GET /api/v1/workers/{worker}/pending?limit=...
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	worker := r.PathValue("worker")
	limit := parseIntParam(r.URL.Query().Get("limit"), 50)

	orders, err := h.orders.ListPending(r.Context(), worker, limit)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, ordersFromDomain(orders), len(orders))
}

// CreateOrder создаёт заказ и будит воркера через order.created.
// POST /api/v1/documents
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !DecodeBody(w, r, &req) {
		return
	}
	if msg := req.Validate(); msg != "" {
		BadRequest(w, msg)
		return
	}

	order := &domain.Order{
		Title:    req.Title,
		Content:  req.Content,
		Worker:   req.Worker,
		Priority: req.Priority,
		Metadata: req.Metadata,
	}

	if err := h.orders.Create(r.Context(), order); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("order created", "order_id", order.ID, "worker", order.Worker)
	h.notifyCreated(r, order)

	Created(w, OrderFromDomain(*order))
}

// GetOrder возвращает заказ по ID.
// GET /api/v1/documents/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "document not found") {
		return
	}

	Success(w, OrderFromDomain(*order))
}

// UpdateOrderStatus меняет workflow_status заказа.
// PUT /api/v1/documents/{id}/workflow-status
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !DecodeBody(w, r, &req) {
		return
	}
	if !req.WorkflowStatus.IsValid() {
		BadRequest(w, "unknown workflow_status "+strconv.Quote(string(req.WorkflowStatus)))
		return
	}

	err := h.orders.UpdateStatus(r.Context(), id, domain.StatusUpdate{
		WorkflowStatus: req.WorkflowStatus,
		Worker:         req.Worker,
		Message:        req.Message,
	})
	if HandleRepoError(w, h.logger, err, "document not found") {
		return
	}

	order, err := h.orders.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "document not found") {
		return
	}

	h.logger.Info("order status updated",
		"order_id", id,
		"workflow_status", req.WorkflowStatus,
		"worker", req.Worker,
	)

	// Возврат в pending (ручной перезапуск) тоже будит воркера.
	if req.WorkflowStatus == domain.StatusPending {
		h.notifyCreated(r, order)
	}

	Success(w, OrderFromDomain(*order))
}

// notifyCreated публикует order.created. Ошибка не ломает запрос:
// воркер всё равно увидит заказ при следующем опросе.
func (h *Handler) notifyCreated(r *http.Request, order *domain.Order) {
	if h.publisher == nil {
		return
	}

	err := h.publisher.PublishOrderCreated(r.Context(), mq.OrderCreatedPayload{
		OrderID: order.ID,
		Worker:  order.Worker,
		Title:   order.Title,
	})
	if err != nil {
		h.logger.Warn("failed to publish order.created", "order_id", order.ID, "error", err)
	}
}

// --- Helpers ---

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(w, "invalid document id")
		return 0, false
	}
	return id, true
}

// parseIntParam парсит query-параметр, при ошибке возвращает defaultVal.
func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}
