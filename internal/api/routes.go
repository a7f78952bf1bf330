package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Metrics(h.metrics),
		Logging(h.logger),
	)

	// Orders
	mux.Handle("GET /api/v1/documents", chain(http.HandlerFunc(h.ListOrders)))
	mux.Handle("POST /api/v1/documents", chain(http.HandlerFunc(h.CreateOrder)))
	mux.Handle("GET /api/v1/documents/{id}", chain(http.HandlerFunc(h.GetOrder)))
	mux.Handle("PUT /api/v1/documents/{id}/workflow-status", chain(http.HandlerFunc(h.UpdateOrderStatus)))
	mux.Handle("GET /api/v1/workers/{worker}/pending", chain(http.HandlerFunc(h.ListPending)))

	// Reports
	mux.Handle("GET /api/v1/workers/{worker}/reports", chain(http.HandlerFunc(h.ListReports)))
	mux.Handle("POST /api/v1/workers/{worker}/reports", chain(http.HandlerFunc(h.CreateReport)))
}
