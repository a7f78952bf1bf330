package api

import (
	"net/http"
	"strings"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
)

// CreateReport сохраняет отчёт воркера.
// POST /api/v1/workers/{worker}/reports
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if !DecodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		BadRequest(w, "title is required")
		return
	}

	report := &domain.Report{
		Worker:  r.PathValue("worker"),
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	}

	if err := h.reports.Create(r.Context(), report); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, ReportFromDomain(*report))
}

// ListReports возвращает отчёты воркера, новые первыми.
// GET /api/v1/workers/{worker}/reports?limit=...
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r.URL.Query().Get("limit"), 20)

	reports, err := h.reports.ListByWorker(r.Context(), r.PathValue("worker"), limit)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ReportResponse, len(reports))
	for i, report := range reports {
		result[i] = ReportFromDomain(report)
	}

	List(w, result, len(result))
}
