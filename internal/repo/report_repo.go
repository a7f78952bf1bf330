package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
)

// ReportRepo — репозиторий отчётов воркеров.
type ReportRepo struct {
	pool *pgxpool.Pool
}

// NewReportRepo создаёт новый ReportRepo.
func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Create сохраняет отчёт. ID и created_at заполняет БД.
func (r *ReportRepo) Create(ctx context.Context, report *domain.Report) error {
	tags := report.Tags
	if tags == nil {
		tags = []string{}
	}

	query := `
		INSERT INTO reports (worker, title, content, tags)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		report.Worker,
		report.Title,
		report.Content,
		tags,
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListByWorker возвращает отчёты воркера, новые первыми.
func (r *ReportRepo) ListByWorker(ctx context.Context, worker string, limit int) ([]domain.Report, error) {
	query := `
		SELECT id, worker, title, content, tags, created_at
		FROM reports
		WHERE worker = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, worker, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []domain.Report{}
	for rows.Next() {
		var report domain.Report
		if err := rows.Scan(
			&report.ID,
			&report.Worker,
			&report.Title,
			&report.Content,
			&report.Tags,
			&report.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
