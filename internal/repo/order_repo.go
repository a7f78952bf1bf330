package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

const orderColumns = `id, title, content, worker, workflow_status, status_message,
		       priority, metadata, created_at, updated_at`

// OrderRepo — репозиторий заказов (таблица documents).
type OrderRepo struct {
	pool *pgxpool.Pool
}

// NewOrderRepo создаёт новый OrderRepo.
func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// OrderFilter — параметры фильтрации заказов.
type OrderFilter struct {
	Worker string
	Status domain.WorkflowStatus
	Limit  int
	Offset int
}

// Create создаёт заказ в статусе pending. ID и времена заполняет БД.
func (r *OrderRepo) Create(ctx context.Context, order *domain.Order) error {
	metadataJSON, err := marshalMetadata(order.Metadata)
	if err != nil {
		return err
	}

	order.WorkflowStatus = domain.StatusPending

	query := `
		INSERT INTO documents (title, content, worker, workflow_status, priority, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err = r.pool.QueryRow(ctx, query,
		order.Title,
		order.Content,
		order.Worker,
		order.WorkflowStatus,
		order.Priority,
		metadataJSON,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetByID возвращает заказ по ID.
func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM documents WHERE id = $1`
	return scanOrder(r.pool.QueryRow(ctx, query, id))
}

// ListPending возвращает pending заказы воркера: сначала по приоритету, затем старые.
func (r *OrderRepo) ListPending(ctx context.Context, worker string, limit int) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM documents
		WHERE worker = $1 AND workflow_status = 'pending'
		ORDER BY priority DESC, created_at ASC, id ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, worker, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending documents: %w", err)
	}
	return scanOrders(rows)
}

// List возвращает заказы с фильтрацией, новые первыми.
func (r *OrderRepo) List(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM documents
		WHERE ($1::text IS NULL OR worker = $1)
		  AND ($2::text IS NULL OR workflow_status = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.Worker),
		nullString(string(filter.Status)),
		clampLimit(filter.Limit),
		max(filter.Offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return scanOrders(rows)
}

// UpdateStatus меняет workflow_status заказа.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id int64, update domain.StatusUpdate) error {
	if !update.WorkflowStatus.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, update.WorkflowStatus)
	}

	query := `
		UPDATE documents
		SET workflow_status = $2, status_message = $3, updated_at = now()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, update.WorkflowStatus, nullString(update.Message))
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func scanOrder(row pgx.Row) (*domain.Order, error) {
	order, err := scanOrderFields(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return order, err
}

func scanOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrderFields(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// scanOrderFields сканирует строку в порядке orderColumns.
func scanOrderFields(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	var statusMessage *string
	var metadataJSON []byte

	err := row.Scan(
		&order.ID,
		&order.Title,
		&order.Content,
		&order.Worker,
		&order.WorkflowStatus,
		&statusMessage,
		&order.Priority,
		&metadataJSON,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	if statusMessage != nil {
		order.StatusMessage = *statusMessage
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &order.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &order, nil
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return data, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// clampLimit приводит limit к [1, maxListLimit], 0 — значение по умолчанию.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
