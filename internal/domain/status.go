package domain

import "fmt"

// WorkflowStatus — статус заказа (order) в источнике заказов.
//
// Жизненный цикл:
//
//	pending → in_progress → completed
//	                      ↘ blocked
//	(или) → cancelled (выставляется только извне)
//
// Исполнитель только запрашивает переходы, сам статус принадлежит источнику.
type WorkflowStatus string

const (
	// StatusPending — заказ ожидает воркера.
	StatusPending WorkflowStatus = "pending"

	// StatusInProgress — воркер взял заказ в работу.
	StatusInProgress WorkflowStatus = "in_progress"

	// StatusCompleted — изменения применены и тесты прошли.
	StatusCompleted WorkflowStatus = "completed"

	// StatusBlocked — заказ не может быть выполнен без вмешательства человека.
	StatusBlocked WorkflowStatus = "blocked"

	// StatusCancelled — заказ отменён.
	StatusCancelled WorkflowStatus = "cancelled"
)

// IsTerminal возвращает true, если статус финальный.
func (s WorkflowStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusBlocked, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsValid проверяет, что статус входит в известный набор.
func (s WorkflowStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusBlocked, StatusCancelled:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление WorkflowStatus.
func (s WorkflowStatus) String() string {
	return string(s)
}

// ParseWorkflowStatus парсит строку в WorkflowStatus.
func ParseWorkflowStatus(s string) (WorkflowStatus, error) {
	status := WorkflowStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown workflow status %q", s)
	}
	return status, nil
}
