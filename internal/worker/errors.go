package worker

import (
	"errors"

	"github.com/Luc4sfdez/Ianae-sub001/internal/apply"
)

// Ошибки воркера.
var (
	// ErrEmptyGeneration — в ответе модели нет ни одного блока "### FILE:".
	ErrEmptyGeneration = errors.New("model produced no file blocks")

	// ErrTestsFailed — тестовая команда не прошла после применения изменений.
	ErrTestsFailed = errors.New("tests failed")

	// ErrOrderGone — заказ исчез из источника или больше не ожидает исполнения.
	ErrOrderGone = errors.New("order is no longer pending")
)

// Kind — вид результата попытки.
type Kind int

const (
	KindNone Kind = iota
	KindScopeViolation
	KindTooManyFiles
	KindEmptyGeneration
	KindProviderFailure
	KindTestFailure
	KindIO
)

var kindNames = map[Kind]string{
	KindNone:            "none",
	KindScopeViolation:  "scope_violation",
	KindTooManyFiles:    "too_many_files",
	KindEmptyGeneration: "empty_generation",
	KindProviderFailure: "provider_failure",
	KindTestFailure:     "test_failure",
	KindIO:              "io",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Retryable сообщает, может ли повтор дать другой результат.
// Нарушения scope и лимита файлов детерминированы и не повторяются.
func (k Kind) Retryable() bool {
	switch k {
	case KindScopeViolation, KindTooManyFiles:
		return false
	default:
		return true
	}
}

// kindOf классифицирует ошибку применения пачки.
func kindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, apply.ErrScopeViolation):
		return KindScopeViolation
	case errors.Is(err, apply.ErrTooManyFiles):
		return KindTooManyFiles
	default:
		return KindIO
	}
}

// Result — итог попытки для poll loop.
type Result int

const (
	// ResultSucceeded — изменения применены, тесты прошли, заказ completed.
	ResultSucceeded Result = iota

	// ResultRetry — попытка не удалась, статус заказа не тронут, можно повторить.
	ResultRetry

	// ResultBlocked — заказ переведён в blocked, отчёт опубликован.
	ResultBlocked
)

func (r Result) String() string {
	switch r {
	case ResultSucceeded:
		return "succeeded"
	case ResultRetry:
		return "retry"
	case ResultBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Outcome — результат одной попытки.
type Outcome struct {
	Result Result
	Kind   Kind
	Err    error

	// Files — применённые файлы (только для ResultSucceeded).
	Files []apply.Change

	// TestOutput — вывод тестов упавшей попытки, для промпта следующей.
	TestOutput string

	// ReportID — id опубликованного отчёта, если он был.
	ReportID int64
}
