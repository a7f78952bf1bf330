package apply

import (
	"errors"
	"fmt"
	"strings"
)

// Ошибки применения.
var (
	// ErrScopeViolation — путь вне разрешённого scope воркера.
	ErrScopeViolation = errors.New("path outside worker scope")

	// ErrTooManyFiles — в пачке больше файлов, чем разрешено.
	ErrTooManyFiles = errors.New("too many files in batch")
)

// ScopeError — нарушение scope с указанием пути и самого scope.
type ScopeError struct {
	Path  string
	Scope []string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("%s: %s (scope: %s)", ErrScopeViolation, e.Path, strings.Join(e.Scope, ", "))
}

func (e *ScopeError) Unwrap() error {
	return ErrScopeViolation
}
