// Package retry считает попытки выполнения ордеров.
//
// Попытка для ордера равна числу предыдущих попыток плюс один. Ордер
// получает не больше MaxRetries+1 попыток за время жизни процесса;
// счётчики сбрасываются только рестартом.
package retry

import (
	"context"
	"time"
)

// Default configuration values.
const (
	DefaultMaxRetries = 2
	DefaultDelay      = 30 * time.Second
)

// Controller — счётчик попыток по id ордера.
type Controller struct {
	maxRetries int
	delay      time.Duration
	attempts   map[int64]int
}

// New создаёт Controller. Отрицательный maxRetries означает 0.
func New(maxRetries int, delay time.Duration) *Controller {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if delay < 0 {
		delay = 0
	}
	return &Controller{
		maxRetries: maxRetries,
		delay:      delay,
		attempts:   make(map[int64]int),
	}
}

// Begin регистрирует новую попытку и возвращает её номер (с 1).
func (c *Controller) Begin(orderID int64) int {
	c.attempts[orderID]++
	return c.attempts[orderID]
}

// Attempts возвращает число начатых попыток.
func (c *Controller) Attempts(orderID int64) int {
	return c.attempts[orderID]
}

// MaxAttempts — сколько всего попыток получает ордер.
func (c *Controller) MaxAttempts() int {
	return c.maxRetries + 1
}

// IsFinal сообщает, последняя ли это разрешённая попытка.
func (c *Controller) IsFinal(attempt int) bool {
	return attempt >= c.MaxAttempts()
}

// IsExhausted сообщает, что попытка выходит за лимит и выполнять её нельзя.
func (c *Controller) IsExhausted(attempt int) bool {
	return attempt > c.MaxAttempts()
}

// Delay возвращает паузу между попытками.
func (c *Controller) Delay() time.Duration {
	return c.delay
}

// Wait ждёт паузу между попытками или отмену ctx.
func (c *Controller) Wait(ctx context.Context) error {
	if c.delay == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(c.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
