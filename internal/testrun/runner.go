// Package testrun запускает тестовую команду воркера и сообщает, прошли ли тесты.
//
// Таймаут или невозможность запустить команду не ошибка для вызывающего:
// это Passed=false с синтетическим сообщением в Output.
package testrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

const (
	// DefaultTimeout — таймаут тестов по умолчанию.
	DefaultTimeout = 120 * time.Second

	// waitDelay — сколько ждать закрытия pipe после убийства процесса.
	waitDelay = 5 * time.Second
)

// Result — результат прогона тестов.
type Result struct {
	Passed bool

	// Output — объединённые stdout и stderr.
	Output string

	// ExitCode — код выхода (-1, если процесс не завершился сам).
	ExitCode int

	TimedOut bool
	Duration time.Duration
}

// Runner запускает тестовые команды через shell.
type Runner struct {
	// Timeout — жёсткий таймаут на одну команду (default: 120s).
	Timeout time.Duration
}

// Run выполняет command в dir.
func (r *Runner) Run(ctx context.Context, command, dir string) Result {
	start := time.Now()

	if strings.TrimSpace(command) == "" {
		return Result{ExitCode: -1, Output: "ERROR: empty test command"}
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := shellCommand(ctx, command)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	result := Result{
		Output:   out.String(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.Output = fmt.Sprintf("TIMEOUT: test command exceeded %s\n%s", timeout, result.Output)
		return result
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			result.Output = fmt.Sprintf("ERROR: could not run test command: %v\n%s", err, result.Output)
		}
		return result
	}

	result.Passed = true
	return result
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

// Tail возвращает последние max байт вывода, начиная с границы строки, если она есть.
func Tail(output string, max int) string {
	if max <= 0 || len(output) <= max {
		return output
	}
	tail := output[len(output)-max:]
	if i := strings.IndexByte(tail, '\n'); i >= 0 && i < len(tail)-1 {
		tail = tail[i+1:]
	}
	return "...\n" + tail
}
