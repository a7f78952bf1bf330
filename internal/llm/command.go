package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandProvider запускает внешний CLI-агент: prompt на stdin, ответ из stdout.
type CommandProvider struct {
	name    string
	command string
	args    []string
}

// NewCommandProvider создаёт провайдера.
func NewCommandProvider(name, command string, args ...string) (*CommandProvider, error) {
	if command == "" {
		return nil, fmt.Errorf("command provider: command is required")
	}
	return &CommandProvider{
		name:    nameOr(name, "command:"+command),
		command: command,
		args:    args,
	}, nil
}

// Name implements Provider.
func (p *CommandProvider) Name() string { return p.name }

// Generate implements Provider.
func (p *CommandProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	input := req.Prompt
	if req.System != "" {
		input = req.System + "\n\n" + req.Prompt
	}

	cmd := exec.CommandContext(ctx, p.command, p.args...)
	cmd.Stdin = strings.NewReader(input)
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s exited with code %d: %s", p.command, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("run %s: %w", p.command, err)
	}

	return &Response{
		Text:     stdout.String(),
		Provider: p.name,
		Model:    p.command,
	}, nil
}
