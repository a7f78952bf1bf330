package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Luc4sfdez/Ianae-sub001/internal/telemetry"
)

// DefaultTimeout — таймаут одного вызова провайдера.
const DefaultTimeout = 5 * time.Minute

// Chain опрашивает провайдеров по порядку до первого непустого ответа.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
}

// ChainConfig — конфигурация Chain.
type ChainConfig struct {
	Providers []Provider

	// Timeout на каждый вызов провайдера (default: 5m)
	Timeout time.Duration

	Logger *slog.Logger
}

// NewChain создаёт Chain.
func NewChain(cfg ChainConfig) *Chain {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Chain{
		providers: cfg.Providers,
		timeout:   timeout,
		logger:    logger,
	}
}

// Name возвращает имена провайдеров через "|".
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, "|")
}

// Generate возвращает ответ первого успешного провайдера.
func (c *Chain) Generate(ctx context.Context, req Request) (*Response, error) {
	if len(c.providers) == 0 {
		return nil, ErrNoProviders
	}

	logger := telemetry.FromContext(ctx, c.logger)

	var errs []error
	for _, p := range c.providers {
		resp, err := c.call(ctx, p, req)
		if err == nil {
			return resp, nil
		}

		// Отмена снаружи — дальше не идём
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		logger.Warn("llm provider failed",
			"provider", p.Name(),
			"error", err,
		)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	return nil, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

func (c *Chain) call(ctx context.Context, p Provider, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return nil, ErrEmptyResponse
	}

	if resp.Provider == "" {
		resp.Provider = p.Name()
	}
	if resp.Duration == 0 {
		resp.Duration = time.Since(start)
	}

	telemetry.FromContext(ctx, c.logger).Debug("llm provider responded",
		"provider", resp.Provider,
		"model", resp.Model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"duration", resp.Duration,
	)

	return resp, nil
}
