package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors.
var (
	ErrAllProvidersFailed = errors.New("all llm providers failed")
	ErrNoProviders        = errors.New("no llm providers configured")
	ErrEmptyResponse      = errors.New("empty llm response")
	ErrUnknownProvider    = errors.New("unknown llm provider type")
)

// Request — запрос к модели.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Usage — расход токенов.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response — ответ модели.
type Response struct {
	Text     string
	Provider string
	Model    string
	Usage    Usage
	Duration time.Duration
}

// Provider генерирует ответ модели.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Provider types.
const (
	TypeOllama  = "ollama"
	TypeOpenAI  = "openai"
	TypeCommand = "command"
)

// ProviderConfig — описание провайдера в конфиге воркера.
type ProviderConfig struct {
	Type    string   `yaml:"type"`
	Name    string   `yaml:"name,omitempty"`
	Model   string   `yaml:"model,omitempty"`
	BaseURL string   `yaml:"base_url,omitempty"`
	APIKey  string   `yaml:"api_key,omitempty"`
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// Build создаёт провайдеров по конфигу, сохраняя порядок.
func Build(cfgs []ProviderConfig) ([]Provider, error) {
	providers := make([]Provider, 0, len(cfgs))
	for i, cfg := range cfgs {
		var (
			p   Provider
			err error
		)
		switch strings.ToLower(cfg.Type) {
		case TypeOllama:
			p, err = NewOllamaProvider(cfg.Name, cfg.BaseURL, cfg.Model)
		case TypeOpenAI:
			p, err = NewOpenAIProvider(cfg.Name, cfg.BaseURL, cfg.APIKey, cfg.Model)
		case TypeCommand:
			p, err = NewCommandProvider(cfg.Name, cfg.Command, cfg.Args...)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("provider %d: %w", i, err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
