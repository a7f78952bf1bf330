package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

// OllamaProvider вызывает модель через Ollama.
type OllamaProvider struct {
	name   string
	model  string
	client *ollama.Client
}

// NewOllamaProvider создаёт провайдера. Пустой baseURL — адрес из OLLAMA_HOST.
func NewOllamaProvider(name, baseURL, model string) (*OllamaProvider, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}

	var client *ollama.Client
	if baseURL == "" {
		c, err := ollama.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("could not create ollama client: %w", err)
		}
		client = c
	} else {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("ollama: parse base url: %w", err)
		}
		client = ollama.NewClient(u, http.DefaultClient)
	}

	return &OllamaProvider{
		name:   nameOr(name, "ollama:"+model),
		model:  model,
		client: client,
	}, nil
}

// Name implements Provider.
func (p *OllamaProvider) Name() string { return p.name }

// Generate implements Provider.
func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	messages := make([]ollama.Message, 0, 2)
	if req.System != "" {
		messages = append(messages, ollama.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, ollama.Message{Role: "user", Content: req.Prompt})

	options := map[string]any{}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	stream := false
	chatReq := &ollama.ChatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}

	var (
		text  strings.Builder
		usage Usage
	)
	err := p.client.Chat(ctx, chatReq, func(res ollama.ChatResponse) error {
		text.WriteString(res.Message.Content)
		if res.Done {
			usage.InputTokens = res.PromptEvalCount
			usage.OutputTokens = res.EvalCount
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}

	return &Response{
		Text:     text.String(),
		Provider: p.name,
		Model:    p.model,
		Usage:    usage,
	}, nil
}
