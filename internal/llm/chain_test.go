package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name  string
	text  string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Text: f.text, Model: "fake"}, nil
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &fakeProvider{name: "a", text: "reply a"}
	second := &fakeProvider{name: "b", text: "reply b"}

	chain := NewChain(ChainConfig{Providers: []Provider{first, second}})
	resp, err := chain.Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, "reply a", resp.Text)
	assert.Equal(t, "a", resp.Provider)
	assert.Equal(t, 0, second.calls)
}

func TestChain_FallsBack(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: errors.New("connection refused")}
	empty := &fakeProvider{name: "empty", text: "   "}
	good := &fakeProvider{name: "good", text: "### FILE: a.py"}

	chain := NewChain(ChainConfig{Providers: []Provider{broken, empty, good}})
	resp, err := chain.Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, "good", resp.Provider)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, empty.calls)
}

func TestChain_AllFailed(t *testing.T) {
	chain := NewChain(ChainConfig{Providers: []Provider{
		&fakeProvider{name: "a", err: errors.New("boom")},
		&fakeProvider{name: "b", text: ""},
	}})

	_, err := chain.Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Contains(t, err.Error(), "a: boom")
}

func TestChain_NoProviders(t *testing.T) {
	_, err := NewChain(ChainConfig{}).Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestChain_PerCallTimeout(t *testing.T) {
	slow := &fakeProvider{name: "slow", text: "late", delay: time.Second}
	fast := &fakeProvider{name: "fast", text: "ok"}

	chain := NewChain(ChainConfig{
		Providers: []Provider{slow, fast},
		Timeout:   20 * time.Millisecond,
	})

	resp, err := chain.Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "fast", resp.Provider)
}

func TestChain_ParentCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	second := &fakeProvider{name: "b", text: "ok"}
	chain := NewChain(ChainConfig{Providers: []Provider{
		&fakeProvider{name: "a", text: "x", delay: time.Second},
		second,
	}})

	_, err := chain.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, second.calls)
}

func TestChain_Name(t *testing.T) {
	chain := NewChain(ChainConfig{Providers: []Provider{
		&fakeProvider{name: "ollama:qwen"},
		&fakeProvider{name: "openai:gpt"},
	}})
	assert.Equal(t, "ollama:qwen|openai:gpt", chain.Name())
}

func TestBuild(t *testing.T) {
	providers, err := Build([]ProviderConfig{
		{Type: "ollama", BaseURL: "http://localhost:11434", Model: "qwen2.5-coder"},
		{Type: "OpenAI", Name: "groq", BaseURL: "https://api.groq.com/openai/v1", Model: "llama"},
		{Type: "command", Command: "claude", Args: []string{"-p"}},
	})
	require.NoError(t, err)
	require.Len(t, providers, 3)

	assert.Equal(t, "ollama:qwen2.5-coder", providers[0].Name())
	assert.Equal(t, "groq", providers[1].Name())
	assert.Equal(t, "command:claude", providers[2].Name())

	_, err = Build([]ProviderConfig{{Type: "gemini"}})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = Build([]ProviderConfig{{Type: "openai", BaseURL: "http://x"}})
	assert.Error(t, err, "model is required")
}
