// Package config загружает конфигурацию воркера.
//
// Порядок слоёв: значения по умолчанию → YAML-файл → переменные окружения.
// Флаги командной строки накладываются поверх в cmd/ianae-worker.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Luc4sfdez/Ianae-sub001/internal/llm"
)

// Errors.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrUnknownWorker = errors.New("unknown worker")
)

// Default configuration values.
const (
	DefaultSourceURL     = "http://localhost:8080"
	DefaultMaxFiles      = 5
	DefaultMaxRetries    = 2
	DefaultRetryDelay    = 30 * time.Second
	DefaultPollInterval  = 60 * time.Second
	DefaultMaxTokens     = 8192
	DefaultTestTimeout   = 120 * time.Second
	DefaultModelTimeout  = 5 * time.Minute
	DefaultContextBudget = 60000
	DefaultHTTPAddr      = ":8082"
	DefaultOllamaModel   = "qwen2.5-coder:7b"
)

// WorkerConfig — scope и тестовая команда одного воркера.
type WorkerConfig struct {
	Scope       []string `yaml:"scope"`
	TestCommand string   `yaml:"test_command"`
}

// PromptConfig — переопределение шаблонов промптов (text/template).
type PromptConfig struct {
	System string `yaml:"system,omitempty"`
	User   string `yaml:"user,omitempty"`
}

// Config — конфигурация воркера.
type Config struct {
	SourceURL   string `yaml:"source_url"`
	ProjectRoot string `yaml:"project_root"`

	MaxFiles      int `yaml:"max_files"`
	MaxRetries    int `yaml:"max_retries"`
	MaxTokens     int `yaml:"max_tokens"`
	ContextBudget int `yaml:"context_budget"`

	RetryDelay   time.Duration `yaml:"retry_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
	TestTimeout  time.Duration `yaml:"test_timeout"`
	ModelTimeout time.Duration `yaml:"model_timeout"`

	// BlockOnProviderFailure — блокировать заказ сразу при отказе всех провайдеров
	// вместо повторной попытки.
	BlockOnProviderFailure bool `yaml:"block_on_provider_failure"`

	// RabbitMQURL — пустой означает режим только polling.
	RabbitMQURL string `yaml:"rabbitmq_url"`

	// HTTPAddr — адрес /healthz и /metrics.
	HTTPAddr string `yaml:"http_addr"`

	Providers []llm.ProviderConfig    `yaml:"providers"`
	Prompts   PromptConfig            `yaml:"prompts"`
	Workers   map[string]WorkerConfig `yaml:"workers"`
}

// DefaultWorkers — фиксированный набор воркеров проекта.
func DefaultWorkers() map[string]WorkerConfig {
	return map[string]WorkerConfig{
		"core": {
			Scope:       []string{"src/core/", "tests/core/"},
			TestCommand: "python -m pytest tests/core -q",
		},
		"api": {
			Scope:       []string{"src/api/", "tests/api/"},
			TestCommand: "python -m pytest tests/api -q",
		},
		"ui": {
			Scope:       []string{"src/ui/", "tests/ui/"},
			TestCommand: "python -m pytest tests/ui -q",
		},
		"docs": {
			Scope:       []string{"docs/", "README.md"},
			TestCommand: "python -m pytest tests/docs -q",
		},
	}
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		SourceURL:     DefaultSourceURL,
		ProjectRoot:   ".",
		MaxFiles:      DefaultMaxFiles,
		MaxRetries:    DefaultMaxRetries,
		MaxTokens:     DefaultMaxTokens,
		ContextBudget: DefaultContextBudget,
		RetryDelay:    DefaultRetryDelay,
		PollInterval:  DefaultPollInterval,
		TestTimeout:   DefaultTestTimeout,
		ModelTimeout:  DefaultModelTimeout,
		HTTPAddr:      DefaultHTTPAddr,
		Providers: []llm.ProviderConfig{
			{Type: llm.TypeOllama, Model: DefaultOllamaModel},
		},
		Workers: DefaultWorkers(),
	}
}

// Load собирает конфигурацию: defaults, затем файл path (если не пустой), затем env.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile накладывает YAML-файл на текущие значения.
// Воркеры из файла заменяют одноимённые и добавляются к остальным.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	return nil
}

// ApplyEnv накладывает переменные окружения IANAE_*.
// Длительности принимаются как "30s" или как число секунд.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"IANAE_SOURCE_URL":   &c.SourceURL,
		"IANAE_PROJECT_ROOT": &c.ProjectRoot,
		"RABBITMQ_URL":       &c.RabbitMQURL,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"IANAE_MAX_FILES":      &c.MaxFiles,
		"IANAE_MAX_RETRIES":    &c.MaxRetries,
		"IANAE_MAX_TOKENS":     &c.MaxTokens,
		"IANAE_CONTEXT_BUDGET": &c.ContextBudget,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, v, err)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"IANAE_POLL_INTERVAL": &c.PollInterval,
		"IANAE_RETRY_DELAY":   &c.RetryDelay,
		"IANAE_TEST_TIMEOUT":  &c.TestTimeout,
		"IANAE_MODEL_TIMEOUT": &c.ModelTimeout,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, key, v, err)
		}
		*dst = d
	}

	if v, ok := lookup("WORKER_PORT"); ok && v != "" {
		c.HTTPAddr = ":" + v
	}

	return nil
}

// ParseDuration принимает time.Duration ("90s", "2m") или целое число секунд.
func ParseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Validate проверяет конфигурацию целиком.
func (c *Config) Validate() error {
	var errs []error

	if c.SourceURL == "" {
		errs = append(errs, errors.New("source_url is required"))
	}
	if c.ProjectRoot == "" {
		errs = append(errs, errors.New("project_root is required"))
	}
	if c.MaxFiles <= 0 {
		errs = append(errs, fmt.Errorf("max_files must be positive, got %d", c.MaxFiles))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll_interval must be positive"))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, errors.New("retry_delay must not be negative"))
	}
	if c.TestTimeout <= 0 {
		errs = append(errs, errors.New("test_timeout must be positive"))
	}
	if len(c.Providers) == 0 {
		errs = append(errs, errors.New("at least one provider is required"))
	}
	if len(c.Workers) == 0 {
		errs = append(errs, errors.New("at least one worker is required"))
	}

	for _, name := range c.WorkerNames() {
		w := c.Workers[name]
		if len(w.Scope) == 0 {
			errs = append(errs, fmt.Errorf("worker %s: scope is empty", name))
		}
		for _, entry := range w.Scope {
			if strings.TrimSpace(entry) == "" {
				errs = append(errs, fmt.Errorf("worker %s: blank scope entry", name))
			}
		}
		if strings.TrimSpace(w.TestCommand) == "" {
			errs = append(errs, fmt.Errorf("worker %s: test_command is empty", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Worker возвращает конфигурацию воркера по имени.
func (c *Config) Worker(name string) (WorkerConfig, error) {
	w, ok := c.Workers[name]
	if !ok {
		return WorkerConfig{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownWorker, name, strings.Join(c.WorkerNames(), ", "))
	}
	return w, nil
}

// WorkerNames возвращает имена воркеров по алфавиту.
func (c *Config) WorkerNames() []string {
	names := make([]string, 0, len(c.Workers))
	for name := range c.Workers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
