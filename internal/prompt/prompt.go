// Package prompt рендерит system и user промпты для модели из Go templates.
package prompt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
	"github.com/Luc4sfdez/Ianae-sub001/internal/llm"
)

// Errors.
var (
	ErrTemplateParse  = errors.New("template parse error")
	ErrTemplateRender = errors.New("template render error")
)

// Data — всё, что доступно шаблонам.
type Data struct {
	Worker      string
	Order       domain.Order
	Scope       []string
	TestCommand string
	MaxFiles    int

	// Context — отрендеренный контекст файлов scope.
	Context string

	Attempt     int
	MaxAttempts int

	// PreviousFailure — хвост вывода тестов предыдущей попытки.
	PreviousFailure string
}

// DefaultSystem — system prompt по умолчанию.
const DefaultSystem = `You are the autonomous "{{ .Worker }}" worker of a software project.
You implement one order at a time by editing files inside your scope.

Rules:
- You may only create or modify files under: {{ join ", " .Scope }}
- Change at most {{ .MaxFiles }} files.
- For every file you change, write a header line "### FILE: <relative path>" followed by a fenced code block with the COMPLETE new content of the file.
- Files shown as a summary are too large to reproduce: for those, output ONLY the new functions or methods to append, without class or import lines.
- After the files, write "### REPORT" followed by a short summary of what you changed.
- Your changes are verified with: {{ .TestCommand }}`

// DefaultUser — user prompt по умолчанию.
const DefaultUser = `# Orden #{{ .Order.ID }}: {{ .Order.Title }}

{{ .Order.Content | trim }}
{{- if gt .Attempt 1 }}

## Attempt {{ .Attempt }} of {{ .MaxAttempts }}
The previous attempt was rolled back.
{{- with .PreviousFailure }} Test output:

` + "```" + `
{{ truncate 3000 . }}
` + "```" + `
{{- end }}
{{- end }}

## Project files in scope

{{ default "(no files yet)" .Context }}`

// templateFuncs — функции, доступные шаблонам.
var templateFuncs = template.FuncMap{
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},

	"default": func(def string, val any) any {
		if val == nil {
			return def
		}
		if s, ok := val.(string); ok && strings.TrimSpace(s) == "" {
			return def
		}
		return val
	},

	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},

	// truncate оставляет последние n байт
	"truncate": func(n int, s string) string {
		if n <= 0 || len(s) <= n {
			return s
		}
		return "..." + s[len(s)-n:]
	},

	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"trim":  strings.TrimSpace,
}

// Builder собирает запрос к модели.
type Builder struct {
	system    *template.Template
	user      *template.Template
	maxTokens int
}

// New парсит шаблоны. Пустой шаблон заменяется шаблоном по умолчанию.
func New(systemTmpl, userTmpl string, maxTokens int) (*Builder, error) {
	if systemTmpl == "" {
		systemTmpl = DefaultSystem
	}
	if userTmpl == "" {
		userTmpl = DefaultUser
	}

	system, err := parse("system", systemTmpl)
	if err != nil {
		return nil, err
	}
	user, err := parse("user", userTmpl)
	if err != nil {
		return nil, err
	}

	return &Builder{system: system, user: user, maxTokens: maxTokens}, nil
}

func parse(name, text string) (*template.Template, error) {
	t, err := template.New(name).Funcs(templateFuncs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateParse, name, err)
	}
	return t, nil
}

// Build рендерит оба промпта.
func (b *Builder) Build(data Data) (llm.Request, error) {
	system, err := render(b.system, data)
	if err != nil {
		return llm.Request{}, err
	}
	user, err := render(b.user, data)
	if err != nil {
		return llm.Request{}, err
	}

	return llm.Request{
		System:    system,
		Prompt:    user,
		MaxTokens: b.maxTokens,
	}, nil
}

func render(t *template.Template, data Data) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplateRender, t.Name(), err)
	}
	return buf.String(), nil
}
