package scope

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

const (
	defaultBudget           = 60000
	defaultSummaryThreshold = 200
	maxSummaryLines         = 80
	binarySniffLen          = 8000
)

// skipDirs — директории, которые никогда не попадают в контекст.
var skipDirs = map[string]bool{
	".git":          true,
	"node_modules":  true,
	"__pycache__":   true,
	".venv":         true,
	"venv":          true,
	".pytest_cache": true,
}

// declRegex находит строки с объявлениями для краткого описания больших файлов.
var declRegex = regexp.MustCompile(`^\s*(async\s+def|def|class|func|function|type|interface|struct|export\s+(default\s+)?(function|class))\b`)

// File — один файл в контексте.
type File struct {
	// Path — путь относительно корня проекта (через "/").
	Path string

	// Lines — количество строк в файле.
	Lines int

	// Summarized — вместо содержимого отдан список объявлений.
	Summarized bool

	// Content — полный текст или краткое описание.
	Content string
}

// Context — собранное содержимое scope.
type Context struct {
	Files []File

	// Truncated — бюджет исчерпан, часть файлов не вошла.
	Truncated bool

	// Bytes — суммарный размер Content.
	Bytes int
}

// Render форматирует контекст для промпта.
func (c *Context) Render() string {
	var b strings.Builder
	for _, f := range c.Files {
		if f.Summarized {
			fmt.Fprintf(&b, "### %s (%d lines, summary: emit only NEW members for this file)\n", f.Path, f.Lines)
		} else {
			fmt.Fprintf(&b, "### %s (%d lines)\n", f.Path, f.Lines)
		}
		b.WriteString("```\n")
		b.WriteString(f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}
	if c.Truncated {
		b.WriteString("(context truncated)\n")
	}
	return b.String()
}

// Gatherer собирает содержимое файлов scope.
type Gatherer struct {
	// Budget — максимальный суммарный размер контекста в байтах (default: 60000).
	Budget int

	// SummaryThreshold — файлы длиннее стольких строк отдаются кратким описанием (default: 200).
	SummaryThreshold int
}

// Gather обходит записи scope под root и читает файлы.
//
// Файлы из .gitignore, бинарные файлы и служебные директории пропускаются.
// Отсутствующие записи scope не являются ошибкой: воркер может создавать новые файлы.
func (g *Gatherer) Gather(root string, entries []string) (*Context, error) {
	budget := g.Budget
	if budget <= 0 {
		budget = defaultBudget
	}
	threshold := g.SummaryThreshold
	if threshold <= 0 {
		threshold = defaultSummaryThreshold
	}

	rules := loadIgnoreRules(root)
	result := &Context{}
	seen := make(map[string]bool)

	add := func(rel string, data []byte) {
		if seen[rel] || result.Truncated {
			return
		}
		seen[rel] = true

		file := buildFile(rel, data, threshold)
		if result.Bytes+len(file.Content) > budget {
			result.Truncated = true
			return
		}
		result.Files = append(result.Files, file)
		result.Bytes += len(file.Content)
	}

	for _, entry := range entries {
		ne := Normalize(entry)
		if ne == "" || escapesRoot(ne) {
			continue
		}

		abs := filepath.Join(root, filepath.FromSlash(ne))
		info, err := os.Stat(abs)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat scope entry %s: %w", ne, err)
		}

		if !info.IsDir() {
			data, err := os.ReadFile(abs)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", ne, err)
			}
			if !isBinary(data) {
				add(ne, data)
			}
			continue
		}

		err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if p != abs && (skipDirs[d.Name()] || (rules != nil && rules.MatchesPath(rel+"/"))) {
					return filepath.SkipDir
				}
				return nil
			}
			if rules != nil && rules.MatchesPath(rel) {
				return nil
			}

			data, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("read %s: %w", rel, err)
			}
			if !isBinary(data) {
				add(rel, data)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// buildFile формирует File: полный текст или краткое описание для больших файлов.
func buildFile(rel string, data []byte, threshold int) File {
	content := string(data)
	lines := countLines(content)
	if lines <= threshold {
		return File{Path: rel, Lines: lines, Content: content}
	}

	var b strings.Builder
	n := 0
	for i, line := range strings.Split(content, "\n") {
		if !declRegex.MatchString(line) {
			continue
		}
		fmt.Fprintf(&b, "%5d: %s\n", i+1, strings.TrimRight(line, " \t\r"))
		n++
		if n >= maxSummaryLines {
			b.WriteString("      ...\n")
			break
		}
	}
	return File{Path: rel, Lines: lines, Summarized: true, Content: b.String()}
}

// countLines считает строки так же, как текстовые редакторы: завершающий "\n" не добавляет строку.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// CountLines возвращает количество строк в тексте.
func CountLines(s string) int {
	return countLines(s)
}

func isBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// loadIgnoreRules читает .gitignore в корне проекта.
func loadIgnoreRules(root string) *ignore.GitIgnore {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		lines = append(lines, strings.TrimRight(line, "\r"))
	}
	if len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}
