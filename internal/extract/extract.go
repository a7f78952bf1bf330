// Package extract разбирает текстовый ответ модели на блоки файлов и отчёт.
//
// Грамматика ответа:
//
//	### FILE: path/to/file.py
//	```python
//	...содержимое...
//	```
//
//	### REPORT
//	Свободный текст до конца ответа или до следующей строки "###".
//
// Разбор чисто текстовый, семантика кода не интерпретируется.
package extract

import (
	"regexp"
	"strings"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
)

var (
	// fileHeaderRegex — заголовок блока файла; путь в первой группе.
	fileHeaderRegex = regexp.MustCompile(`^\s*###\s*FILE:\s*(.+?)\s*$`)

	// fenceOpenRegex — открывающий fence с необязательным тегом языка.
	fenceOpenRegex = regexp.MustCompile("^\\s*(`{3,}|~{3,})\\s*([\\w.+#-]*)\\s*$")

	// reportHeaderRegex — начало секции отчёта.
	reportHeaderRegex = regexp.MustCompile(`^\s*###\s*REPORT\b`)
)

// Result — результат разбора ответа модели.
type Result struct {
	// Files — блоки файлов в порядке первого появления пути.
	Files []domain.FileChange

	// Report — текст секции REPORT или "".
	Report string
}

// Paths возвращает пути всех блоков.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Files))
	for i, f := range r.Files {
		paths[i] = f.Path
	}
	return paths
}

// Parse разбирает ответ модели.
//
// Отсутствие блоков FILE не ошибка: возвращается пустой список.
// Блок без закрывающего fence отбрасывается (ответ был обрезан).
// Если один путь встречается несколько раз, побеждает последний блок.
func Parse(text string) Result {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var result Result
	index := make(map[string]int)
	reportFound := false

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if m := fileHeaderRegex.FindStringSubmatch(line); m != nil {
			path := cleanPath(m[1])
			content, next, ok := readBlock(lines, i+1)
			if !ok {
				continue
			}
			i = next
			if path == "" {
				continue
			}

			if pos, exists := index[path]; exists {
				result.Files[pos].Content = content
			} else {
				index[path] = len(result.Files)
				result.Files = append(result.Files, domain.FileChange{Path: path, Content: content})
			}
			continue
		}

		if !reportFound && reportHeaderRegex.MatchString(line) {
			reportFound = true
			report, next := readReport(lines, i+1)
			result.Report = report
			i = next - 1
		}
	}

	return result
}

// readBlock читает fenced-блок, начиная со строки start.
// Пустые строки перед открывающим fence пропускаются.
// Возвращает содержимое и индекс закрывающего fence.
func readBlock(lines []string, start int) (string, int, bool) {
	i := start
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) {
		return "", start, false
	}

	m := fenceOpenRegex.FindStringSubmatch(lines[i])
	if m == nil {
		return "", start, false
	}
	fence := m[1]

	var body []string
	for j := i + 1; j < len(lines); j++ {
		if isClosingFence(lines[j], fence) {
			content := strings.Join(body, "\n")
			if content != "" {
				content += "\n"
			}
			return content, j, true
		}
		body = append(body, lines[j])
	}
	return "", start, false
}

// isClosingFence проверяет, что строка закрывает блок, открытый fence.
// Закрывающий fence состоит из того же символа и не короче открывающего.
func isClosingFence(line, fence string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < len(fence) {
		return false
	}
	return strings.Trim(trimmed, fence[:1]) == ""
}

// readReport читает секцию REPORT до следующей строки "###" или до конца.
func readReport(lines []string, start int) (string, int) {
	var body []string
	i := start
	for ; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "###") {
			break
		}
		body = append(body, lines[i])
	}
	return strings.TrimSpace(strings.Join(body, "\n")), i
}

// cleanPath убирает обрамляющие кавычки и backticks вокруг пути.
func cleanPath(p string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(p), "`\"'"))
}
