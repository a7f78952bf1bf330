// Package indent решает, дописывать ли новый код в конец большого файла,
// и подгоняет его отступы под существующие члены класса.
//
// Большие файлы отдаются модели кратким описанием, поэтому модель присылает
// только новые методы, а не файл целиком. Такой ответ нельзя записать поверх
// файла, его нужно дописать с правильными отступами.
//
// Эвристика работает со строками, а не с синтаксисом, и может ошибаться:
//   - метод без ключевого слова (например, Java-метод без модификатора) не распознаётся
//     как объявление, и содержимое записывается целиком вместо дописывания;
//   - если объявлений нет ни в файле, ни в новом коде, отступы не меняются;
//   - многострочные строковые литералы тоже получают новый отступ.
package indent

import (
	"regexp"
	"strings"
)

const (
	// AppendThreshold — файлы длиннее стольких строк считаются "большими".
	AppendThreshold = 200

	// scanLines — сколько непустых строк нового кода просматривается.
	scanLines = 10
)

var (
	typeDeclRegex = regexp.MustCompile(`^\s*(class|struct|interface|enum|trait|type\s+\w+)\b`)
	importRegex   = regexp.MustCompile(`^\s*(import|from\s+\S+\s+import|#include|using|package|require|use)\b`)
	memberRegex   = regexp.MustCompile(`^([ \t]*)(async\s+def|def|func|function|fn|public|private|protected|static)\s`)
)

// ShouldAppend возвращает true, если newContent похож на набор членов для дописывания
// в существующий файл длиной existingLines строк.
//
// Условия: файл длиннее AppendThreshold; в первых строках нового кода нет объявления
// класса/типа и импортов, но есть хотя бы одно объявление функции или метода.
func ShouldAppend(newContent string, existingLines int) bool {
	if existingLines <= AppendThreshold {
		return false
	}

	hasMember := false
	scanned := 0
	for _, line := range strings.Split(newContent, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if typeDeclRegex.MatchString(line) || importRegex.MatchString(line) {
			return false
		}
		if memberRegex.MatchString(line) {
			hasMember = true
		}
		scanned++
		if scanned >= scanLines {
			break
		}
	}
	return hasMember
}

// Adapt дописывает newContent в конец existing, заменяя отступ объявлений нового кода
// на отступ членов существующего файла. Между файлом и новым кодом вставляется пустая строка.
func Adapt(newContent, existing string) string {
	body := newContent

	target, okTarget := memberIndent(existing)
	source, okSource := firstMemberIndent(newContent)
	if okTarget && okSource {
		body = Reindent(newContent, source, target)
	}

	body = strings.TrimRight(body, "\n")
	head := strings.TrimRight(existing, "\n")
	if head == "" {
		return body + "\n"
	}
	return head + "\n\n" + body + "\n"
}

// Reindent заменяет префикс from на to в каждой строке. Пустые строки становятся пустыми,
// строки с отступом меньше from получают to перед обрезанным текстом.
func Reindent(content, from, to string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		switch {
		case strings.TrimSpace(line) == "":
			lines[i] = ""
		case strings.HasPrefix(line, from):
			lines[i] = to + line[len(from):]
		default:
			lines[i] = to + strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// memberIndent возвращает самый частый отступ строк-объявлений в существующем файле.
// При равенстве выбирается более короткий.
func memberIndent(content string) (string, bool) {
	counts := make(map[string]int)
	for _, line := range strings.Split(content, "\n") {
		if m := memberRegex.FindStringSubmatch(line); m != nil {
			counts[m[1]]++
		}
	}
	if len(counts) == 0 {
		return "", false
	}

	best, bestCount := "", -1
	for indent, n := range counts {
		if n > bestCount || (n == bestCount && len(indent) < len(best)) {
			best, bestCount = indent, n
		}
	}
	return best, true
}

// firstMemberIndent возвращает отступ первого объявления в новом коде.
func firstMemberIndent(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		if m := memberRegex.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}
