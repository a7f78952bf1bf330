package scope

import (
	"path"
	"strings"
)

// Normalize приводит путь к виду "a/b/c" относительно корня проекта.
//
// Возвращает "" для пустого пути и для самого корня.
func Normalize(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return ""
	}

	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}

// escapesRoot проверяет, что нормализованный путь выходит за корень проекта.
func escapesRoot(p string) bool {
	return p == ".." || strings.HasPrefix(p, "../")
}

// InScope возвращает true, если путь разрешён хотя бы одной записью scope.
//
// Запись-директория разрешает всё под ней, запись-файл — только точное совпадение.
// Пустой scope не разрешает ничего.
func InScope(p string, entries []string) bool {
	np := Normalize(p)
	if np == "" || escapesRoot(np) {
		return false
	}

	for _, entry := range entries {
		ne := Normalize(entry)
		if ne == "" || escapesRoot(ne) {
			continue
		}
		if np == ne || strings.HasPrefix(np, ne+"/") {
			return true
		}
	}
	return false
}

// FirstViolation возвращает первый путь из paths, не входящий в scope.
func FirstViolation(paths []string, entries []string) (string, bool) {
	for _, p := range paths {
		if !InScope(p, entries) {
			return p, true
		}
	}
	return "", false
}
