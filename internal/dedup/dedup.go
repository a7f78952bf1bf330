// Package dedup распознаёт повторные ордера по нормализованному заголовку.
//
// Один и тот же ордер часто создаётся заново под новым номером
// ("Orden #12: Fix parser", затем "ORDEN-CORE-15: fix parser").
// Normalize срезает номерной префикс, чтобы такие заголовки совпадали.
package dedup

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxTitleLength — длина нормализованного заголовка в рунах.
const MaxTitleLength = 60

// orderPrefix: "Orden", разделитель, "CORE-", "#", номер, буква, двоеточие.
var orderPrefix = regexp.MustCompile(`(?i)^\s*orden[\s-]*(?:core-)?#?\d+(?:[a-z]\b)?:?\s*`)

// Normalize приводит заголовок к ключу для сравнения дублей.
//
// Normalize(Normalize(t)) == Normalize(t) для любого t.
func Normalize(title string) string {
	s := strings.Join(strings.Fields(title), " ")
	s = norm.NFC.String(strings.ToLower(s))

	for {
		stripped := orderPrefix.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}

	if runes := []rune(s); len(runes) > MaxTitleLength {
		s = string(runes[:MaxTitleLength])
	}
	return strings.TrimSpace(s)
}

// Tracker хранит нормализованные заголовки разрешённых ордеров.
//
// Не потокобезопасен: им владеет единственный poll loop.
type Tracker struct {
	seen map[string]struct{}
}

// NewTracker создаёт пустой Tracker.
func NewTracker() *Tracker {
	return &Tracker{seen: make(map[string]struct{})}
}

// IsDuplicate сообщает, встречался ли уже такой заголовок.
// Заголовок, нормализованный в пустую строку, дублем не считается.
func (t *Tracker) IsDuplicate(title string) bool {
	key := Normalize(title)
	if key == "" {
		return false
	}
	_, ok := t.seen[key]
	return ok
}

// Remember запоминает заголовок ордера, дошедшего до терминального состояния.
func (t *Tracker) Remember(title string) {
	if key := Normalize(title); key != "" {
		t.seen[key] = struct{}{}
	}
}

// Len возвращает количество запомненных заголовков.
func (t *Tracker) Len() int {
	return len(t.seen)
}
