package worker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Luc4sfdez/Ianae-sub001/internal/apply"
	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
	"github.com/Luc4sfdez/Ianae-sub001/internal/llm"
	"github.com/Luc4sfdez/Ianae-sub001/internal/source"
	"github.com/Luc4sfdez/Ianae-sub001/internal/testrun"
)

// Лимиты текста в отчётах.
const (
	maxModelOutput = 2000
	maxTestOutput  = 3000
)

const fence = "```"

var blockedReasons = map[Kind]string{
	KindScopeViolation:  "fuera de scope",
	KindTooManyFiles:    "demasiados archivos",
	KindEmptyGeneration: "sin archivos generados",
	KindProviderFailure: "error del proveedor LLM",
	KindTestFailure:     "tests fallidos",
	KindIO:              "error de E/S",
}

func reportTags(worker string, order domain.Order, outcome string) []string {
	return []string{"worker-report", worker, fmt.Sprintf("orden-%d", order.ID), outcome}
}

func successReport(worker string, order domain.Order, attempt Attempt, changes []apply.Change, resp *llm.Response, modelReport string, result testrun.Result) source.ReportRequest {
	var b strings.Builder

	fmt.Fprintf(&b, "## Orden #%d: %s\n\n", order.ID, order.Title)
	writeHeader(&b, worker, attempt)
	fmt.Fprintf(&b, "**Proveedor:** %s (%s), tokens %d/%d, %s\n\n",
		resp.Provider, resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Duration.Round(100*time.Millisecond))

	b.WriteString("### Archivos modificados\n\n")
	for _, c := range changes {
		fmt.Fprintf(&b, "- `%s` (%s, +%d -%d)\n", c.Path, c.Mode, c.Added, c.Removed)
	}

	b.WriteString("\n### Reporte del modelo\n\n")
	if strings.TrimSpace(modelReport) == "" {
		b.WriteString("(sin reporte)\n")
	} else {
		b.WriteString(truncateHead(modelReport, maxModelOutput))
		b.WriteString("\n")
	}

	b.WriteString("\n### Tests\n\n")
	writeCode(&b, testrun.Tail(result.Output, maxTestOutput))

	return source.ReportRequest{
		Title:   fmt.Sprintf("Orden #%d completada: %s", order.ID, order.Title),
		Content: b.String(),
		Tags:    reportTags(worker, order, string(domain.StatusCompleted)),
	}
}

func blockedReport(worker string, order domain.Order, attempt Attempt, kind Kind, err error, details string) source.ReportRequest {
	reason, ok := blockedReasons[kind]
	if !ok {
		reason = kind.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Orden #%d: %s\n\n", order.ID, order.Title)
	writeHeader(&b, worker, attempt)
	fmt.Fprintf(&b, "**Motivo:** %s\n\n", reason)
	if err != nil {
		fmt.Fprintf(&b, "**Error:** %s\n\n", err)
	}
	if details != "" {
		b.WriteString(details)
	}

	return source.ReportRequest{
		Title:   fmt.Sprintf("Orden #%d bloqueada: %s", order.ID, reason),
		Content: b.String(),
		Tags:    reportTags(worker, order, string(domain.StatusBlocked)),
	}
}

func writeHeader(b *strings.Builder, worker string, attempt Attempt) {
	fmt.Fprintf(b, "**Worker:** %s\n", worker)
	if attempt.MaxAttempts > 0 {
		fmt.Fprintf(b, "**Intento:** %d de %d\n\n", attempt.Number, attempt.MaxAttempts)
	} else {
		fmt.Fprintf(b, "**Intento:** %d\n\n", attempt.Number)
	}
}

func writeCode(b *strings.Builder, text string) {
	b.WriteString(fence + "\n")
	b.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(fence + "\n")
}

func modelOutputDetails(resp *llm.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Respuesta del modelo (%s)\n\n", resp.Provider)
	writeCode(&b, truncateHead(resp.Text, maxModelOutput))
	return b.String()
}

func providerFailureDetails(err error) string {
	var b strings.Builder
	b.WriteString("### Proveedores\n\n")
	for _, line := range strings.Split(unwrapJoined(err), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	return b.String()
}

// unwrapJoined возвращает текст ошибок из errors.Join по строке на ошибку.
func unwrapJoined(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			parts := joined.Unwrap()
			lines := make([]string, 0, len(parts))
			for _, p := range parts {
				if p != nil && p != llm.ErrAllProvidersFailed {
					lines = append(lines, p.Error())
				}
			}
			if len(lines) > 0 {
				return strings.Join(lines, "\n")
			}
		}
	}
	return err.Error()
}

func violationDetails(err error, scopeList []string, paths []string) string {
	var b strings.Builder

	var scopeErr *apply.ScopeError
	if errors.As(err, &scopeErr) {
		fmt.Fprintf(&b, "**Ruta rechazada:** `%s`\n\n", scopeErr.Path)
	}

	b.WriteString("### Scope permitido\n\n")
	for _, s := range scopeList {
		fmt.Fprintf(&b, "- `%s`\n", s)
	}

	b.WriteString("\n### Archivos propuestos\n\n")
	for _, p := range paths {
		fmt.Fprintf(&b, "- `%s`\n", p)
	}
	return b.String()
}

func testFailureDetails(changes []apply.Change, result testrun.Result) string {
	var b strings.Builder

	b.WriteString("### Archivos revertidos\n\n")
	for _, c := range changes {
		fmt.Fprintf(&b, "- `%s`\n", c.Path)
	}

	fmt.Fprintf(&b, "\n### Salida de tests (exit code %d)\n\n", result.ExitCode)
	writeCode(&b, testrun.Tail(result.Output, maxTestOutput))
	return b.String()
}

// truncateHead оставляет первые max байт, не разрывая UTF-8.
func truncateHead(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (truncado)"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
