package apply

import (
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Luc4sfdez/Ianae-sub001/internal/scope"
)

// LineStats считает добавленные и удалённые строки между old и new.
func LineStats(oldContent, newContent string) (added, removed int) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += scope.CountLines(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += scope.CountLines(d.Text)
		}
	}
	return added, removed
}
