package apply

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Luc4sfdez/Ianae-sub001/internal/domain"
	"github.com/Luc4sfdez/Ianae-sub001/internal/indent"
	"github.com/Luc4sfdez/Ianae-sub001/internal/scope"
)

const (
	defaultFileMode os.FileMode = 0o644
	defaultDirMode  os.FileMode = 0o755
)

// Mode — как был записан файл.
type Mode string

const (
	ModeCreated  Mode = "created"
	ModeReplaced Mode = "replaced"
	ModeAppended Mode = "appended"
)

// Change — один применённый файл.
type Change struct {
	// Path — путь относительно корня проекта.
	Path string

	Mode Mode

	// Added, Removed — количество добавленных и удалённых строк.
	Added   int
	Removed int
}

// Batch — результат применения пачки.
type Batch struct {
	Changes []Change

	// Backups — состояние до пачки. Владелец (попытка) либо очищает его после
	// успешных тестов, либо вызывает Rollback.
	Backups *BackupStore
}

// Paths возвращает относительные пути применённых файлов.
func (b *Batch) Paths() []string {
	paths := make([]string, len(b.Changes))
	for i, c := range b.Changes {
		paths[i] = c.Path
	}
	return paths
}

// Applier применяет блоки файлов в пределах scope.
type Applier struct {
	// Root — корень проекта.
	Root string

	// Scope — разрешённые префиксы путей.
	Scope []string

	// MaxFiles — максимальное количество файлов в пачке (0 — без ограничения).
	MaxFiles int
}

// Apply проверяет пачку целиком и только потом пишет файлы.
//
// При ErrTooManyFiles или ScopeError ничего не записывается и Batch == nil.
// При ошибке ввода-вывода посреди пачки возвращается Batch с уже записанными
// файлами, чтобы вызывающий мог откатить их.
func (a *Applier) Apply(blocks []domain.FileChange) (*Batch, error) {
	if a.MaxFiles > 0 && len(blocks) > a.MaxFiles {
		return nil, fmt.Errorf("%w: %d files, max %d", ErrTooManyFiles, len(blocks), a.MaxFiles)
	}

	paths := make([]string, len(blocks))
	for i, b := range blocks {
		paths[i] = b.Path
	}
	if p, found := scope.FirstViolation(paths, a.Scope); found {
		return nil, &ScopeError{Path: p, Scope: a.Scope}
	}

	batch := &Batch{Backups: NewBackupStore()}
	for _, block := range blocks {
		change, err := a.applyOne(batch.Backups, block)
		if err != nil {
			return batch, err
		}
		batch.Changes = append(batch.Changes, change)
	}
	return batch, nil
}

func (a *Applier) applyOne(backups *BackupStore, block domain.FileChange) (Change, error) {
	rel := scope.Normalize(block.Path)
	abs := filepath.Join(a.Root, filepath.FromSlash(rel))

	if err := backups.Record(abs); err != nil {
		return Change{}, err
	}

	if err := os.MkdirAll(filepath.Dir(abs), defaultDirMode); err != nil {
		return Change{}, fmt.Errorf("create directory for %s: %w", rel, err)
	}

	prior, existed := backups.Prior(abs)
	oldContent := string(prior)

	newContent := block.Content
	mode := ModeCreated
	if existed {
		mode = ModeReplaced
		if indent.ShouldAppend(block.Content, scope.CountLines(oldContent)) {
			newContent = indent.Adapt(block.Content, oldContent)
			mode = ModeAppended
		}
	}

	perm := defaultFileMode
	if info, err := os.Stat(abs); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(abs, []byte(newContent), perm); err != nil {
		return Change{}, fmt.Errorf("write %s: %w", rel, err)
	}

	added, removed := LineStats(oldContent, newContent)
	return Change{Path: rel, Mode: mode, Added: added, Removed: removed}, nil
}
