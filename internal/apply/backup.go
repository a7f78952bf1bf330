package apply

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// backupEntry — состояние одного пути до записи.
type backupEntry struct {
	existed bool
	data    []byte
	mode    fs.FileMode
}

// BackupStore — состояние файлов до текущей пачки, по абсолютному пути.
//
// Не потокобезопасен: принадлежит одному вызову Apply и одной попытке.
type BackupStore struct {
	entries map[string]backupEntry
	order   []string
}

// NewBackupStore создаёт пустое хранилище.
func NewBackupStore() *BackupStore {
	return &BackupStore{entries: make(map[string]backupEntry)}
}

// Record запоминает текущее состояние path. Повторная запись того же пути игнорируется:
// сохраняется состояние до первой записи.
func (s *BackupStore) Record(path string) error {
	if _, ok := s.entries[path]; ok {
		return nil
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.add(path, backupEntry{existed: false})
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("backup %s: is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	s.add(path, backupEntry{existed: true, data: data, mode: info.Mode().Perm()})
	return nil
}

func (s *BackupStore) add(path string, e backupEntry) {
	s.entries[path] = e
	s.order = append(s.order, path)
}

// Prior возвращает содержимое path до пачки; existed=false, если файла не было.
func (s *BackupStore) Prior(path string) (data []byte, existed bool) {
	e, ok := s.entries[path]
	if !ok || !e.existed {
		return nil, false
	}
	return e.data, true
}

// Len возвращает количество сохранённых путей.
func (s *BackupStore) Len() int {
	return len(s.order)
}

// Paths возвращает сохранённые пути в порядке записи.
func (s *BackupStore) Paths() []string {
	paths := make([]string, len(s.order))
	copy(paths, s.order)
	return paths
}

// Clear забывает все записи (после успешной попытки).
func (s *BackupStore) Clear() {
	s.entries = make(map[string]backupEntry)
	s.order = nil
}

// Rollback возвращает все сохранённые пути в состояние до пачки и очищает хранилище.
//
// Файлы, которых не было, удаляются; остальные перезаписываются прежними байтами.
// Ошибки по отдельным путям не прерывают откат остальных.
func (s *BackupStore) Rollback() error {
	var errs []error

	for i := len(s.order) - 1; i >= 0; i-- {
		path := s.order[i]
		e := s.entries[path]

		if !e.existed {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
			}
			continue
		}

		mode := e.mode
		if mode == 0 {
			mode = defaultFileMode
		}
		if err := os.WriteFile(path, e.data, mode); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", path, err))
		}
	}

	s.Clear()
	return errors.Join(errs...)
}
