// Package apply записывает блоки файлов из ответа модели в проект
// и умеет откатывать записанное.
//
// # Порядок применения
//
//  1. Проверка размера пачки (ErrTooManyFiles)
//  2. Проверка scope для КАЖДОГО пути (ScopeError) — до любой записи
//  3. Для каждого блока: backup → создание директорий → дописывание или полная запись
//
// Применение не атомарно на уровне файловой системы: падение посреди пачки
// оставит часть файлов записанными. Но у каждого записанного пути есть backup,
// сделанный до записи, поэтому Rollback всегда возвращает состояние до пачки.
//
// # Backup
//
// BackupStore хранит для абсолютного пути либо прежние байты файла,
// либо маркер "файла не было". Rollback восстанавливает байты или удаляет файл
// и очищает хранилище; повторный вызов ничего не делает.
package apply
