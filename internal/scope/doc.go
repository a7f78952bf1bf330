// Package scope ограничивает, какие файлы проекта может трогать воркер.
//
// Scope — это список префиксов путей (директорий или отдельных файлов)
// относительно корня проекта. Пакет содержит:
//
//   - guard.go   — проверку пути против scope (InScope, FirstViolation)
//   - context.go — сбор содержимого файлов scope для промпта модели
//
// Пути нормализуются одинаково для обоих случаев: обратные слэши заменяются
// на прямые, ведущие "/" и "./" отбрасываются. Путь, выходящий за корень
// проекта через "..", никогда не входит в scope.
package scope
