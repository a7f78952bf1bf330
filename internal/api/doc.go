// Package api содержит HTTP API источника заказов.
//
// Структура:
//   - handler.go        — Handler с DI (хранилища, publisher, logger)
//   - routes.go         — регистрация маршрутов
//   - middleware.go     — middleware (logging, recovery, metrics)
//   - response.go       — унифицированные JSON-ответы и обработка ошибок
//   - dto.go            — Data Transfer Objects (request/response)
//   - order_handler.go  — обработчики для /documents и /workers/{worker}/pending
//   - report_handler.go — обработчики для /workers/{worker}/reports
//
// Воркеры читают отсюда pending заказы, меняют их workflow_status
// и публикуют отчёты.
package api
