package domain

import "time"

// Order — единица работы из источника заказов.
//
// Order создаётся снаружи (человеком или другим сервисом) и помечается
// именем воркера. Исполнитель только читает заказ и запрашивает смену статуса,
// заказ никогда не удаляется.
type Order struct {
	// ID — идентификатор документа в источнике.
	ID int64 `json:"id"`

	// Title — заголовок, часто с префиксом вида "Orden #12:".
	Title string `json:"title"`

	// Content — инструкции для модели.
	Content string `json:"content"`

	// WorkflowStatus — текущий статус.
	WorkflowStatus WorkflowStatus `json:"workflow_status"`

	// Worker — имя воркера, которому адресован заказ.
	Worker string `json:"worker,omitempty"`

	// Priority — приоритет (больше — раньше).
	Priority int `json:"priority,omitempty"`

	// StatusMessage — пояснение к последней смене статуса.
	StatusMessage string `json:"status_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Metadata — дополнительные поля источника, которые исполнитель не интерпретирует.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StatusUpdate — запрос на смену статуса заказа.
type StatusUpdate struct {
	WorkflowStatus WorkflowStatus `json:"workflow_status"`
	Worker         string         `json:"worker"`
	Message        string         `json:"message,omitempty"`
}

// Report — человекочитаемый отчёт воркера, публикуемый в источник.
type Report struct {
	// ID — присваивается источником.
	ID int64 `json:"id,omitempty"`

	// Worker — автор отчёта.
	Worker string `json:"worker,omitempty"`

	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// FileChange — один блок файла из ответа модели.
//
// Живёт только в пределах одной попытки: создаётся парсером ответа
// и сразу передаётся в applier.
type FileChange struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}
