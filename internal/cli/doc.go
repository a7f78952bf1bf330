// Package cli реализует операторский инструмент командной строки.
//
// # Обзор
//
// CLI — клиентская утилита для источника заказов. Работает через HTTP
// (source.Client) и не ходит в БД напрямую. Позволяет завести заказ
// для воркера, посмотреть очередь, вручную сменить статус
// (например, вернуть blocked заказ в pending) и прочитать отчёты.
//
// # Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: ianae orders list core --json | jq .
//
// # Commands
//
// Cobra-команды организованы по ресурсам:
//   - orders: list, show, create, status
//   - reports: list
//
// Каждая группа создаётся через фабричную функцию (NewOrdersCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// клиента и Output после парсинга PersistentFlags.
package cli
