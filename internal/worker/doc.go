// Package worker — автономный исполнитель заказов одного воркера.
//
// # Обзор
//
// Worker опрашивает источник заказов, выбирает следующий подходящий
// pending-заказ и доводит его до completed или blocked:
//
//  1. Заказ помечается in_progress
//  2. Собирается контекст файлов scope
//  3. Цепочка провайдеров генерирует ответ
//  4. Из ответа извлекаются блоки "### FILE:"
//  5. Блоки проверяются на scope и лимит файлов, затем записываются с бэкапом
//  6. Запускаются тесты; при падении все файлы откатываются
//
// Заказы обрабатываются строго последовательно, по одному.
//
// # Повторы
//
// Retry выполняется в процессе: после неудачной попытки воркер ждёт
// retry_delay и повторяет тот же заказ, не возвращаясь к обычному интервалу
// опроса. Заказ получает max_retries+1 попыток. Нарушение scope и лимита
// файлов блокирует заказ сразу. Последняя неудачная попытка блокирует заказ
// и публикует отчёт.
//
// # Состояние
//
// Счётчики попыток, множество обработанных id и нормализованные заголовки
// живут в памяти и теряются при рестарте. Флаг минимального id позволяет
// пропустить старый бэклог.
//
// # События
//
// Если доступен RabbitMQ, сообщение order.created.<worker> прерывает паузу
// между опросами, а терминальные исходы публикуются как order.resolved.
// Без RabbitMQ работает только polling.
package worker
