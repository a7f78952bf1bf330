// Package mq — события заказов через RabbitMQ.
//
// Структура:
//   - connection.go — соединение с reconnect
//   - topology.go   — exchanges, queues, bindings для набора воркеров
//   - publisher.go  — order.created и order.resolved
//   - consumer.go   — потребление очереди orders.created.<worker>
//
// RabbitMQ здесь не источник истины: воркер всё равно опрашивает
// источник заказов, а order.created только прерывает паузу между опросами.
//
// Exchanges:
//   - ianae.orders (topic) — order.created.<worker>, order.resolved.<worker>
//   - ianae.dlq    (direct) — сообщения, которые не удалось разобрать
package mq
