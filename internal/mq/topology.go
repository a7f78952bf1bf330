package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges.
const (
	ExchangeOrders Exchange = "ianae.orders"
	ExchangeDLQ    Exchange = "ianae.dlq"
)

// Queues.
const (
	QueueOrdersResolved Queue = "orders.resolved"
	QueueDLQOrders      Queue = "dlq.orders"
)

// Routing keys.
const (
	RoutingKeyDLQOrders RoutingKey = "orders"

	// resolvedLimit ограничивает orders.resolved, если её никто не читает.
	resolvedLimit = 10000
)

// CreatedQueue — очередь пробуждений воркера.
func CreatedQueue(worker string) Queue {
	return Queue("orders.created." + worker)
}

// CreatedKey — ключ события о новом заказе для воркера.
func CreatedKey(worker string) RoutingKey {
	return RoutingKey("order.created." + worker)
}

// ResolvedKey — ключ события о завершении заказа воркером.
func ResolvedKey(worker string) RoutingKey {
	return RoutingKey("order.resolved." + worker)
}

// ExchangeDecl — объявление обменника.
type ExchangeDecl struct {
	Name Exchange
	Kind string
}

// QueueDecl — объявление очереди.
type QueueDecl struct {
	Name Queue
	Args amqp.Table
}

// Binding — привязка очереди.
type Binding struct {
	Queue      Queue
	RoutingKey RoutingKey
	Exchange   Exchange
}

// Topology — полный набор объявлений.
type Topology struct {
	Exchanges []ExchangeDecl
	Queues    []QueueDecl
	Bindings  []Binding
}

// NewTopology строит топологию для набора воркеров.
func NewTopology(workers []string) Topology {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQOrders),
	}

	t := Topology{
		Exchanges: []ExchangeDecl{
			{ExchangeOrders, amqp.ExchangeTopic},
			{ExchangeDLQ, amqp.ExchangeDirect},
		},
		Queues: []QueueDecl{
			{QueueOrdersResolved, amqp.Table{"x-max-length": int32(resolvedLimit)}},
			{QueueDLQOrders, nil},
		},
		Bindings: []Binding{
			{QueueOrdersResolved, "order.resolved.*", ExchangeOrders},
			{QueueDLQOrders, RoutingKeyDLQOrders, ExchangeDLQ},
		},
	}

	for _, w := range workers {
		t.Queues = append(t.Queues, QueueDecl{CreatedQueue(w), dlqArgs})
		t.Bindings = append(t.Bindings, Binding{CreatedQueue(w), CreatedKey(w), ExchangeOrders})
	}

	return t
}

// SetupTopology объявляет exchanges, queues и bindings.
func SetupTopology(ctx context.Context, conn *Connection, workers []string) error {
	t := NewTopology(workers)

	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range t.Exchanges {
			// durable, not auto-deleted, not internal
			if err := ch.ExchangeDeclare(string(ex.Name), ex.Kind, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.Name, err)
			}
		}

		for _, q := range t.Queues {
			if _, err := ch.QueueDeclare(string(q.Name), true, false, false, false, q.Args); err != nil {
				return fmt.Errorf("declare queue %s: %w", q.Name, err)
			}
		}

		for _, b := range t.Bindings {
			if err := ch.QueueBind(string(b.Queue), string(b.RoutingKey), string(b.Exchange), false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.Queue, b.Exchange, err)
			}
		}

		return nil
	})
}
