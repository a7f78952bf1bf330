package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения.
type MessageType string

// Типы сообщений.
const (
	MessageTypeOrderCreated  MessageType = "order.created"
	MessageTypeOrderResolved MessageType = "order.resolved"
)

// Message — конверт сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// OrderCreatedPayload — новый заказ для воркера.
type OrderCreatedPayload struct {
	OrderID int64  `json:"order_id"`
	Worker  string `json:"worker"`
	Title   string `json:"title,omitempty"`
}

// OrderResolvedPayload — заказ дошёл до терминального состояния у воркера.
type OrderResolvedPayload struct {
	OrderID  int64  `json:"order_id"`
	Worker   string `json:"worker"`
	Status   string `json:"status"`
	Kind     string `json:"kind,omitempty"`
	Attempts int    `json:"attempts"`
	Files    int    `json:"files,omitempty"`
}

// Publisher публикует события заказов.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// NewMessage оборачивает payload в конверт с новым id.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Publish публикует сообщение.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, string(exchange), string(routingKey), false, false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Type:         string(msg.Type),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishOrderCreated будит воркера, которому адресован заказ.
func (p *Publisher) PublishOrderCreated(ctx context.Context, payload OrderCreatedPayload) error {
	msg := NewMessage(MessageTypeOrderCreated, payload)
	return p.Publish(ctx, ExchangeOrders, CreatedKey(payload.Worker), msg)
}

// PublishOrderResolved сообщает о завершении заказа.
func (p *Publisher) PublishOrderResolved(ctx context.Context, payload OrderResolvedPayload) error {
	msg := NewMessage(MessageTypeOrderResolved, payload)
	return p.Publish(ctx, ExchangeOrders, ResolvedKey(payload.Worker), msg)
}
