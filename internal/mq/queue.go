package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultHeartbeat = 10 * time.Second

// ContentTypeXML — content type запросов и ответов.
const ContentTypeXML = "application/xml"

// Message — сообщение очереди вместе с транспортным дескриптором.
type Message struct {
	// ID — идентификатор сообщения (AMQP message-id).
	ID string

	// CorrelationID — идентификатор связанного запроса.
	CorrelationID string

	// Body — содержимое сообщения.
	Body []byte

	// Timestamp — время публикации.
	Timestamp time.Time
}

// RequestQueue — открытая на чтение очередь запросов.
type RequestQueue struct {
	name string
	conn *Connection
	ch   *amqp.Channel
}

// Name возвращает имя очереди.
func (q *RequestQueue) Name() string { return q.name }

// Get забирает одно сообщение без ожидания.
//
// Пустая очередь — ErrNoMessage. Если соединение закрывается, Get сразу
// возвращает amqp.ErrClosed, не обращаясь к брокеру.
// Чтение деструктивное (auto-ack): сообщение удаляется из очереди сразу.
func (q *RequestQueue) Get(ctx context.Context) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	if !q.conn.IsConnected() || q.ch.IsClosed() {
		return Message{}, fmt.Errorf("get from %s: %w", q.name, amqp.ErrClosed)
	}

	d, ok, err := q.ch.Get(q.name, true)
	if err != nil {
		return Message{}, fmt.Errorf("get from %s: %w", q.name, err)
	}
	if !ok {
		return Message{}, ErrNoMessage
	}

	return Message{
		ID:            d.MessageId,
		CorrelationID: d.CorrelationId,
		Body:          d.Body,
		Timestamp:     d.Timestamp,
	}, nil
}

// Close закрывает канал очереди.
func (q *RequestQueue) Close() error {
	return closeChannel(q.name, q.ch)
}

// ReplyQueue — открытая на запись очередь ответов.
type ReplyQueue struct {
	name string
	conn *Connection
	ch   *amqp.Channel
}

// Name возвращает имя очереди.
func (q *ReplyQueue) Name() string { return q.name }

// Put публикует сообщение в очередь через exchange по умолчанию.
func (q *ReplyQueue) Put(ctx context.Context, msg Message) error {
	if !q.conn.IsConnected() || q.ch.IsClosed() {
		return fmt.Errorf("put to %s: %w", q.name, amqp.ErrClosed)
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	err := q.ch.PublishWithContext(
		ctx,
		"",     // exchange по умолчанию
		q.name, // routing key = имя очереди
		false,
		false,
		amqp.Publishing{
			ContentType:   ContentTypeXML,
			DeliveryMode:  amqp.Persistent,
			MessageId:     msg.ID,
			CorrelationId: msg.CorrelationID,
			Timestamp:     ts,
			Body:          msg.Body,
		},
	)
	if err != nil {
		return fmt.Errorf("put to %s: %w", q.name, err)
	}
	return nil
}

// Close закрывает канал очереди.
func (q *ReplyQueue) Close() error {
	return closeChannel(q.name, q.ch)
}

func closeChannel(queue string, ch *amqp.Channel) error {
	if ch == nil || ch.IsClosed() {
		return nil
	}
	if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("close queue %s: %w", queue, err)
	}
	return nil
}
