package mq

import (
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNoMessage — очередь пуста. Это не сбой: вызывающий делает паузу и
// опрашивает очередь снова.
var ErrNoMessage = errors.New("no message available")

// IsTransient сообщает, относится ли ошибка к временным ошибкам брокера,
// которые имеет смысл повторить.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrNoMessage) {
		return false
	}
	var amqpErr *amqp.Error
	return errors.As(err, &amqpErr)
}
