package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// QueueConfig описывает очередь и ключ маршрутизации, с которым она привязана к обменнику.
//
// При DeadLetter отклонённые сообщения уходят в обменник <exchange>.dlx
// и оседают в очереди <queue>.dead с тем же ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
	DeadLetter bool
}

// Routing keys событий журнала кредитов.
const (
	RoutingKeyPurchased = "credits.purchased"
	RoutingKeyUsed      = "credits.used"
)

const (
	deadLetterExchangeSuffix = ".dlx"
	deadLetterQueueSuffix    = ".dead"
)

// DeadLetterQueue возвращает имя очереди отклонённых сообщений для queue.
func DeadLetterQueue(queue string) string {
	return queue + deadLetterQueueSuffix
}

// PurchaseQueues возвращает очереди консьюмера подтверждённых покупок.
func PurchaseQueues(queue, routingKey string) []QueueConfig {
	return []QueueConfig{
		{QueueName: queue, RoutingKey: routingKey, DeadLetter: true},
	}
}

// SetupChannel открывает канал, объявляет обменник exchange и привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, exchange string, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(maxInFlight, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		var args amqp.Table
		if q.DeadLetter {
			dlx := exchange + deadLetterExchangeSuffix
			if err := declareDeadLetter(ch, dlx, q); err != nil {
				_ = ch.Close()
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			args = amqp.Table{"x-dead-letter-exchange": dlx}
		}

		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			args,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			exchange,
			false,
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}

func declareDeadLetter(ch *amqp.Channel, dlx string, q QueueConfig) error {
	if err := ch.ExchangeDeclare(dlx, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead letter exchange %s: %w", dlx, err)
	}
	dead := DeadLetterQueue(q.QueueName)
	if _, err := ch.QueueDeclare(dead, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead letter queue %s: %w", dead, err)
	}
	if err := ch.QueueBind(dead, q.RoutingKey, dlx, false, nil); err != nil {
		return fmt.Errorf("failed to bind dead letter queue %s: %w", dead, err)
	}
	return nil
}
