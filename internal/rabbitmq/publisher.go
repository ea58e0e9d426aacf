package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/card-credits/internal/models"
)

// Channel — часть amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EventPublisher публикует события журнала кредитов в обменник.
// amqp.Channel не безопасен для конкурентной публикации, поэтому вызовы сериализуются.
type EventPublisher struct {
	mu       sync.Mutex
	ch       Channel
	exchange string
}

// NewEventPublisher создаёт EventPublisher.
func NewEventPublisher(ch Channel, exchange string) *EventPublisher {
	return &EventPublisher{ch: ch, exchange: exchange}
}

// Publish отправляет событие с ключом credits.purchased или credits.used.
func (p *EventPublisher) Publish(ctx context.Context, event models.LedgerEvent) error {
	const op = "rabbitmq.EventPublisher.Publish"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var routingKey string
	switch event.Type {
	case models.TransactionPurchase:
		routingKey = RoutingKeyPurchased
	case models.TransactionUsage:
		routingKey = RoutingKeyUsed
	default:
		return fmt.Errorf("%s: unsupported event type %q", op, event.Type)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := PublishMessage(p.ch, p.exchange, routingKey, event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
