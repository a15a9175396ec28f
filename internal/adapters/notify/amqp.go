package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/vipadm/api-mocker/internal/core/domain"
)

// AMQPPublisher routes change notifications through a durable topic
// exchange. A fresh channel per publish keeps one broken channel from
// poisoning subsequent deliveries.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	exchange string
	log      logrus.FieldLogger
}

func NewAMQPPublisher(url, exchange string, log logrus.FieldLogger) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{
		conn:     conn,
		exchange: exchange,
		log:      log.WithField("component", "amqp-publisher"),
	}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, topic string, n domain.ChangeNotification) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = ch.PublishWithContext(
		ctx, p.exchange, topic, false, false,
		amqp091.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp091.Persistent,
			MessageId:     n.ID,
			CorrelationId: n.DefinitionID,
			Timestamp:     time.Now(),
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.exchange, err)
	}

	p.log.WithFields(logrus.Fields{
		"topic":    topic,
		"exchange": p.exchange,
	}).Debug("notification published")
	return nil
}

func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}
