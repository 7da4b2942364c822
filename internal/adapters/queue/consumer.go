// Package queue consumes booking events from RabbitMQ. It is the
// second delivery path next to the webhook; both feed the same ingest
// service.
package queue

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"guest_concierge/internal/app"
	"guest_concierge/internal/domain"
)

const (
	exchangeName = "booking-events"
	exchangeKind = "topic"
	queueName    = "concierge.booking-events"
	bindingKey   = "booking.*"
)

// eventProcessor is the slice of the ingest service the consumer needs.
type eventProcessor interface {
	ProcessEvent(ctx context.Context, raw []byte) (app.IngestResult, error)
}

type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	ingest  eventProcessor
}

func NewConsumer(url string, ingest *app.IngestService) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, exchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}
	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, bindingKey, exchangeName, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp queue bind: %w", err)
	}

	return &Consumer{conn: conn, channel: ch, ingest: ingest}, nil
}

// Run consumes until the context is cancelled or the channel closes.
// Manual acks only: a malformed event is dropped (nack, no requeue), a
// transient failure is requeued for redelivery.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}
	log.Info().Str("queue", queueName).Msg("consuming booking events")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	res, err := c.ingest.ProcessEvent(ctx, d.Body)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedEvent) {
			log.Warn().Str("routing_key", d.RoutingKey).Err(err).Msg("dropping malformed event")
			_ = d.Nack(false, false)
			return
		}
		log.Error().Str("routing_key", d.RoutingKey).Err(err).Msg("event processing failed, requeueing")
		_ = d.Nack(false, true)
		return
	}

	log.Info().
		Str("routing_key", d.RoutingKey).
		Str("status", res.Status).
		Str("booking_id", res.BookingID).
		Msg("event processed")
	_ = d.Ack(false)
}

func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
