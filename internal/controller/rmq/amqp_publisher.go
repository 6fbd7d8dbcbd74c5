package rmq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"png_compression/config"
	"png_compression/entity"
	"png_compression/pkg/logger"
	"png_compression/pkg/rabbitmq"
)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher announces finished compressions on a topic exchange.
type AMQPPublisher struct {
	amqpConn   *amqp.Connection
	amqpChan   channel
	exchange   string
	routingKey string
	l          logger.Interface
}

var _ entity.EventPublisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher dials the broker, declares the exchange and, when
// cfg.Queue is set, a durable queue bound to the routing key.
func NewAMQPPublisher(cfg config.RMQ, l logger.Interface) (*AMQPPublisher, error) {
	mqConn, err := rabbitmq.NewRabbitMQConn(cfg.URL)
	if err != nil {
		return nil, err
	}
	amqpChan, err := mqConn.Channel()
	if err != nil {
		_ = mqConn.Close()
		return nil, errors.Wrap(err, "amqpConn.Channel")
	}

	p := newPublisher(amqpChan, cfg, l)
	p.amqpConn = mqConn

	if err := p.SetupExchangeAndQueue(cfg.Exchange, cfg.Queue, cfg.RoutingKey); err != nil {
		_ = p.Close()
		return nil, err
	}

	return p, nil
}

func newPublisher(ch channel, cfg config.RMQ, l logger.Interface) *AMQPPublisher {
	return &AMQPPublisher{
		amqpChan:   ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		l:          l,
	}
}

// SetupExchangeAndQueue declares exchange, then queueName bound by bindingKey
// if queueName is not empty.
func (p *AMQPPublisher) SetupExchangeAndQueue(exchange, queueName, bindingKey string) error {
	p.l.Info("Declaring exchange: %s", exchange)
	err := p.amqpChan.ExchangeDeclare(
		exchange,
		exchangeKind,
		exchangeDurable,
		exchangeAutoDelete,
		exchangeInternal,
		exchangeNoWait,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "Error ch.ExchangeDeclare")
	}

	if queueName == "" {
		return nil
	}

	queue, err := p.amqpChan.QueueDeclare(
		queueName,
		queueDurable,
		queueAutoDelete,
		queueExclusive,
		queueNoWait,
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "Error ch.QueueDeclare")
	}

	p.l.Info("Declared queue %s (messages: %d), binding to exchange %s with key %s",
		queue.Name, queue.Messages, exchange, bindingKey)

	if err := p.amqpChan.QueueBind(queue.Name, bindingKey, exchange, queueNoWait, nil); err != nil {
		return errors.Wrap(err, "Error ch.QueueBind")
	}

	return nil
}

// Publish sends body to the configured exchange and routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, contentType string, body []byte) error {
	_, span := otel.Tracer(traceName).Start(ctx, "Publish")
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.destination", p.exchange),
		attribute.String("messaging.rabbitmq.routing_key", p.routingKey),
	)

	if err := p.amqpChan.Publish(
		p.exchange,
		p.routingKey,
		publishMandatory,
		publishImmediate,
		amqp.Publishing{
			ContentType:  contentType,
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.New().String(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	); err != nil {
		return errors.Wrap(err, "ch.Publish")
	}

	return nil
}

func (p *AMQPPublisher) PublishCompressed(ctx context.Context, ev entity.CompressionEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal compression event")
	}
	return p.Publish(ctx, contentTypeJSON, body)
}

// Close closes the channel and, if the publisher dialed it, the connection.
func (p *AMQPPublisher) Close() error {
	if err := p.amqpChan.Close(); err != nil {
		p.l.Error(err, "AMQPPublisher - Close - channel")
		return err
	}
	if p.amqpConn != nil {
		return p.amqpConn.Close()
	}
	return nil
}
