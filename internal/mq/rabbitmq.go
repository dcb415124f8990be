package mq

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/viajesoeste/apiserver/config"
)

const exchangeKind = "topic"

// RabbitMQClient publishes to one topic exchange per channel. Event type
// attributes become routing keys, so consumers can bind to a subset.
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	durable bool
	queue   string
}

// NewRabbitMQClient dials cfg.URL and opens a single AMQP channel.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: ch,
		durable: cfg.Durable,
		queue:   strings.TrimSpace(cfg.Queue),
	}, nil
}

// Publish sends data to the exchange named channel. Messages are dropped by
// the broker when no queue is bound.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("rabbitmq channel is required")
	}
	if err := r.declareExchange(channel); err != nil {
		return "", err
	}

	msg := amqp.Publishing{
		ContentType:  "application/octet-stream",
		DeliveryMode: amqp.Transient,
		Timestamp:    time.Now().UTC(),
		MessageId:    newMessageID(),
		Headers:      amqp.Table{},
		Body:         data,
	}
	if r.durable {
		msg.DeliveryMode = amqp.Persistent
	}
	routingKey := channel
	for key, value := range attrs {
		switch key {
		case AttrContentType:
			msg.ContentType = value
		case AttrEventType:
			routingKey = value
			msg.Type = value
		default:
			msg.Headers[key] = value
		}
	}

	if err := r.channel.PublishWithContext(ctx, channel, routingKey, false, false, msg); err != nil {
		return "", fmt.Errorf("rabbitmq publish to %s: %w", channel, err)
	}
	return msg.MessageId, nil
}

// Subscribe binds a queue to every routing key of the channel exchange and
// consumes it until ctx is done. With a configured queue name consumers share
// the queue; otherwise each subscriber gets a private queue removed on exit.
// A failing handler gets one redelivery before the message is dropped.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}
	if err := r.declareExchange(channel); err != nil {
		return err
	}

	queue, err := r.bindQueue(channel)
	if err != nil {
		return err
	}

	consumerTag := "viajes-" + newMessageID()
	deliveries, err := r.channel.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq consume %s: %w", queue, err)
	}
	defer func() {
		_ = r.channel.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			if err := handler(ctx, deliveryMessage(delivery)); err != nil {
				_ = delivery.Nack(false, !delivery.Redelivered)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) declareExchange(name string) error {
	if err := r.channel.ExchangeDeclare(name, exchangeKind, r.durable, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq declare exchange %s: %w", name, err)
	}
	return nil
}

func (r *RabbitMQClient) bindQueue(exchange string) (string, error) {
	var (
		q   amqp.Queue
		err error
	)
	if r.queue != "" {
		q, err = r.channel.QueueDeclare(r.queue, r.durable, false, false, false, nil)
	} else {
		q, err = r.channel.QueueDeclare("", false, true, true, false, nil)
	}
	if err != nil {
		return "", fmt.Errorf("rabbitmq declare queue: %w", err)
	}
	if err := r.channel.QueueBind(q.Name, "#", exchange, false, nil); err != nil {
		return "", fmt.Errorf("rabbitmq bind %s to %s: %w", q.Name, exchange, err)
	}
	return q.Name, nil
}

func deliveryMessage(delivery amqp.Delivery) Message {
	attrs := headersToAttributes(delivery.Headers)
	if delivery.ContentType != "" {
		attrs[AttrContentType] = delivery.ContentType
	}
	if delivery.Type != "" {
		attrs[AttrEventType] = delivery.Type
	} else if delivery.RoutingKey != "" {
		attrs[AttrEventType] = delivery.RoutingKey
	}
	return Message{
		ID:         delivery.MessageId,
		Data:       delivery.Body,
		Attributes: attrs,
	}
}

func headersToAttributes(headers amqp.Table) map[string]string {
	attrs := make(map[string]string, len(headers)+2)
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}

func newMessageID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(buf[:])
}
