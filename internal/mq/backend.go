package mq

import (
	"context"
	"fmt"

	"github.com/viajesoeste/apiserver/config"
)

// Open connects to the broker selected by cfg.MQ.Driver. It returns nil when
// event publishing is disabled.
func Open(ctx context.Context, cfg config.Config) (*MQ, error) {
	switch cfg.MQ.Driver {
	case config.MQDriverNone, "":
		return nil, nil
	case config.MQDriverRabbitMQ:
		client, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return New(client), nil
	case config.MQDriverPubSub:
		client, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq driver %q", cfg.MQ.Driver)
	}
}
