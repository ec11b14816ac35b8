package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// ConsumerConfig holds NATS subscription settings for the gateway.
type ConsumerConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConsumerConfig subscribes to everything the outbox publishes.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		URL:           nats.DefaultURL,
		Subject:       "league.>",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// EventConsumer bridges the NATS event bus to websocket clients.
type EventConsumer struct {
	cm     *ConnectionManager
	nc     *nats.Conn
	sub    *nats.Subscription
	config ConsumerConfig
	log    zerolog.Logger
}

func NewEventConsumer(cm *ConnectionManager, config ConsumerConfig, log zerolog.Logger) (*EventConsumer, error) {
	logger := log.With().Str("component", "gateway-consumer").Logger()

	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &EventConsumer{
		cm:     cm,
		nc:     nc,
		config: config,
		log:    logger,
	}, nil
}

// Start subscribes and forwards every event to the connection manager.
func (ec *EventConsumer) Start() error {
	sub, err := ec.nc.Subscribe(ec.config.Subject, func(msg *nats.Msg) {
		var event LeagueEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			ec.log.Warn().Err(err).Str("subject", msg.Subject).Msg("unparseable event skipped")
			return
		}
		ec.cm.Broadcast(event.EventType, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", ec.config.Subject, err)
	}
	ec.sub = sub

	ec.log.Info().Str("subject", ec.config.Subject).Msg("event consumer started")
	return nil
}

// Stop drains the subscription and closes the connection.
func (ec *EventConsumer) Stop() {
	if ec.sub != nil {
		_ = ec.sub.Drain()
	}
	ec.nc.Close()
	ec.log.Info().Msg("event consumer stopped")
}
