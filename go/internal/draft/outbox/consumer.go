package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
)

// ConsumerConfig holds configuration for a JetStream consumer of relayed draft events.
type ConsumerConfig struct {
	URL           string
	StreamName    string
	ConsumerName  string // empty for an ephemeral consumer
	SubjectFilter string // e.g., "draft.events.>"
	DeliverAll    bool   // replay the stream instead of starting at new messages
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		URL:           nats.DefaultURL,
		StreamName:    "DRAFT_EVENTS",
		SubjectFilter: "draft.events.>",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Handler processes one relayed event. Returning an error NAKs the message
// so it is redelivered.
type Handler func(ctx context.Context, ev events.Event) error

// Consumer reads draft events back off the stream.
type Consumer struct {
	nc       *nats.Conn
	consumer jetstream.Consumer
	config   ConsumerConfig
}

func NewConsumer(ctx context.Context, cfg ConsumerConfig) (*Consumer, error) {
	nc, err := Connect(cfg.URL, cfg.MaxReconnects, cfg.ReconnectWait)
	if err != nil {
		return nil, err
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	stream, err := js.Stream(ctx, cfg.StreamName)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("get stream: %w", err)
	}
	consumer, err := stream.CreateOrUpdateConsumer(ctx, consumerConfig(cfg))
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create consumer: %w", err)
	}

	log.Info().
		Str("consumer", cfg.ConsumerName).
		Str("stream", cfg.StreamName).
		Str("filter", cfg.SubjectFilter).
		Msg("JetStream consumer ready")

	return &Consumer{nc: nc, consumer: consumer, config: cfg}, nil
}

func consumerConfig(cfg ConsumerConfig) jetstream.ConsumerConfig {
	cc := jetstream.ConsumerConfig{
		Name:          cfg.ConsumerName,
		Durable:       cfg.ConsumerName,
		Description:   "Draft event consumer",
		FilterSubject: cfg.SubjectFilter,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    cfg.MaxDeliver,
		AckWait:       cfg.AckWait,
		MaxAckPending: cfg.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	}
	if cfg.DeliverAll {
		cc.DeliverPolicy = jetstream.DeliverAllPolicy
	}
	if cfg.ConsumerName == "" {
		cc.InactiveThreshold = time.Minute
	}
	return cc
}

// Start hands every message to handle until ctx is done.
func (c *Consumer) Start(ctx context.Context, handle Handler) error {
	messageCh := make(chan jetstream.Msg, c.config.MaxAckPending)

	consumeCtx, err := c.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			_ = msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event consumer shutting down")
			return nil
		case msg := <-messageCh:
			ev, err := decodeMsg(msg.Data())
			if err != nil {
				log.Error().Err(err).Str("subject", msg.Subject()).Msg("dropping malformed message")
				if termErr := msg.Term(); termErr != nil {
					log.Error().Err(termErr).Msg("failed to terminate message")
				}
				continue
			}
			if err := handle(ctx, ev); err != nil {
				log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process message")
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error().Err(nakErr).Msg("failed to NAK message")
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		}
	}
}

func (c *Consumer) Close() {
	c.nc.Close()
}

func decodeMsg(data []byte) (events.Event, error) {
	var ev events.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return events.Event{}, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if ev.Type == "" {
		return events.Event{}, fmt.Errorf("event envelope has no type")
	}
	return ev, nil
}
