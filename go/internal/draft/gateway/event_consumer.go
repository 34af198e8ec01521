package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/snakedraft/go/internal/draft/events"
	"github.com/mcdev12/snakedraft/go/internal/draft/outbox"
)

// errMalformed marks messages that redelivery cannot fix.
var errMalformed = errors.New("malformed event")

type JetStreamConsumerConfig struct {
	Stream        outbox.JetStreamConfig
	ConsumerName  string
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
}

func DefaultJetStreamConsumerConfig() JetStreamConsumerConfig {
	return JetStreamConsumerConfig{
		Stream:        outbox.DefaultJetStreamConfig(),
		ConsumerName:  "draft-gateway",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
	}
}

// Broadcaster receives decoded events.
type Broadcaster interface {
	BroadcastToDraft(draftID uuid.UUID, event *DraftEvent)
}

// EventConsumer feeds a Broadcaster from the draft event stream.
type EventConsumer struct {
	broadcaster Broadcaster
	nc          *nats.Conn
	js          jetstream.JetStream
	consumer    jetstream.Consumer
	config      JetStreamConsumerConfig
}

func NewEventConsumer(ctx context.Context, b Broadcaster, config JetStreamConsumerConfig) (*EventConsumer, error) {
	nc, err := outbox.Connect(config.Stream)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	ec := &EventConsumer{
		broadcaster: b,
		nc:          nc,
		js:          js,
		config:      config,
	}

	if err := ec.ensureConsumer(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}

	return ec, nil
}

// ensureConsumer creates the stream if the relay has not yet, then the
// durable consumer. Spectators get history from the snapshot, so delivery
// starts at new messages.
func (ec *EventConsumer) ensureConsumer(ctx context.Context) error {
	if err := outbox.EnsureStream(ctx, ec.js, ec.config.Stream); err != nil {
		return err
	}

	consumer, err := ec.js.CreateOrUpdateConsumer(ctx, ec.config.Stream.StreamName, jetstream.ConsumerConfig{
		Name:          ec.config.ConsumerName,
		Durable:       ec.config.ConsumerName,
		Description:   "Draft gateway WebSocket consumer",
		FilterSubject: ec.config.Stream.SubjectPrefix + ".>",
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    ec.config.MaxDeliver,
		AckWait:       ec.config.AckWait,
		MaxAckPending: ec.config.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}

	log.Info().
		Str("consumer", ec.config.ConsumerName).
		Str("stream", ec.config.Stream.StreamName).
		Msg("JetStream consumer ready")

	ec.consumer = consumer
	return nil
}

// Start consumes until ctx is cancelled.
func (ec *EventConsumer) Start(ctx context.Context) error {
	log.Info().
		Str("consumer", ec.config.ConsumerName).
		Str("stream", ec.config.Stream.StreamName).
		Msg("starting JetStream event consumer")

	messageCh := make(chan jetstream.Msg, 100)

	consumeCtx, err := ec.consumer.Consume(func(msg jetstream.Msg) {
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
			ec.handle(msg)
		}
	}
}

func (ec *EventConsumer) handle(msg jetstream.Msg) {
	err := ec.processMessage(msg)
	switch {
	case err == nil:
		if ackErr := msg.Ack(); ackErr != nil {
			log.Error().Err(ackErr).Msg("failed to ACK message")
		}
	case errors.Is(err, errMalformed):
		log.Error().Err(err).Str("subject", msg.Subject()).Msg("dropping malformed message")
		if termErr := msg.Term(); termErr != nil {
			log.Error().Err(termErr).Msg("failed to TERM message")
		}
	default:
		log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process message")
		if nakErr := msg.Nak(); nakErr != nil {
			log.Error().Err(nakErr).Msg("failed to NAK message")
		}
	}
}

func (ec *EventConsumer) processMessage(msg jetstream.Msg) error {
	var env events.Envelope
	if err := json.Unmarshal(msg.Data(), &env); err != nil {
		return fmt.Errorf("%w: %w", errMalformed, err)
	}
	if env.DraftID == uuid.Nil {
		return fmt.Errorf("%w: missing draft id", errMalformed)
	}

	ec.broadcaster.BroadcastToDraft(env.DraftID, FromEnvelope(env))

	log.Debug().
		Str("event_id", env.EventID.String()).
		Str("draft_id", env.DraftID.String()).
		Str("event_type", string(env.EventType)).
		Msg("event broadcasted to WebSocket clients")
	return nil
}

func (ec *EventConsumer) Stop() error {
	log.Info().Msg("stopping event consumer")
	if ec.nc != nil {
		ec.nc.Close()
	}
	return nil
}
