package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type ListenerConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to poll for missed events
	MaxRetries       int
	RetryDelay       time.Duration
	PingInterval     time.Duration
	BatchSize        int // Max events to fetch per batch
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel:    "draft_outbox_events",
		FallbackInterval: 30 * time.Second,
		MaxRetries:       5,
		RetryDelay:       200 * time.Millisecond,
		PingInterval:     90 * time.Second,
		BatchSize:        100,
	}
}

// Source is the slice of the outbox table the relay needs.
type Source interface {
	FetchByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error)
	FetchUnsent(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// Publisher puts one outbox event on the bus.
type Publisher interface {
	Publish(ctx context.Context, event OutboxEvent) error
}

// Listener relays draft_outbox rows to a Publisher. Inserts wake it through
// LISTEN/NOTIFY and a periodic poll catches anything the notifications missed.
type Listener struct {
	source    Source
	listener  *pq.Listener
	publisher Publisher
	cfg       ListenerConfig
}

func NewListener(source Source, publisher Publisher, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for notifications")

	return &Listener{
		source:    source,
		listener:  l,
		publisher: publisher,
		cfg:       cfg,
	}, nil
}

// Start relays until ctx is cancelled. The backlog is drained first.
func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Msg("listener started")

	if err := l.processUnsent(ctx); err != nil {
		log.Error().Err(err).Msg("failed to drain outbox backlog")
	}

	pingTicker := time.NewTicker(l.cfg.PingInterval)
	fallbackTicker := time.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// connection was re-established; notifications may have been lost
				if err := l.processUnsent(ctx); err != nil {
					log.Error().Err(err).Msg("failed to process unsent events after reconnect")
				}
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-fallbackTicker.C:
			if err := l.processUnsent(ctx); err != nil {
				log.Error().Err(err).Msg("failed to process unsent events")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	if l.listener == nil {
		return nil
	}
	return l.listener.Close()
}

// handleNotification relays the row whose id arrived as the notify payload.
func (l *Listener) handleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}

	event, err := l.source.FetchByID(ctx, id)
	if errors.Is(err, ErrNotPending) {
		log.Debug().Str("event_id", id.String()).Msg("outbox event already relayed")
		return nil
	}
	if err != nil {
		return err
	}

	return l.relay(ctx, *event)
}

// processUnsent relays one batch of the backlog. A failed event is left for
// the next pass and does not block the rest of the batch.
func (l *Listener) processUnsent(ctx context.Context) error {
	unsent, err := l.source.FetchUnsent(ctx, l.cfg.BatchSize)
	if err != nil {
		return err
	}

	var failed int
	for _, event := range unsent {
		if err := l.relay(ctx, event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to relay event")
		}
	}
	if len(unsent) > 0 {
		log.Debug().Int("count", len(unsent)).Int("failed", failed).Msg("processed outbox backlog")
	}
	return nil
}

func (l *Listener) relay(ctx context.Context, event OutboxEvent) error {
	if err := l.publishWithRetry(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := l.source.MarkSent(ctx, event.ID); err != nil {
		return err
	}
	log.Info().
		Str("event_id", event.ID.String()).
		Str("event_type", event.EventType).
		Msg("published and marked event as sent")
	return nil
}

// publishWithRetry publishes with a linearly growing delay between attempts.
func (l *Listener) publishWithRetry(ctx context.Context, event OutboxEvent) error {
	var lastErr error

	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := l.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := l.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Error().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return fmt.Errorf("publish failed after %d attempts: %w", l.cfg.MaxRetries+1, lastErr)
}
