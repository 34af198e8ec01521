package gateway

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Service bundles the spectator gateway: sockets, board reads and an
// optional JetStream feed.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	eventConsumer     *EventConsumer
}

type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
}

func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
	}
}

// NewService builds a gateway fed in-process through Manager().Notify.
func NewService(config Config, provider StateProvider) *Service {
	cm := NewConnectionManager(config.ConnectionConfig)
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, provider),
		stateHandler:      NewStateHandler(provider),
	}
}

// NewJetStreamService builds a gateway fed from the event stream.
func NewJetStreamService(ctx context.Context, config Config, provider StateProvider) (*Service, error) {
	s := NewService(config, provider)
	ec, err := NewEventConsumer(ctx, s.connectionManager, config.JetStreamConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create event consumer: %w", err)
	}
	s.eventConsumer = ec
	return s, nil
}

// Manager exposes the connection manager, which implements draft.Notifier.
func (s *Service) Manager() *ConnectionManager {
	return s.connectionManager
}

// Start runs until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting draft gateway service")

	go s.connectionManager.Start(ctx)

	if s.eventConsumer != nil {
		go func() {
			if err := s.eventConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	<-ctx.Done()

	log.Info().Msg("draft gateway service shutting down")
	return s.Stop()
}

func (s *Service) Stop() error {
	if s.eventConsumer != nil {
		if err := s.eventConsumer.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop event consumer")
		}
	}
	log.Info().Msg("draft gateway service stopped")
	return nil
}

// RegisterRoutes mounts the socket, stats and board routes.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Get("/ws/draft", s.wsHandler.HandleDraftConnection)
	r.Get("/ws/stats", s.wsHandler.HandleConnectionStats)
	r.Get("/api/drafts/{draftID}/board", s.stateHandler.HandleGetBoard)
	log.Info().Msg("draft gateway routes registered")
}
