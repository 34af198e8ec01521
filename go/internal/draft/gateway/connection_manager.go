package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/snakedraft/go/internal/draft"
	"github.com/mcdev12/snakedraft/go/internal/draft/events"
)

// ConnectionManager fans draft events out to spectator sockets, grouped by
// draft. Spectators are read-only; commands go through the RPC service.
type ConnectionManager struct {
	draftConnections map[uuid.UUID]map[*Connection]bool
	mu               sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection is one spectator socket.
type Connection struct {
	ID      string
	Viewer  string
	DraftID uuid.UUID
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
}

type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is one event addressed to a draft's spectators.
type BroadcastMessage struct {
	DraftID uuid.UUID
	Event   *DraftEvent
}

// ConnectionStats summarises open sockets.
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveDrafts     int            `json:"active_drafts"`
	DraftConnections map[string]int `json:"draft_connections"`
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	if config.SendBufferSize < 1 {
		config.SendBufferSize = 1
	}
	return &ConnectionManager{
		draftConnections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start processes broadcasts until ctx is cancelled, then closes every socket.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// Notify implements draft.Notifier for in-process delivery.
func (cm *ConnectionManager) Notify(_ context.Context, evs []events.Envelope) error {
	for _, ev := range evs {
		cm.BroadcastToDraft(ev.DraftID, FromEnvelope(ev))
	}
	return nil
}

var _ draft.Notifier = (*ConnectionManager)(nil)

// UpgradeConnection upgrades the request and queues snapshot as the first
// frame the client sees.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, viewer string, draftID uuid.UUID, snapshot *DraftEvent) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Viewer:      viewer,
		DraftID:     draftID,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	if snapshot != nil {
		data, err := json.Marshal(snapshot)
		if err != nil {
			conn.Close()
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}
		connection.Send <- data
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("viewer", viewer).
		Str("draft_id", draftID.String()).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.draftConnections[conn.DraftID] == nil {
		cm.draftConnections[conn.DraftID] = make(map[*Connection]bool)
	}
	cm.draftConnections[conn.DraftID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("draft_id", conn.DraftID.String()).
		Int("total_connections", len(cm.draftConnections[conn.DraftID])).
		Msg("connection registered")
}

// unregisterConnection is safe to call more than once per connection.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	connections, exists := cm.draftConnections[conn.DraftID]
	if !exists || !connections[conn] {
		return
	}
	delete(connections, conn)
	close(conn.Send)
	if len(connections) == 0 {
		delete(cm.draftConnections, conn.DraftID)
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("viewer", conn.Viewer).
		Str("draft_id", conn.DraftID.String()).
		Msg("connection unregistered")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	var all []*Connection
	for _, connections := range cm.draftConnections {
		for conn := range connections {
			all = append(all, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range all {
		cm.unregisterConnection(conn)
	}
}

// BroadcastToDraft queues event for every spectator of draftID. It never
// blocks; a full queue drops the event.
func (cm *ConnectionManager) BroadcastToDraft(draftID uuid.UUID, event *DraftEvent) {
	select {
	case cm.broadcastCh <- BroadcastMessage{DraftID: draftID, Event: event}:
	default:
		log.Warn().Str("draft_id", draftID.String()).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	eventData, err := json.Marshal(message.Event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	var slow []*Connection
	cm.mu.RLock()
	connections := cm.draftConnections[message.DraftID]
	for conn := range connections {
		select {
		case conn.Send <- eventData:
		default:
			slow = append(slow, conn)
		}
	}
	sent := len(connections) - len(slow)
	cm.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().
			Str("connection_id", conn.ID).
			Str("viewer", conn.Viewer).
			Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
	}

	log.Debug().
		Str("event_type", string(message.Event.Type)).
		Str("draft_id", message.DraftID.String()).
		Int("connections", sent).
		Msg("event broadcasted")
}

// Stats returns counts of open sockets per draft.
func (cm *ConnectionManager) Stats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		ActiveDrafts:     len(cm.draftConnections),
		DraftConnections: make(map[string]int, len(cm.draftConnections)),
	}
	for draftID, connections := range cm.draftConnections {
		stats.TotalConnections += len(connections)
		stats.DraftConnections[draftID.String()] = len(connections)
	}
	return stats
}

// writePump owns all writes to the socket.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		log.Debug().
			Str("connection_id", c.ID).
			Int("bytes", len(message)).
			Msg("ignoring client message")
		_ = c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
