package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades spectator connections.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	stateProvider     StateProvider
}

// NewWebSocketHandler builds the handler. A nil provider skips the
// snapshot frame and the existence check.
func NewWebSocketHandler(cm *ConnectionManager, provider StateProvider) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		stateProvider:     provider,
	}
}

// HandleDraftConnection serves /ws/draft?draft_id=<uuid>[&viewer=<label>].
func (h *WebSocketHandler) HandleDraftConnection(w http.ResponseWriter, r *http.Request) {
	draftIDStr := r.URL.Query().Get("draft_id")
	if draftIDStr == "" {
		http.Error(w, "draft_id is required", http.StatusBadRequest)
		return
	}
	draftID, err := uuid.Parse(draftIDStr)
	if err != nil {
		http.Error(w, "invalid draft_id format", http.StatusBadRequest)
		return
	}

	viewer := r.URL.Query().Get("viewer")
	if viewer == "" {
		viewer = "anonymous"
	}

	var snapshot *DraftEvent
	if h.stateProvider != nil {
		board, err := h.stateProvider.GetBoard(r.Context(), draftID)
		if err != nil {
			if isNotFound(err) {
				http.Error(w, "draft not found", http.StatusNotFound)
				return
			}
			log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to load board for snapshot")
			http.Error(w, "failed to load draft", http.StatusInternalServerError)
			return
		}
		data, err := json.Marshal(board)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal board snapshot")
			http.Error(w, "failed to load draft", http.StatusInternalServerError)
			return
		}
		snapshot = &DraftEvent{
			ID:        uuid.New().String(),
			DraftID:   draftID.String(),
			Type:      EventTypeBoardSnapshot,
			Timestamp: time.Now().UTC(),
			Data:      data,
		}
	}

	// the upgrader has already written an error response on failure
	if err := h.connectionManager.UpgradeConnection(w, r, viewer, draftID, snapshot); err != nil {
		log.Error().
			Err(err).
			Str("draft_id", draftID.String()).
			Str("viewer", viewer).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats serves /ws/stats.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.Stats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
