package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StateHandler serves board reads for clients that poll instead of
// holding a socket open.
type StateHandler struct {
	stateProvider StateProvider
}

func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{stateProvider: provider}
}

// HandleGetBoard handles GET /api/drafts/{draftID}/board.
func (h *StateHandler) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		http.Error(w, "invalid draft ID format", http.StatusBadRequest)
		return
	}

	board, err := h.stateProvider.GetBoard(r.Context(), draftID)
	if err != nil {
		if isNotFound(err) {
			http.Error(w, "draft not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to get board")
		http.Error(w, "failed to get board", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, board)
}
