package http

import (
	"crypto/hmac"
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
)

const broadcastKeyHeader = "X-Broadcast-Key"

// broadcast is the trusted ingest endpoint: the application backend posts an
// event envelope here and the hub fans it out. The caller authenticates with
// the shared broadcast key, not a user token.
func (h *Handler) broadcast(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	key := r.Header.Get(broadcastKeyHeader)
	if h.app.BroadcastKey == "" || !hmac.Equal([]byte(key), []byte(h.app.BroadcastKey)) {
		log.Err(ErrInvalidBroadcastKey).Str("func", "*Handler.broadcast").Send()
		http.Error(w, ErrInvalidBroadcastKey.Error(), http.StatusUnauthorized)
		return
	}

	var req models.BroadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.broadcast").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if req.Event.EventID == "" || req.Event.Type == "" {
		http.Error(w, "event_id and type are required", http.StatusBadRequest)
		return
	}

	if err := h.services.Broadcaster.Broadcast(r.Context(), req); err != nil {
		log.Err(err).Str("func", "*Handler.broadcast").Msg("error broadcasting event")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
