// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/utils"
	"github.com/MKhiriev/go-flock-sync/models"
)

// realtimeSSE streams server frames as Server-Sent Events. The subscription
// set is fixed at dial time from repeated "channel" query parameters;
// EventSource cannot send frames, so changing channels means redialing.
func (h *Handler) realtimeSSE(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	identity, ok := utils.GetIdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Err(ErrStreamingUnsupported).Str("func", "*Handler.realtimeSSE").Send()
		http.Error(w, ErrStreamingUnsupported.Error(), http.StatusInternalServerError)
		return
	}

	conn := h.services.Broadcaster.Register(identity)
	defer h.services.Broadcaster.Unregister(conn)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, name := range r.URL.Query()["channel"] {
		frame := models.ServerFrame{Kind: models.ServerFrameSubscribed, Channel: name}
		if err := conn.Subscribe(name); err != nil {
			frame = models.ServerFrame{
				Kind:    models.ServerFrameError,
				Channel: name,
				Error:   err.Error(),
			}
		}
		if err := writeSSEFrame(w, frame); err != nil {
			return
		}
	}
	flusher.Flush()

	ticker := time.NewTicker(h.realtime.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-conn.Done():
			return
		case frame := <-conn.Frames():
			if err := writeSSEFrame(w, frame); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			// comment line keeps intermediaries from idling the stream out
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSEFrame(w http.ResponseWriter, frame models.ServerFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("error marshaling sse frame: %w", err)
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
