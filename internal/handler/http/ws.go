// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/service"
	"github.com/MKhiriev/go-flock-sync/internal/utils"
	"github.com/MKhiriev/go-flock-sync/models"
	"github.com/gorilla/websocket"
)

// wsSession serializes writes to one WebSocket connection. The read pump
// (subscription acks) and the write pump (events, pings) both write; gorilla
// permits only one concurrent writer.
type wsSession struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (s *wsSession) writeJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.WriteJSON(v)
}

func (s *wsSession) writeControl(messageType int, deadline time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws.WriteControl(messageType, nil, deadline)
}

// realtimeWS upgrades the request and runs the realtime session: inbound
// subscription frames, outbound event frames, server-side heartbeat.
func (h *Handler) realtimeWS(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	identity, ok := utils.GetIdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request
		log.Err(err).Str("func", "*Handler.realtimeWS").Msg("websocket upgrade failed")
		return
	}

	session := &wsSession{ws: ws}
	conn := h.services.Broadcaster.Register(identity)
	defer func() {
		h.services.Broadcaster.Unregister(conn)
		_ = ws.Close()
	}()

	// channels requested at dial time, before the first frame exchange
	for _, name := range r.URL.Query()["channel"] {
		h.applySubscription(session, conn, name)
	}

	go h.wsWritePump(session, conn)
	h.wsReadPump(session, conn, log)
}

// wsReadPump consumes subscription frames until the peer goes away. The read
// deadline is twice the heartbeat interval, refreshed on every pong.
func (h *Handler) wsReadPump(session *wsSession, conn *service.BroadcastConn, log *logger.Logger) {
	heartbeat := h.realtime.HeartbeatInterval

	_ = session.ws.SetReadDeadline(time.Now().Add(2 * heartbeat))
	session.ws.SetPongHandler(func(string) error {
		return session.ws.SetReadDeadline(time.Now().Add(2 * heartbeat))
	})

	for {
		var frame models.SubscriptionFrame
		if err := session.ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("func", "*Handler.wsReadPump").Msg("websocket read ended")
			}
			return
		}

		switch frame.Action {
		case models.FrameSubscribe:
			h.applySubscription(session, conn, frame.Channel)
		case models.FrameUnsubscribe:
			conn.Unsubscribe(frame.Channel)
		}
	}
}

// wsWritePump drains broadcast frames into the socket and keeps the
// heartbeat going. It exits when the hub drops the connection or a write
// fails; closing the socket unblocks the read pump.
func (h *Handler) wsWritePump(session *wsSession, conn *service.BroadcastConn) {
	ticker := time.NewTicker(h.realtime.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-conn.Done():
			deadline := time.Now().Add(time.Second)
			_ = session.writeControl(websocket.CloseMessage, deadline)
			_ = session.ws.Close()
			return
		case frame := <-conn.Frames():
			if err := session.writeJSON(frame); err != nil {
				_ = session.ws.Close()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(h.realtime.HeartbeatInterval / 2)
			if err := session.writeControl(websocket.PingMessage, deadline); err != nil {
				_ = session.ws.Close()
				return
			}
		}
	}
}

// applySubscription authorizes one channel subscription and answers with a
// subscribed or error frame. A rejected channel leaves the connection open.
func (h *Handler) applySubscription(session *wsSession, conn *service.BroadcastConn, channel string) {
	if err := conn.Subscribe(channel); err != nil {
		_ = session.writeJSON(models.ServerFrame{
			Kind:    models.ServerFrameError,
			Channel: channel,
			Error:   err.Error(),
		})
		return
	}

	_ = session.writeJSON(models.ServerFrame{
		Kind:    models.ServerFrameSubscribed,
		Channel: channel,
	})
}
