// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
)

// wsTransport is the primary transport: a persistent WebSocket with
// heartbeat pings and a read deadline refreshed on every pong.
type wsTransport struct {
	baseURL   string
	heartbeat time.Duration
	logger    *logger.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex
	out     chan frameResult
	done    chan struct{}
	once    sync.Once
}

func newWSTransport(baseURL string, heartbeat time.Duration, log *logger.Logger) *wsTransport {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}

	return &wsTransport{
		baseURL:   baseURL,
		heartbeat: heartbeat,
		logger:    log,
		out:       make(chan frameResult, 32),
		done:      make(chan struct{}),
	}
}

func (t *wsTransport) dial(ctx context.Context, creds Credentials, channels []string) error {
	endpoint, err := realtimeEndpoint(t.baseURL, "/api/realtime/ws", true)
	if err != nil {
		return fmt.Errorf("realtime endpoint: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+creds.Token)
	header.Set("X-Tenant-ID", creds.TenantID)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("ws handshake status %d: %w", resp.StatusCode, ErrAuthRejected)
		}
		return fmt.Errorf("ws dial: %w", err)
	}
	t.conn = conn

	// the read deadline covers two heartbeat intervals; a pong refreshes it
	_ = conn.SetReadDeadline(time.Now().Add(2 * t.heartbeat))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * t.heartbeat))
	})

	for _, channel := range channels {
		if err := t.subscribe(channel); err != nil {
			_ = t.close()
			return fmt.Errorf("initial subscribe (channel=%s): %w", channel, err)
		}
	}

	go t.readLoop()
	go t.pingLoop()

	return nil
}

func (t *wsTransport) frames() <-chan frameResult {
	return t.out
}

func (t *wsTransport) subscribe(channel string) error {
	return t.writeFrame(models.SubscriptionFrame{Action: models.FrameSubscribe, Channel: channel})
}

func (t *wsTransport) unsubscribe(channel string) error {
	return t.writeFrame(models.SubscriptionFrame{Action: models.FrameUnsubscribe, Channel: channel})
}

func (t *wsTransport) writeFrame(frame models.SubscriptionFrame) error {
	if t.conn == nil {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	return t.conn.WriteJSON(frame)
}

func (t *wsTransport) readLoop() {
	defer close(t.out)

	for {
		var frame models.ServerFrame
		if err := t.conn.ReadJSON(&frame); err != nil {
			select {
			case <-t.done:
				// closed locally: not a stream failure
			default:
				t.out <- frameResult{err: fmt.Errorf("ws read: %w", err)}
			}
			return
		}

		select {
		case t.out <- frameResult{frame: frame}:
		case <-t.done:
			return
		}
	}
}

func (t *wsTransport) pingLoop() {
	ticker := time.NewTicker(t.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.writeMu.Lock()
			err := t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			t.writeMu.Unlock()
			if err != nil {
				t.logger.Debug().Err(err).Str("func", "wsTransport.pingLoop").Msg("heartbeat write failed")
				return
			}
		}
	}
}

func (t *wsTransport) close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		if t.conn != nil {
			t.writeMu.Lock()
			_ = t.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			t.writeMu.Unlock()
			err = t.conn.Close()
		}
	})

	return err
}
