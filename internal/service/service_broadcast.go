// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/store"
	"github.com/MKhiriev/go-flock-sync/models"
)

// BroadcastConn is one realtime subscriber registered with the hub. The
// transport handler drains Frames into its socket and watches Done for the
// hub dropping the connection.
type BroadcastConn struct {
	identity models.Identity

	mu       sync.Mutex
	channels map[string]struct{}
	send     chan models.ServerFrame
	done     chan struct{}
	once     sync.Once
}

// Identity returns the authenticated identity behind the connection.
func (c *BroadcastConn) Identity() models.Identity {
	return c.identity
}

// Frames is the outbound frame stream for the transport to drain.
func (c *BroadcastConn) Frames() <-chan models.ServerFrame {
	return c.send
}

// Done is closed when the hub drops the connection (slow consumer or
// unregister). The transport handler must close the socket then.
func (c *BroadcastConn) Done() <-chan struct{} {
	return c.done
}

// Subscribe parses and authorizes a channel subscription. A channel the
// identity may not join returns the authorization error and leaves the
// subscription set unchanged.
func (c *BroadcastConn) Subscribe(name string) error {
	channel, err := models.ParseChannel(name)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	if err := channel.Authorize(c.identity); err != nil {
		return err
	}

	c.mu.Lock()
	c.channels[channel.Name] = struct{}{}
	c.mu.Unlock()

	return nil
}

// Unsubscribe removes a channel from the subscription set. Unknown channels
// are a no-op.
func (c *BroadcastConn) Unsubscribe(name string) {
	c.mu.Lock()
	delete(c.channels, name)
	c.mu.Unlock()
}

func (c *BroadcastConn) subscribedTo(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.channels[channel]
	return ok
}

// offer enqueues a frame without blocking. False means the buffer is full.
func (c *BroadcastConn) offer(frame models.ServerFrame) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *BroadcastConn) close() {
	c.once.Do(func() { close(c.done) })
}

// Broadcaster fans events out to registered connections and records them in
// the event log for delta replay. A connection that cannot keep up with its
// send buffer is dropped rather than allowed to block fan-out.
type Broadcaster struct {
	eventLog   store.EventLog
	bufferSize int
	logger     *logger.Logger

	mu    sync.Mutex
	conns map[*BroadcastConn]struct{}
}

// NewBroadcaster builds the fan-out hub. bufferSize is the per-connection
// outbound frame buffer.
func NewBroadcaster(eventLog store.EventLog, bufferSize int, log *logger.Logger) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = 64
	}

	return &Broadcaster{
		eventLog:   eventLog,
		bufferSize: bufferSize,
		logger:     log,
		conns:      make(map[*BroadcastConn]struct{}),
	}
}

// Register adds a connection for the authenticated identity.
func (b *Broadcaster) Register(identity models.Identity) *BroadcastConn {
	conn := &BroadcastConn{
		identity: identity,
		channels: make(map[string]struct{}),
		send:     make(chan models.ServerFrame, b.bufferSize),
		done:     make(chan struct{}),
	}

	b.mu.Lock()
	b.conns[conn] = struct{}{}
	count := len(b.conns)
	b.mu.Unlock()

	b.logger.Debug().
		Str("func", "Broadcaster.Register").
		Str("user_id", identity.UserID).
		Int("connections", count).
		Msg("realtime connection registered")

	return conn
}

// Unregister removes a connection and signals its transport to close.
func (b *Broadcaster) Unregister(conn *BroadcastConn) {
	b.mu.Lock()
	delete(b.conns, conn)
	b.mu.Unlock()

	conn.close()
}

// Broadcast persists the event and fans it out to every connection
// subscribed to the channel. Slow consumers are dropped. A persistence
// failure is logged but does not stop delivery to live connections.
func (b *Broadcaster) Broadcast(ctx context.Context, req models.BroadcastRequest) error {
	if _, err := models.ParseChannel(req.Channel); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}

	if err := b.eventLog.Append(ctx, req.Channel, req.Event); err != nil {
		b.logger.Err(err).
			Str("func", "Broadcaster.Broadcast").
			Str("event_id", req.Event.EventID).
			Str("channel", req.Channel).
			Msg("event log append failed, delivering without replay record")
	}

	frame := models.ServerFrame{
		Kind:    models.ServerFrameEvent,
		Channel: req.Channel,
		Event:   &req.Event,
	}

	b.mu.Lock()
	targets := make([]*BroadcastConn, 0, len(b.conns))
	for conn := range b.conns {
		if conn.subscribedTo(req.Channel) {
			targets = append(targets, conn)
		}
	}
	b.mu.Unlock()

	for _, conn := range targets {
		if !conn.offer(frame) {
			b.logger.Warn().
				Str("func", "Broadcaster.Broadcast").
				Str("user_id", conn.identity.UserID).
				Str("channel", req.Channel).
				Msg("send buffer full, dropping slow consumer")
			b.Unregister(conn)
		}
	}

	return nil
}

// ConnCount reports the number of registered connections.
func (b *Broadcaster) ConnCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}
