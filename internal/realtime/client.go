// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package realtime implements the client side of the event distribution
// pipeline: a reconnecting WebSocket (with optional SSE fallback) feeding a
// throttled, coalescing dispatcher.
package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/config"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
)

// ConnState is the realtime client connection state.
type ConnState int

const (
	// StateDisconnected means no transport is established and no session is
	// running (or a running session is between reconnect attempts).
	StateDisconnected ConnState = iota
	// StateConnecting means a dial is in progress.
	StateConnecting
	// StateConnected means a live stream is consuming events.
	StateConnected
	// StateFailed means the session ended for good: either the retry
	// budget is spent or the hub rejected the credentials. Only a new
	// Connect call leaves this state.
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StateHandler observes connection state transitions. Handlers run on the
// session goroutine and must not block.
type StateHandler func(ConnState)

// Client maintains the realtime session: connection lifecycle with
// exponential reconnect backoff, channel subscriptions on the hub, and local
// event dispatch through a [Dispatcher].
type Client struct {
	cfg        config.ClientRealtime
	baseURL    string
	timeout    time.Duration
	logger     *logger.Logger
	dispatcher *Dispatcher
	tracker    *LatencyTracker

	mu           sync.Mutex
	state        ConnState
	transport    transport
	channels     map[string]struct{}
	stateSubs    map[int]StateHandler
	nextStateSub int
	cancel       context.CancelFunc
	doneCh       chan struct{}
	rejoinCh     chan struct{}

	// newWS and newSSE are swappable for tests
	newWS  func() transport
	newSSE func() transport
}

// NewClient builds a realtime client pointed at the hub named by adapterCfg.
// The client is idle until Connect is called.
func NewClient(adapterCfg config.ClientAdapter, cfg config.ClientRealtime, log *logger.Logger) *Client {
	baseURL := adapterCfg.RealtimeAddress
	if baseURL == "" {
		baseURL = adapterCfg.HTTPAddress
	}

	tracker := NewLatencyTracker(cfg.LatencyWindow)

	c := &Client{
		cfg:        cfg,
		baseURL:    baseURL,
		timeout:    adapterCfg.RequestTimeout,
		logger:     log,
		tracker:    tracker,
		dispatcher: NewDispatcher(cfg.ThrottleWindow, tracker, cfg.LatencyWarnThreshold, log),
		state:      StateDisconnected,
		channels:   make(map[string]struct{}),
		stateSubs:  make(map[int]StateHandler),
	}
	c.newWS = func() transport { return newWSTransport(c.baseURL, cfg.HeartbeatInterval, log) }
	c.newSSE = func() transport { return newSSETransport(c.baseURL, c.timeout, log) }

	return c
}

// Connect starts the realtime session with the given credentials and returns
// immediately; connection progress is observable through State and
// OnStateChange. Returns [ErrAlreadyConnected] if a session is running.
func (c *Client) Connect(ctx context.Context, creds Credentials) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.doneCh = make(chan struct{})
	c.rejoinCh = make(chan struct{}, 1)
	done := c.doneCh
	c.mu.Unlock()

	c.dispatcher.Start()

	go func() {
		defer close(done)
		c.run(sessionCtx, creds)
	}()

	return nil
}

// Disconnect synchronously tears down the transport, stops dispatch and
// drops buffered events. Local subscriptions and the joined channel set
// survive for the next Connect. Safe to call when not connected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.doneCh
	c.cancel = nil
	c.doneCh = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	c.dispatcher.Stop()
	c.setState(StateDisconnected)
}

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnStateChange registers a state transition observer. The returned function
// removes it.
func (c *Client) OnStateChange(handler StateHandler) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextStateSub
	c.nextStateSub++
	c.stateSubs[id] = handler

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.stateSubs, id)
	}
}

// Subscribe registers a local event handler under a bare event type or a
// type:tenant compound key. The returned function unsubscribes.
func (c *Client) Subscribe(key string, handler EventHandler) func() {
	return c.dispatcher.Subscribe(key, handler)
}

// JoinChannel adds a hub channel to the subscription set. When connected the
// subscription is sent right away; otherwise it is applied on the next
// (re)connect.
func (c *Client) JoinChannel(channel string) error {
	c.mu.Lock()
	c.channels[channel] = struct{}{}
	t := c.transport
	c.mu.Unlock()

	if t == nil {
		return nil
	}

	if err := t.subscribe(channel); err != nil {
		if errors.Is(err, errStaticSubscriptions) {
			c.requestRejoin()
			return nil
		}
		return err
	}

	return nil
}

// LeaveChannel removes a hub channel from the subscription set.
func (c *Client) LeaveChannel(channel string) error {
	c.mu.Lock()
	delete(c.channels, channel)
	t := c.transport
	c.mu.Unlock()

	if t == nil {
		return nil
	}

	if err := t.unsubscribe(channel); err != nil {
		if errors.Is(err, errStaticSubscriptions) {
			c.requestRejoin()
			return nil
		}
		return err
	}

	return nil
}

// LatencyP95 reports the rolling p95 event delivery latency.
func (c *Client) LatencyP95() time.Duration {
	return c.tracker.P95()
}

// run is the session loop: dial, consume until the stream dies, back off
// exponentially, repeat until the retry budget is spent or the context ends.
func (c *Client) run(ctx context.Context, creds Credentials) {
	attempt := 0

	for {
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		}

		c.setState(StateConnecting)

		t, err := c.establish(ctx, creds)
		if err != nil {
			if errors.Is(err, ErrAuthRejected) {
				c.logger.Warn().Err(err).Str("func", "Client.run").Msg("realtime credentials rejected, giving up")
				c.setState(StateFailed)
				return
			}

			attempt++
			if attempt > c.cfg.MaxRetries {
				c.logger.Warn().
					Err(ErrMaxRetriesExceeded).
					Str("func", "Client.run").
					Int("attempts", attempt-1).
					Msg("realtime reconnect budget exhausted")
				c.setState(StateFailed)
				return
			}

			delay := c.cfg.BackoffBase * time.Duration(1<<(attempt-1))
			c.logger.Debug().
				Err(err).
				Str("func", "Client.run").
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("realtime dial failed, backing off")

			select {
			case <-ctx.Done():
				c.setState(StateDisconnected)
				return
			case <-time.After(delay):
			}
			continue
		}

		c.setTransport(t)
		c.setState(StateConnected)
		attempt = 0

		redial := c.consume(ctx, t)
		_ = t.close()
		c.setTransport(nil)

		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		}

		c.setState(StateDisconnected)
		if redial {
			// channel set changed on a static transport
			continue
		}
	}
}

// establish dials the WebSocket transport, falling back to SSE when enabled.
// An auth rejection from either transport is terminal.
func (c *Client) establish(ctx context.Context, creds Credentials) (transport, error) {
	channels := c.channelSnapshot()

	ws := c.newWS()
	err := ws.dial(ctx, creds, channels)
	if err == nil {
		return ws, nil
	}
	if errors.Is(err, ErrAuthRejected) || !c.cfg.EnableSSEFallback {
		return nil, err
	}

	c.logger.Debug().Err(err).Str("func", "Client.establish").Msg("websocket dial failed, trying sse fallback")

	sse := c.newSSE()
	if sseErr := sse.dial(ctx, creds, channels); sseErr != nil {
		return nil, sseErr
	}

	return sse, nil
}

// consume drains frames until the stream dies. Returns true when the loop
// ended because the channel set changed and the transport cannot follow.
func (c *Client) consume(ctx context.Context, t transport) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-c.rejoinCh:
			return true
		case res, ok := <-t.frames():
			if !ok {
				return false
			}
			if res.err != nil {
				c.logger.Debug().Err(res.err).Str("func", "Client.consume").Msg("realtime stream broke")
				return false
			}
			c.handleFrame(res.frame)
		}
	}
}

func (c *Client) handleFrame(frame models.ServerFrame) {
	switch frame.Kind {
	case models.ServerFrameEvent:
		if frame.Event != nil {
			c.dispatcher.Offer(*frame.Event)
		}
	case models.ServerFrameError:
		// the hub refused this channel; do not re-request it on reconnect
		c.logger.Warn().
			Str("func", "Client.handleFrame").
			Str("channel", frame.Channel).
			Str("error", frame.Error).
			Msg("channel subscription rejected")
		c.mu.Lock()
		delete(c.channels, frame.Channel)
		c.mu.Unlock()
	case models.ServerFrameSubscribed:
		c.logger.Debug().
			Str("func", "Client.handleFrame").
			Str("channel", frame.Channel).
			Msg("channel subscription confirmed")
	}
}

func (c *Client) channelSnapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	channels := make([]string, 0, len(c.channels))
	for channel := range c.channels {
		channels = append(channels, channel)
	}
	return channels
}

func (c *Client) setTransport(t transport) {
	c.mu.Lock()
	c.transport = t
	c.mu.Unlock()
}

func (c *Client) requestRejoin() {
	c.mu.Lock()
	rejoin := c.rejoinCh
	c.mu.Unlock()

	if rejoin == nil {
		return
	}
	select {
	case rejoin <- struct{}{}:
	default:
	}
}

func (c *Client) setState(state ConnState) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	handlers := make([]StateHandler, 0, len(c.stateSubs))
	for _, h := range c.stateSubs {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(state)
	}
}
