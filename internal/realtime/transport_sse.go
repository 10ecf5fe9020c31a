// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
)

// sseTransport is the unidirectional fallback for networks that break
// WebSocket upgrades. Credentials and the channel set travel as query
// parameters; changing channels requires a redial.
type sseTransport struct {
	baseURL string
	logger  *logger.Logger

	client *http.Client
	cancel context.CancelFunc
	out    chan frameResult
	done   chan struct{}
	once   sync.Once
}

func newSSETransport(baseURL string, timeout time.Duration, log *logger.Logger) *sseTransport {
	// no overall timeout on the streaming request itself; the response
	// header wait is bounded instead
	return &sseTransport{
		baseURL: baseURL,
		logger:  log,
		client: &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: timeout},
		},
		out:  make(chan frameResult, 32),
		done: make(chan struct{}),
	}
}

func (t *sseTransport) dial(ctx context.Context, creds Credentials, channels []string) error {
	endpoint, err := realtimeEndpoint(t.baseURL, "/api/realtime/sse", false)
	if err != nil {
		return fmt.Errorf("realtime endpoint: %w", err)
	}

	query := url.Values{}
	query.Set("token", creds.Token)
	query.Set("tenant_id", creds.TenantID)
	for _, channel := range channels {
		query.Add("channel", channel)
	}

	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t.cancel = cancel

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		cancel()
		return fmt.Errorf("sse request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		cancel()
		return fmt.Errorf("sse dial: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("sse status %d: %w", resp.StatusCode, ErrAuthRejected)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("sse dial: unexpected status %d", resp.StatusCode)
	}

	go t.readLoop(resp)

	return nil
}

func (t *sseTransport) frames() <-chan frameResult {
	return t.out
}

func (t *sseTransport) subscribe(string) error {
	return errStaticSubscriptions
}

func (t *sseTransport) unsubscribe(string) error {
	return errStaticSubscriptions
}

// readLoop parses the text/event-stream format: "data:" lines accumulate
// until a blank line terminates the event.
func (t *sseTransport) readLoop(resp *http.Response) {
	defer close(t.out)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if data.Len() > 0 {
				t.emit(data.String())
				data.Reset()
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			// comment line used as server keep-alive
			continue
		}
		if value, ok := strings.CutPrefix(line, "data:"); ok {
			data.WriteString(strings.TrimPrefix(value, " "))
		}
	}

	select {
	case <-t.done:
	default:
		err := scanner.Err()
		if err == nil {
			err = fmt.Errorf("sse stream closed by server")
		}
		t.out <- frameResult{err: err}
	}
}

func (t *sseTransport) emit(data string) {
	var frame models.ServerFrame
	if err := json.Unmarshal([]byte(data), &frame); err != nil {
		t.logger.Debug().Err(err).Str("func", "sseTransport.emit").Msg("dropping malformed sse event")
		return
	}

	select {
	case t.out <- frameResult{frame: frame}:
	case <-t.done:
	}
}

func (t *sseTransport) close() error {
	t.once.Do(func() {
		close(t.done)
		if t.cancel != nil {
			t.cancel()
		}
	})

	return nil
}
