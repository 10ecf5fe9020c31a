// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-flock-sync/internal/config"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
)

type httpAPIClient struct {
	client *resty.Client
	logger *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewHTTPAPIClient builds the resty-backed [APIClient] pointed at the
// platform's write/delta API.
func NewHTTPAPIClient(cfg config.ClientAdapter, log *logger.Logger) APIClient {
	if cfg.HTTPAddress == "" {
		cfg.HTTPAddress = "http://localhost:8080"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.HTTPAddress, "/")).
		SetTimeout(cfg.RequestTimeout)

	return &httpAPIClient{client: cli, logger: log}
}

func (h *httpAPIClient) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpAPIClient) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *httpAPIClient) Submit(ctx context.Context, action models.QueuedAction) error {
	req := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Idempotency-Key", action.IdempotencyKey).
		SetAuthToken(h.Token()).
		SetBody(json.RawMessage(action.Payload))

	var (
		resp *resty.Response
		err  error
	)
	switch strings.ToUpper(action.Method) {
	case http.MethodPut:
		resp, err = req.Put(action.TargetEndpoint)
	case http.MethodPatch:
		resp, err = req.Patch(action.TargetEndpoint)
	case http.MethodDelete:
		resp, err = req.Delete(action.TargetEndpoint)
	default:
		resp, err = req.Post(action.TargetEndpoint)
	}
	if err != nil {
		return fmt.Errorf("submit request (action=%s): %w", action.ID, err)
	}

	return mapHTTPError(resp)
}

func (h *httpAPIClient) Changes(ctx context.Context, resource string, marker string) (models.DeltaResponse, error) {
	req := h.client.R().
		SetContext(ctx).
		SetAuthToken(h.Token()).
		SetQueryParam("resource", resource)
	if marker != "" {
		req.SetQueryParam("updated_since", marker)
	}

	resp, err := req.Get("/api/data/changes")
	if err != nil {
		return models.DeltaResponse{}, fmt.Errorf("changes request (resource=%s): %w", resource, err)
	}

	// the delta endpoint answers 410 when it no longer recognises a marker
	if resp.StatusCode() == http.StatusGone {
		return models.DeltaResponse{}, fmt.Errorf("resource %s: %w", resource, ErrInvalidMarker)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.DeltaResponse{}, err
	}

	var delta models.DeltaResponse
	if err = json.Unmarshal(resp.Body(), &delta); err != nil {
		return models.DeltaResponse{}, fmt.Errorf("changes decode (resource=%s): %w", resource, err)
	}

	return delta, nil
}

func (h *httpAPIClient) Ping(ctx context.Context) error {
	resp, err := h.client.R().
		SetContext(ctx).
		Get("/ping")
	if err != nil {
		return fmt.Errorf("ping request: %w", err)
	}

	return mapHTTPError(resp)
}
