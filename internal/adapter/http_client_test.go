// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/config"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, serverURL string) APIClient {
	t.Helper()
	cfg := config.ClientAdapter{HTTPAddress: serverURL, RequestTimeout: 5 * time.Second}
	return NewHTTPAPIClient(cfg, logger.Nop())
}

func checkInAction() models.QueuedAction {
	payload, _ := json.Marshal(map[string]string{"member_id": "m-1"})
	return models.QueuedAction{
		ID:             "act-1",
		Type:           models.ActionCheckIn,
		TargetEndpoint: "/api/events/e-1/checkins",
		Method:         http.MethodPost,
		Payload:        payload,
		IdempotencyKey: models.IdempotencyKey(models.ActionCheckIn, "/api/events/e-1/checkins", payload),
	}
}

// ── Submit ──────────────────────────────────────────────────────────────────

func TestSubmit_Success(t *testing.T) {
	action := checkInAction()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/events/e-1/checkins", r.URL.Path)
		assert.Equal(t, action.IdempotencyKey, r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.SetToken("session-token")

	require.NoError(t, c.Submit(context.Background(), action))
}

func TestSubmit_AlreadyApplied(t *testing.T) {
	// a replayed idempotency key answered with 200 still counts as success
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"already applied"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	require.NoError(t, c.Submit(context.Background(), checkInAction()))
}

func TestSubmit_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: ErrUnauthorized},
		{name: "conflict", status: http.StatusConflict, want: ErrRejected},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, want: ErrRejected},
		{name: "internal error", status: http.StatusInternalServerError, want: ErrServerUnavailable},
		{name: "bad gateway", status: http.StatusBadGateway, want: ErrServerUnavailable},
		{name: "unavailable", status: http.StatusServiceUnavailable, want: ErrServerUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			err := c.Submit(context.Background(), checkInAction())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSubmit_MethodRouting(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	action := checkInAction()
	action.Method = http.MethodDelete

	require.NoError(t, c.Submit(context.Background(), action))
	assert.Equal(t, http.MethodDelete, gotMethod)
}

// ── Changes ─────────────────────────────────────────────────────────────────

func TestChanges_Success(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/data/changes", r.URL.Path)
		assert.Equal(t, "events", r.URL.Query().Get("resource"))
		assert.Equal(t, "cursor-42", r.URL.Query().Get("updated_since"))

		delta := models.DeltaResponse{
			Records: []models.ChangedRecord{
				{Resource: "events", EntityID: "e-1", Payload: json.RawMessage(`{"title":"Sunday"}`), UpdatedAt: now},
			},
			NextMarker: "cursor-43",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(delta)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	delta, err := c.Changes(context.Background(), "events", "cursor-42")

	require.NoError(t, err)
	require.Len(t, delta.Records, 1)
	assert.Equal(t, "e-1", delta.Records[0].EntityID)
	assert.Equal(t, "cursor-43", delta.NextMarker)
	assert.False(t, delta.Full)
}

func TestChanges_EmptyMarkerRequestsFullDataset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("updated_since"))
		_ = json.NewEncoder(w).Encode(models.DeltaResponse{Full: true, NextMarker: "cursor-1"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	delta, err := c.Changes(context.Background(), "events", "")

	require.NoError(t, err)
	assert.True(t, delta.Full)
}

func TestChanges_InvalidMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Changes(context.Background(), "events", "stale-cursor")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMarker)
}

// ── Ping ────────────────────────────────────────────────────────────────────

func TestPing(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/ping", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL)
		assert.NoError(t, c.Ping(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL)
		err := c.Ping(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrServerUnavailable)
	})
}
