// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the transport layer for talking to the platform's
// write/delta API.
//
// The primary abstraction is [APIClient], which decouples the sync manager
// from the underlying protocol. The package ships an HTTP/REST implementation
// ([NewHTTPAPIClient]) built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrRejected] for 409/422, [ErrUnauthorized] for 401).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-flock-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/api_client_mock.go -package=mock

// APIClient defines transport-agnostic communication with the write/delta
// API. Implementations are responsible for serialisation, authentication
// header management, and mapping transport-level errors to the sentinel
// values defined in this package.
type APIClient interface {
	// SetToken stores the bearer token that will be attached to all
	// subsequent authenticated requests.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// Submit replays one queued action against its target endpoint. The
	// action's idempotency key is attached as the Idempotency-Key header so
	// the server treats duplicate replays as already applied. A 2xx response
	// means success, including the case where the server recognised the key
	// and skipped re-application.
	//
	// Failures map to sentinels: [ErrUnauthorized] for 401, [ErrRejected]
	// for 409/422 (the action is invalid and must not be retried),
	// [ErrServerUnavailable] for any 5xx.
	Submit(ctx context.Context, action models.QueuedAction) error

	// Changes fetches records of the given resource changed since the
	// marker. An empty marker requests the full dataset. A marker the server
	// no longer recognises maps to [ErrInvalidMarker]; the caller falls back
	// to a full fetch.
	Changes(ctx context.Context, resource string, marker string) (models.DeltaResponse, error)

	// Ping probes API reachability. A nil return means the API answered.
	Ping(ctx context.Context) error
}
