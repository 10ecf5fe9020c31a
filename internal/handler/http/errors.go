// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors used by the authentication middleware and the realtime
// endpoints. Callers can match against them with [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is returned by the auth middleware when the
	// incoming request carries neither an "Authorization" header nor a token
	// query parameter.
	ErrEmptyAuthorizationHeader = errors.New("missing credentials: no `Authorization` header or token parameter")

	// ErrTenantMismatch is returned when the declared tenant does not match
	// the tenant claim inside the verified token.
	ErrTenantMismatch = errors.New("declared tenant does not match token claims")

	// ErrInvalidBroadcastKey is returned when the ingest endpoint is called
	// without the shared broadcast key.
	ErrInvalidBroadcastKey = errors.New("invalid broadcast key")

	// ErrStreamingUnsupported is returned when the SSE endpoint is reached
	// through a connection that cannot flush.
	ErrStreamingUnsupported = errors.New("streaming unsupported")
)
