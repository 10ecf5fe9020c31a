package adapter

import "errors"

var (
	// ErrUnauthorized is returned when the API rejects the session token.
	// Queued actions are preserved; the user has to re-authenticate.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrRejected is returned when the server refuses an action as invalid
	// (409 or 422). The action will never succeed and must be dropped.
	ErrRejected = errors.New("action rejected by server")

	// ErrServerUnavailable is returned for any 5xx response. Server-side
	// trouble is global, so callers stop the current flush instead of
	// burning retry budget on the remaining actions.
	ErrServerUnavailable = errors.New("server unavailable")

	// ErrInvalidMarker is returned when the delta endpoint no longer
	// recognises the supplied sync marker. Callers fall back to a full
	// fetch.
	ErrInvalidMarker = errors.New("sync marker not recognized")

	// ErrBadRequest is returned for a 400 response outside the invalid
	// marker case.
	ErrBadRequest = errors.New("bad request")
)
