package realtime

import "errors"

var (
	// ErrAuthRejected is returned when the hub refuses the handshake
	// credentials. The client never auto-retries after it: a new token has
	// to come from a fresh sign-in, not from waiting.
	ErrAuthRejected = errors.New("realtime authentication rejected")

	// ErrMaxRetriesExceeded is returned when the reconnect budget is spent.
	// The client lands in StateFailed and stays there until Connect is
	// called again.
	ErrMaxRetriesExceeded = errors.New("realtime reconnect retries exhausted")

	// ErrNotConnected is returned by channel operations while no transport
	// is established.
	ErrNotConnected = errors.New("realtime client is not connected")

	// ErrAlreadyConnected is returned by Connect when a session is already
	// running.
	ErrAlreadyConnected = errors.New("realtime client is already connected")

	// errStaticSubscriptions is returned by the SSE transport for dynamic
	// subscribe attempts; channel changes require a redial with new query
	// parameters.
	errStaticSubscriptions = errors.New("sse transport has static subscriptions")
)
