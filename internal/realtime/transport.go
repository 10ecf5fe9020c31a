package realtime

import (
	"context"
	"net/url"
	"strings"

	"github.com/MKhiriev/go-flock-sync/models"
)

// Credentials authenticate the realtime handshake.
type Credentials struct {
	// Token is the platform session JWT.
	Token string
	// TenantID scopes the connection to one organization.
	TenantID string
}

// transport is one established stream to the hub. A transport is single-use:
// after close (or a read failure) the client builds a fresh one.
type transport interface {
	// dial establishes the stream. channels is the set to subscribe at
	// connect time; the WebSocket transport also accepts later subscribe
	// calls, the SSE transport does not.
	dial(ctx context.Context, creds Credentials, channels []string) error

	// frames delivers hub messages until the stream dies. The channel is
	// closed after a terminal read error has been delivered.
	frames() <-chan frameResult

	// subscribe adds a channel on a live stream.
	subscribe(channel string) error

	// unsubscribe removes a channel on a live stream.
	unsubscribe(channel string) error

	// close tears the stream down. Idempotent.
	close() error
}

// frameResult is one read-loop result. Err is set when the stream died.
type frameResult struct {
	frame models.ServerFrame
	err   error
}

// realtimeEndpoint joins the hub base URL with an endpoint path, translating
// the scheme for WebSocket use when ws is true.
func realtimeEndpoint(baseURL, path string, ws bool) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}

	if ws {
		switch u.Scheme {
		case "http":
			u.Scheme = "ws"
		case "https":
			u.Scheme = "wss"
		}
	} else {
		switch u.Scheme {
		case "ws":
			u.Scheme = "http"
		case "wss":
			u.Scheme = "https"
		}
	}

	u.Path = strings.TrimRight(u.Path, "/") + path

	return u.String(), nil
}
