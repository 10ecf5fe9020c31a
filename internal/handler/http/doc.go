// Package http implements the hub's HTTP transport layer.
//
// It exposes route wiring, the realtime WebSocket and SSE endpoints, the
// broadcast ingest endpoint, and the delta-changes read endpoint.
// Cross-cutting concerns such as authentication, request tracing and access
// logging are handled in this package before requests reach the service
// layer.
package http
