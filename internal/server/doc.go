// Package server runs the hub's HTTP transport.
//
// It provides startup, OS signal handling, and graceful shutdown for the
// listener serving the realtime and delta endpoints.
package server
