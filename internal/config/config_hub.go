package config

import (
	"fmt"
	"time"
)

// HubApp holds hub-side application settings.
type HubApp struct {
	// TokenSignKey verifies inbound session tokens.
	TokenSignKey string
	// TokenIssuer is the expected "iss" claim.
	TokenIssuer string
	// BroadcastKey authorizes the backend's ingest calls.
	BroadcastKey string
	// Version is the running hub version.
	Version string
}

// HubServer holds the hub's listen settings.
type HubServer struct {
	// HTTPAddress is the TCP address the hub listens on.
	HTTPAddress string
	// RequestTimeout bounds non-streaming requests.
	RequestTimeout time.Duration
}

// HubStorage holds the hub's event-log settings.
type HubStorage struct {
	// DSN is the PostgreSQL connection string for the event log.
	DSN string
}

// HubRealtime holds fan-out tunables.
type HubRealtime struct {
	// HeartbeatInterval is the server-side ping cadence.
	HeartbeatInterval time.Duration
	// SendBufferSize is the per-connection outbound buffer; a connection
	// that lets it fill is dropped rather than blocking fan-out.
	SendBufferSize int
}

// HubConfig is the top-level hub configuration assembled from
// [StructuredConfig].
type HubConfig struct {
	App      HubApp
	Server   HubServer
	Storage  HubStorage
	Realtime HubRealtime
}

// GetHubConfig builds and validates a hub-specific config view from the
// merged structured configuration.
func GetHubConfig() (*HubConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	hubCfg := &HubConfig{
		App: HubApp{
			TokenSignKey: cfg.App.TokenSignKey,
			TokenIssuer:  cfg.App.TokenIssuer,
			BroadcastKey: cfg.App.BroadcastKey,
			Version:      cfg.App.Version,
		},
		Server: HubServer{
			HTTPAddress:    cfg.Server.HTTPAddress,
			RequestTimeout: cfg.Server.RequestTimeout,
		},
		Storage: HubStorage{
			DSN: cfg.Storage.HubDB.DSN,
		},
		Realtime: HubRealtime{
			HeartbeatInterval: cfg.Realtime.HeartbeatInterval,
			SendBufferSize:    cfg.Realtime.SendBufferSize,
		},
	}

	if hubCfg.Server.RequestTimeout == 0 {
		hubCfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if hubCfg.Realtime.HeartbeatInterval == 0 {
		hubCfg.Realtime.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if hubCfg.Realtime.SendBufferSize == 0 {
		hubCfg.Realtime.SendBufferSize = DefaultSendBufferSize
	}

	return hubCfg, hubCfg.validate()
}
