package config

import (
	"fmt"
	"time"
)

// Default tunables applied by [GetClientConfig] when a value is unset. The
// numbers mirror the platform's historical constants but stay configurable;
// they should be revisited against real network-latency distributions.
const (
	DefaultRetryCeiling         = 3
	DefaultThrottleWindow       = 100 * time.Millisecond
	DefaultHeartbeatInterval    = 30 * time.Second
	DefaultBackoffBase          = time.Second
	DefaultMaxRetries           = 5
	DefaultSyncInterval         = 30 * time.Second
	DefaultConnectivityInterval = 30 * time.Second
	DefaultRequestTimeout       = 15 * time.Second
	DefaultSendBufferSize       = 64
	DefaultLatencyWindow        = 100
	DefaultLatencyWarn          = 2 * time.Second
	DefaultCacheMaxBytes        = 8 << 20
	DefaultCacheTTL             = 10 * time.Minute
)

// ClientApp holds client-side application settings derived from the shared
// structured config.
type ClientApp struct {
	// Version is the client library version reported in diagnostics.
	Version string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// HTTPAddress is the write/delta API base URL.
	HTTPAddress string
	// RealtimeAddress is the broadcast hub base URL; empty means the API
	// host serves the realtime endpoints too.
	RealtimeAddress string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is the SQLite file path used by the client.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often the periodic sync job runs.
	SyncInterval time.Duration
	// ConnectivityInterval defines how often the reachability probe polls.
	ConnectivityInterval time.Duration
}

// ClientSync contains flush-loop tunables.
type ClientSync struct {
	// RetryCeiling bounds failed submissions per action.
	RetryCeiling int
}

// ClientRealtime contains realtime event client tunables.
type ClientRealtime struct {
	ThrottleWindow       time.Duration
	HeartbeatInterval    time.Duration
	BackoffBase          time.Duration
	MaxRetries           int
	EnableSSEFallback    bool
	LatencyWindow        int
	LatencyWarnThreshold time.Duration
}

// ClientCache contains local cache store tunables.
type ClientCache struct {
	MaxBytes int64
	TTL      time.Duration
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// App contains application-level client settings.
	App ClientApp
	// Adapter contains client transport addresses and timeouts.
	Adapter ClientAdapter
	// Storage contains client storage settings.
	Storage ClientStorage
	// Workers contains background job settings.
	Workers ClientWorkers
	// Sync contains flush-loop tunables.
	Sync ClientSync
	// Realtime contains event client tunables.
	Realtime ClientRealtime
	// Cache contains local cache tunables.
	Cache ClientCache
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the client runtime, fills unset tunables with the package
// defaults, and validates the resulting [ClientConfig].
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := &ClientConfig{
		App: ClientApp{
			Version: cfg.App.Version,
		},
		Adapter: ClientAdapter{
			HTTPAddress:     cfg.Adapter.HTTPAddress,
			RealtimeAddress: cfg.Adapter.RealtimeAddress,
			RequestTimeout:  cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			DB: ClientDB{
				DSN: cfg.Storage.DB.DSN,
			},
		},
		Workers: ClientWorkers{
			SyncInterval:         cfg.Workers.SyncInterval,
			ConnectivityInterval: cfg.Workers.ConnectivityInterval,
		},
		Sync: ClientSync{RetryCeiling: cfg.Sync.RetryCeiling},
		Realtime: ClientRealtime{
			ThrottleWindow:       cfg.Realtime.ThrottleWindow,
			HeartbeatInterval:    cfg.Realtime.HeartbeatInterval,
			BackoffBase:          cfg.Realtime.BackoffBase,
			MaxRetries:           cfg.Realtime.MaxRetries,
			EnableSSEFallback:    cfg.Realtime.EnableSSEFallback,
			LatencyWindow:        cfg.Realtime.LatencyWindow,
			LatencyWarnThreshold: cfg.Realtime.LatencyWarnThreshold,
		},
		Cache: ClientCache{
			MaxBytes: cfg.Cache.MaxBytes,
			TTL:      cfg.Cache.TTL,
		},
	}
	clientCfg.applyDefaults()

	return clientCfg, clientCfg.validate()
}

func (cfg *ClientConfig) applyDefaults() {
	if cfg.Adapter.RequestTimeout == 0 {
		cfg.Adapter.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Workers.SyncInterval == 0 {
		cfg.Workers.SyncInterval = DefaultSyncInterval
	}
	if cfg.Workers.ConnectivityInterval == 0 {
		cfg.Workers.ConnectivityInterval = DefaultConnectivityInterval
	}
	if cfg.Sync.RetryCeiling == 0 {
		cfg.Sync.RetryCeiling = DefaultRetryCeiling
	}
	if cfg.Realtime.ThrottleWindow == 0 {
		cfg.Realtime.ThrottleWindow = DefaultThrottleWindow
	}
	if cfg.Realtime.HeartbeatInterval == 0 {
		cfg.Realtime.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Realtime.BackoffBase == 0 {
		cfg.Realtime.BackoffBase = DefaultBackoffBase
	}
	if cfg.Realtime.MaxRetries == 0 {
		cfg.Realtime.MaxRetries = DefaultMaxRetries
	}
	if cfg.Realtime.LatencyWindow == 0 {
		cfg.Realtime.LatencyWindow = DefaultLatencyWindow
	}
	if cfg.Realtime.LatencyWarnThreshold == 0 {
		cfg.Realtime.LatencyWarnThreshold = DefaultLatencyWarn
	}
	if cfg.Cache.MaxBytes == 0 {
		cfg.Cache.MaxBytes = DefaultCacheMaxBytes
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
}
