package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	App struct {
		TokenSignKey string `json:"token_sign_key"`
		TokenIssuer  string `json:"token_issuer"`
		BroadcastKey string `json:"broadcast_key"`
		Version      string `json:"version"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		HubDB struct {
			DSN string `json:"dsn"`
		} `json:"hub_db,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Adapter struct {
		HTTPAddress     string   `json:"http_address"`
		RealtimeAddress string   `json:"realtime_address"`
		RequestTimeout  Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Workers struct {
		SyncInterval         Duration `json:"sync_interval"`
		ConnectivityInterval Duration `json:"connectivity_interval"`
	} `json:"workers,omitempty"`

	Sync struct {
		RetryCeiling int `json:"retry_ceiling"`
	} `json:"sync,omitempty"`

	Realtime struct {
		ThrottleWindow       Duration `json:"throttle_window"`
		HeartbeatInterval    Duration `json:"heartbeat_interval"`
		BackoffBase          Duration `json:"backoff_base"`
		MaxRetries           int      `json:"max_retries"`
		EnableSSEFallback    bool     `json:"enable_sse_fallback"`
		SendBufferSize       int      `json:"send_buffer_size"`
		LatencyWindow        int      `json:"latency_window"`
		LatencyWarnThreshold Duration `json:"latency_warn_threshold"`
	} `json:"realtime,omitempty"`

	Cache struct {
		MaxBytes int64    `json:"max_bytes"`
		TTL      Duration `json:"ttl"`
	} `json:"cache,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			TokenSignKey: jsonCfg.App.TokenSignKey,
			TokenIssuer:  jsonCfg.App.TokenIssuer,
			BroadcastKey: jsonCfg.App.BroadcastKey,
			Version:      jsonCfg.App.Version,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			HubDB: HubDB{
				DSN: jsonCfg.Storage.HubDB.DSN,
			},
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		Adapter: Adapter{
			HTTPAddress:     jsonCfg.Adapter.HTTPAddress,
			RealtimeAddress: jsonCfg.Adapter.RealtimeAddress,
			RequestTimeout:  time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		Workers: Workers{
			SyncInterval:         time.Duration(jsonCfg.Workers.SyncInterval),
			ConnectivityInterval: time.Duration(jsonCfg.Workers.ConnectivityInterval),
		},
		Sync: Sync{
			RetryCeiling: jsonCfg.Sync.RetryCeiling,
		},
		Realtime: Realtime{
			ThrottleWindow:       time.Duration(jsonCfg.Realtime.ThrottleWindow),
			HeartbeatInterval:    time.Duration(jsonCfg.Realtime.HeartbeatInterval),
			BackoffBase:          time.Duration(jsonCfg.Realtime.BackoffBase),
			MaxRetries:           jsonCfg.Realtime.MaxRetries,
			EnableSSEFallback:    jsonCfg.Realtime.EnableSSEFallback,
			SendBufferSize:       jsonCfg.Realtime.SendBufferSize,
			LatencyWindow:        jsonCfg.Realtime.LatencyWindow,
			LatencyWarnThreshold: time.Duration(jsonCfg.Realtime.LatencyWarnThreshold),
		},
		Cache: Cache{
			MaxBytes: jsonCfg.Cache.MaxBytes,
			TTL:      time.Duration(jsonCfg.Cache.TTL),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
