// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "strings"

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// The merged view itself stays permissive; the client and hub views apply
// their own stricter validation because each runtime needs a different subset
// of the fields.
func (cfg *StructuredConfig) validate() error {
	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout == 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval == 0 || cfg.Workers.ConnectivityInterval == 0 {
		return ErrInvalidWorkerConfigs
	}

	if cfg.Sync.RetryCeiling < 1 {
		return ErrInvalidSyncConfigs
	}

	if cfg.Realtime.ThrottleWindow <= 0 || cfg.Realtime.BackoffBase <= 0 || cfg.Realtime.MaxRetries < 1 {
		return ErrInvalidRealtimeConfigs
	}

	return nil
}

func (cfg *HubConfig) validate() error {
	if cfg.Server.HTTPAddress == "" {
		return ErrInvalidServerConfigs
	}

	if cfg.Storage.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.App.TokenSignKey == "" || cfg.App.TokenIssuer == "" {
		return ErrInvalidAppConfigs
	}

	return nil
}
