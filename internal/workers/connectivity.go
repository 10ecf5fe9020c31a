// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/adapter"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/service"
)

// ConnectivityProbe polls the API health endpoint and feeds reachability
// transitions into the sync manager. The manager flushes the action queue on
// an offline-to-online transition, so the probe is what wakes sync up after
// connectivity returns.
type ConnectivityProbe struct {
	api      adapter.APIClient
	sync     service.SyncManager
	interval time.Duration
	logger   *logger.Logger
}

// NewConnectivityProbe builds the probe. interval of zero falls back to the
// default probe period.
func NewConnectivityProbe(api adapter.APIClient, syncManager service.SyncManager, interval time.Duration, log *logger.Logger) *ConnectivityProbe {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &ConnectivityProbe{
		api:      api,
		sync:     syncManager,
		interval: interval,
		logger:   log,
	}
}

// Run probes once immediately, then on every tick until ctx is cancelled.
func (p *ConnectivityProbe) Run(ctx context.Context) {
	p.probe(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

func (p *ConnectivityProbe) probe(ctx context.Context) {
	err := p.api.Ping(ctx)
	if err != nil {
		p.logger.Debug().
			Str("func", "ConnectivityProbe.probe").
			Err(err).
			Msg("api unreachable")
	}

	p.sync.SetOnline(ctx, err == nil)
}
