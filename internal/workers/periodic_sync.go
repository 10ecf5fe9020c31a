// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/service"
)

// PeriodicSync flushes the action queue on a fixed interval. It is a safety
// net behind the event-driven flush triggers (enqueue, reconnect,
// foreground): actions parked by transient failures get retried here.
type PeriodicSync struct {
	sync     service.SyncManager
	interval time.Duration
	logger   *logger.Logger
}

// NewPeriodicSync builds the periodic flush job.
func NewPeriodicSync(syncManager service.SyncManager, interval time.Duration, log *logger.Logger) *PeriodicSync {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &PeriodicSync{
		sync:     syncManager,
		interval: interval,
		logger:   log,
	}
}

// Run flushes on every tick until ctx is cancelled.
func (s *PeriodicSync) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := s.sync.SyncNow(ctx)
			switch {
			case errors.Is(err, service.ErrOffline):
				// nothing to do until the probe reports the API back
			case err != nil:
				s.logger.Err(err).
					Str("func", "PeriodicSync.Run").
					Msg("periodic flush failed")
			case result.Processed > 0:
				s.logger.Info().
					Str("func", "PeriodicSync.Run").
					Int("succeeded", result.Succeeded).
					Int("failed", result.Failed).
					Msg("periodic flush completed")
			}
		}
	}
}
