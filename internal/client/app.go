// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-flock-sync/internal/adapter"
	"github.com/MKhiriev/go-flock-sync/internal/cache"
	"github.com/MKhiriev/go-flock-sync/internal/config"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/realtime"
	"github.com/MKhiriev/go-flock-sync/internal/service"
	"github.com/MKhiriev/go-flock-sync/internal/store"
	"github.com/MKhiriev/go-flock-sync/internal/workers"
	"github.com/MKhiriev/go-flock-sync/models"
)

// App is the assembled client engine. Fields are exposed so the embedding
// shell can reach each subsystem directly: enqueue writes through Sync, read
// through Cache, observe events through Realtime.
type App struct {
	Sync     service.SyncManager
	Realtime *realtime.Client
	Cache    *cache.Store

	api      adapter.APIClient
	services *service.ClientServices
	workers  *workers.Workers
	logger   *logger.Logger
}

// NewApp wires the client engine from its configuration. The durable queue is
// opened (and migrated) here; everything else stays idle until Initialize.
func NewApp(cfg config.ClientConfig, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NewClientLogger("client")
	}

	storages, err := store.NewClientStorages(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("open client storage: %w", err)
	}

	api := adapter.NewHTTPAPIClient(cfg.Adapter, log)
	cacheStore := cache.New(cfg.Cache.MaxBytes, cfg.Cache.TTL, log)
	services := service.NewClientServices(storages, api, cacheStore, cfg.Sync.RetryCeiling, log)
	rt := realtime.NewClient(cfg.Adapter, cfg.Realtime, log)

	// realtime events fold into the cache through the reconciler
	for _, eventType := range []models.EventType{
		models.EventMemberUpdated,
		models.EventEventUpdated,
		models.EventGroupUpdated,
		models.EventPathwayProgress,
		models.EventAttendanceAdded,
		models.EventServiceCounts,
	} {
		rt.Subscribe(string(eventType), services.Reconciler.Apply)
	}

	ws := workers.New(
		workers.NewConnectivityProbe(api, services.SyncManager, cfg.Workers.ConnectivityInterval, log),
		workers.NewPeriodicSync(services.SyncManager, cfg.Workers.SyncInterval, log),
	)

	return &App{
		Sync:     services.SyncManager,
		Realtime: rt,
		Cache:    cacheStore,
		api:      api,
		services: services,
		workers:  ws,
		logger:   log,
	}, nil
}

// Initialize prepares the sync manager and starts the background workers.
// Calling it again is a no-op for the manager; workers are started once.
func (a *App) Initialize(ctx context.Context) error {
	if err := a.Sync.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize sync manager: %w", err)
	}

	a.workers.Start(ctx)
	return nil
}

// Connect installs the signed-in user's credentials and opens the realtime
// session. The token also authenticates queue replays and delta fetches.
func (a *App) Connect(ctx context.Context, token, tenantID string) error {
	a.api.SetToken(token)

	if err := a.Realtime.Connect(ctx, realtime.Credentials{Token: token, TenantID: tenantID}); err != nil {
		return fmt.Errorf("connect realtime: %w", err)
	}

	return nil
}

// NotifyForeground signals the app returned to the foreground, which kicks a
// background flush when the device is online.
func (a *App) NotifyForeground(ctx context.Context) {
	a.Sync.NotifyForeground(ctx)
}

// SignOut tears down the realtime session, drops the bearer token and clears
// the local cache. The durable action queue is kept: pending writes belong to
// the user and replay on the next sign-in.
func (a *App) SignOut() {
	a.Realtime.Disconnect()
	a.api.SetToken("")
	a.Cache.Clear()

	a.logger.Info().Str("func", "App.SignOut").Msg("signed out, cache cleared")
}

// Shutdown stops workers and the realtime session. Safe to call more than
// once.
func (a *App) Shutdown() {
	a.workers.Stop()
	a.Realtime.Disconnect()
}
