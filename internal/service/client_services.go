package service

import (
	"github.com/MKhiriev/go-flock-sync/internal/adapter"
	"github.com/MKhiriev/go-flock-sync/internal/cache"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/store"
	"github.com/MKhiriev/go-flock-sync/models"
)

type ClientServices struct {
	SyncManager SyncManager
	Reconciler  *Reconciler
	Handlers    *HandlerRegistry
}

// NewClientServices wires the client service layer: the action handler
// registry, the sync manager over the durable queue, and the reconciler with
// the default strategy set (entity payloads merge, aggregate feeds
// invalidate).
func NewClientServices(
	storages *store.ClientStorages,
	api adapter.APIClient,
	cacheStore *cache.Store,
	retryCeiling int,
	log *logger.Logger,
) *ClientServices {
	handlers := NewHandlerRegistry(api)
	syncManager := NewSyncManager(storages, api, handlers, cacheStore, retryCeiling, log)

	reconciler := NewReconciler(cacheStore, log)
	reconciler.Register(models.EventMemberUpdated, MergeStrategy("members"))
	reconciler.Register(models.EventEventUpdated, MergeStrategy("events"))
	reconciler.Register(models.EventGroupUpdated, MergeStrategy("groups"))
	reconciler.Register(models.EventPathwayProgress, MergeStrategy("pathways"))
	reconciler.Register(models.EventAttendanceAdded, InvalidateStrategy("attendance:"))
	reconciler.Register(models.EventServiceCounts, InvalidateStrategy("service:counts"))

	return &ClientServices{
		SyncManager: syncManager,
		Reconciler:  reconciler,
		Handlers:    handlers,
	}
}
