package service

import (
	"github.com/MKhiriev/go-flock-sync/internal/config"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/store"
)

// Services groups the hub-side services.
type Services struct {
	Broadcaster *Broadcaster
	Changes     *ChangeFeed
}

// NewServices wires the hub service layer over the event log.
func NewServices(storages *store.Storages, cfg config.HubRealtime, log *logger.Logger) *Services {
	return &Services{
		Broadcaster: NewBroadcaster(storages.EventLog, cfg.SendBufferSize, log),
		Changes:     NewChangeFeed(storages.EventLog, log),
	}
}
