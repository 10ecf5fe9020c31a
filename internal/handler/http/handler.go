package http

import (
	"net/http"

	"github.com/MKhiriev/go-flock-sync/internal/config"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/service"
	"github.com/gorilla/websocket"
)

type Handler struct {
	services *service.Services
	app      config.HubApp
	realtime config.HubRealtime
	upgrader websocket.Upgrader

	logger *logger.Logger
}

func NewHandler(services *service.Services, app config.HubApp, realtime config.HubRealtime, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		app:      app,
		realtime: realtime,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// clients are native shells, not browsers; origin checks add nothing
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}
