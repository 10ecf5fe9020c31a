package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/service"
	"github.com/MKhiriev/go-flock-sync/internal/utils"
)

// changes serves the delta read: records of the authenticated tenant changed
// since the client's marker. A marker the hub no longer recognizes answers
// 410 Gone, which tells the client to refetch without one.
func (h *Handler) changes(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	identity, ok := utils.GetIdentityFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()
	resource := query.Get("resource")
	marker := query.Get("updated_since")

	limit := 0
	if rawLimit := query.Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	response, err := h.services.Changes.Since(r.Context(), identity.TenantID, resource, marker, limit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMarker) {
			log.Err(err).Str("func", "*Handler.changes").Msg("stale sync marker")
			http.Error(w, service.ErrInvalidMarker.Error(), http.StatusGone)
			return
		}
		log.Err(err).Str("func", "*Handler.changes").Msg("error reading change feed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if _, err := utils.WriteJSON(w, response, http.StatusOK); err != nil {
		log.Err(err).Str("func", "*Handler.changes").Msg("error writing response")
	}
}
