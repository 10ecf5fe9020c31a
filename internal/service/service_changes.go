// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/internal/store"
	"github.com/MKhiriev/go-flock-sync/models"
)

const (
	defaultChangesLimit = 500
	maxChangesLimit     = 1000
)

// ChangeFeed serves delta reads over the hub's event log. Markers are opaque
// to clients; this implementation encodes the keyset position of the last
// served event as "<RFC 3339 timestamp>@<event ID>", so a page cut between
// events sharing a timestamp resumes at the exact event, not the second.
type ChangeFeed struct {
	eventLog store.EventLog
	logger   *logger.Logger
}

// NewChangeFeed builds the delta read service.
func NewChangeFeed(eventLog store.EventLog, log *logger.Logger) *ChangeFeed {
	return &ChangeFeed{eventLog: eventLog, logger: log}
}

// Since returns the tenant's changes after the given marker, oldest first.
// An empty marker requests the full log (a full fetch); a marker that does
// not parse returns [ErrInvalidMarker] so the transport can answer 410 Gone
// and the client falls back to a full fetch. resource, when non-empty,
// filters the records to one resource collection.
func (f *ChangeFeed) Since(ctx context.Context, tenantID, resource, marker string, limit int) (models.DeltaResponse, error) {
	if limit <= 0 {
		limit = defaultChangesLimit
	}
	if limit > maxChangesLimit {
		limit = maxChangesLimit
	}

	var (
		since   time.Time
		afterID string
	)
	full := marker == ""
	if !full {
		// bare-timestamp markers from older clients still parse; they just
		// lack the event-ID half of the keyset
		timestamp, eventID, _ := strings.Cut(marker, "@")
		parsed, err := time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return models.DeltaResponse{}, fmt.Errorf("%w: %q", ErrInvalidMarker, marker)
		}
		since = parsed
		afterID = eventID
	}

	events, err := f.eventLog.ChangesSince(ctx, tenantID, since, afterID, limit)
	if err != nil {
		return models.DeltaResponse{}, fmt.Errorf("error reading event log: %w", err)
	}

	response := models.DeltaResponse{
		Records:    make([]models.ChangedRecord, 0, len(events)),
		NextMarker: marker,
		Full:       full,
	}

	for _, event := range events {
		record := models.ChangedRecord{
			Resource:  resourceForEvent(event.Type),
			EntityID:  event.EntityID,
			Payload:   event.Payload,
			UpdatedAt: event.Timestamp,
		}
		if resource != "" && record.Resource != resource {
			continue
		}
		response.Records = append(response.Records, record)
	}

	if len(events) > 0 {
		last := events[len(events)-1]
		response.NextMarker = last.Timestamp.Format(time.RFC3339Nano) + "@" + last.EventID
	}

	return response, nil
}

// resourceForEvent maps an event type to the resource collection its entity
// lives in.
func resourceForEvent(eventType models.EventType) string {
	switch eventType {
	case models.EventMemberUpdated:
		return "members"
	case models.EventEventUpdated:
		return "events"
	case models.EventGroupUpdated:
		return "groups"
	case models.EventPathwayProgress:
		return "pathways"
	case models.EventAttendanceAdded:
		return "attendance"
	case models.EventServiceCounts:
		return "service"
	case models.EventAnnouncement:
		return "announcements"
	default:
		return string(eventType)
	}
}
