package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-flock-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// EventLog is the hub's durable record of broadcast events. It backs the
// delta-changes endpoint: a client that was offline replays the log from its
// last marker instead of refetching whole resources.
type EventLog interface {
	// Append persists one broadcast event under its channel.
	Append(ctx context.Context, channel string, event models.RealtimeEvent) error

	// ChangesSince returns the tenant's events strictly after the keyset
	// position (since, afterID), ordered by (timestamp, event ID) ascending
	// and bounded by limit. Events sharing the since timestamp are included
	// when their event ID sorts after afterID, so a limit cut between
	// same-timestamp events never skips the remainder.
	ChangesSince(ctx context.Context, tenantID string, since time.Time, afterID string, limit int) ([]models.RealtimeEvent, error)
}

// ErrorClassificator reports whether a failed database operation is worth
// retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
