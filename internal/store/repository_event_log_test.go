package store

import (
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventColumns = []string{"event_id", "type", "tenant_id", "entity_id", "payload", "ts"}

func TestEventLogAppend(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := newTestDB(t)
		log := NewEventLogRepository(newDBFromSQL(db), logger.Nop())
		event := models.RealtimeEvent{
			EventID:   "ev-1",
			Type:      models.EventMemberUpdated,
			TenantID:  "tenant-1",
			EntityID:  "member-9",
			Payload:   []byte(`{"name":"new"}`),
			Timestamp: time.Now().Truncate(time.Millisecond),
		}

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).
			WithArgs(
				event.EventID, "tenant:tenant-1", string(event.Type), event.TenantID,
				event.EntityID, []byte(event.Payload), event.Timestamp,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, log.Append(testContext(), "tenant:tenant-1", event))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected", func(t *testing.T) {
		db, mock := newTestDB(t)
		log := NewEventLogRepository(newDBFromSQL(db), logger.Nop())

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := log.Append(testContext(), "open", models.RealtimeEvent{EventID: "ev-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEventNotSaved)
	})
}

func TestEventLogChangesSince(t *testing.T) {
	db, mock := newTestDB(t)
	log := NewEventLogRepository(newDBFromSQL(db), logger.Nop())
	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(eventColumns).
		AddRow("ev-1", "member.updated", "tenant-1", "member-9", []byte(`{}`), since.Add(time.Minute)).
		AddRow("ev-2", "event.updated", "tenant-1", "event-3", []byte(`{}`), since.Add(2*time.Minute))

	// keyset condition: ts > $2 OR (ts = $3 AND event_id > $4)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT event_id, type, tenant_id, entity_id, payload, ts FROM events")).
		WithArgs("tenant-1", since, since, "ev-0").
		WillReturnRows(rows)

	events, err := log.ChangesSince(testContext(), "tenant-1", since, "ev-0", 100)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ev-1", events[0].EventID)
	assert.Equal(t, models.EventEventUpdated, events[1].Type)
	assert.True(t, events[0].Timestamp.Before(events[1].Timestamp))
}
