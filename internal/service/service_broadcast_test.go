package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/go-flock-sync/internal/logger"
	"github.com/MKhiriev/go-flock-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventLog struct {
	mu       sync.Mutex
	appended []models.RealtimeEvent
	channels []string
	fail     error
}

func (f *fakeEventLog) Append(_ context.Context, channel string, event models.RealtimeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.appended = append(f.appended, event)
	f.channels = append(f.channels, channel)
	return nil
}

func (f *fakeEventLog) ChangesSince(context.Context, string, time.Time, string, int) ([]models.RealtimeEvent, error) {
	return nil, nil
}

func (f *fakeEventLog) appendedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.appended)
}

func memberIdentity(tenantID string, roles ...models.Role) models.Identity {
	return models.Identity{
		UserID:    "u-1",
		TenantID:  tenantID,
		ChurchIDs: []string{"church-1"},
		Roles:     roles,
	}
}

func broadcastRequest(channel string) models.BroadcastRequest {
	return models.BroadcastRequest{
		Channel: channel,
		Event: models.RealtimeEvent{
			EventID:   models.NewEventID(),
			Type:      models.EventMemberUpdated,
			TenantID:  "t1",
			EntityID:  "m-1",
			Payload:   json.RawMessage(`{"name":"Anna"}`),
			Timestamp: time.Now(),
		},
	}
}

func TestSubscribeAuthorization(t *testing.T) {
	tests := []struct {
		name     string
		identity models.Identity
		channel  string
		wantErr  bool
	}{
		{
			name:     "open channel admits everyone",
			identity: memberIdentity("t1"),
			channel:  "announcements",
		},
		{
			name:     "tenant channel matches identity tenant",
			identity: memberIdentity("t1"),
			channel:  "tenant:t1",
		},
		{
			name:     "foreign tenant channel rejected",
			identity: memberIdentity("t1"),
			channel:  "tenant:t2",
			wantErr:  true,
		},
		{
			name:     "admin channel requires admin role",
			identity: memberIdentity("t1"),
			channel:  "admin:alerts",
			wantErr:  true,
		},
		{
			name:     "admin role admits admin channel",
			identity: memberIdentity("t1", models.RoleAdmin),
			channel:  "admin:alerts",
		},
		{
			name:     "admin role covers leader channel",
			identity: memberIdentity("t1", models.RoleAdmin),
			channel:  "leader:briefings",
		},
		{
			name:     "church channel requires membership",
			identity: memberIdentity("t1"),
			channel:  "church:church-1",
		},
		{
			name:     "foreign church rejected",
			identity: memberIdentity("t1"),
			channel:  "church:church-9",
			wantErr:  true,
		},
		{
			name:     "user channel is owner only",
			identity: memberIdentity("t1"),
			channel:  "user:u-2",
			wantErr:  true,
		},
		{
			name:     "empty channel rejected",
			identity: memberIdentity("t1"),
			channel:  "",
			wantErr:  true,
		},
	}

	b := NewBroadcaster(&fakeEventLog{}, 4, logger.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := b.Register(tt.identity)
			defer b.Unregister(conn)

			err := conn.Subscribe(tt.channel)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBroadcastReachesOnlySubscribers(t *testing.T) {
	eventLog := &fakeEventLog{}
	b := NewBroadcaster(eventLog, 4, logger.Nop())

	subscriber := b.Register(memberIdentity("t1"))
	require.NoError(t, subscriber.Subscribe("tenant:t1"))

	bystander := b.Register(memberIdentity("t1"))
	require.NoError(t, bystander.Subscribe("church:church-1"))

	req := broadcastRequest("tenant:t1")
	require.NoError(t, b.Broadcast(context.Background(), req))

	select {
	case frame := <-subscriber.Frames():
		assert.Equal(t, models.ServerFrameEvent, frame.Kind)
		assert.Equal(t, "tenant:t1", frame.Channel)
		require.NotNil(t, frame.Event)
		assert.Equal(t, req.Event.EventID, frame.Event.EventID)
	default:
		t.Fatal("subscriber received no frame")
	}

	assert.Len(t, bystander.Frames(), 0)
	assert.Equal(t, 1, eventLog.appendedCount())
}

func TestBroadcastRejectsMalformedChannel(t *testing.T) {
	eventLog := &fakeEventLog{}
	b := NewBroadcaster(eventLog, 4, logger.Nop())

	err := b.Broadcast(context.Background(), broadcastRequest("tenant:"))
	assert.Error(t, err)
	assert.Zero(t, eventLog.appendedCount())
}

func TestBroadcastSurvivesEventLogFailure(t *testing.T) {
	eventLog := &fakeEventLog{fail: errors.New("pg down")}
	b := NewBroadcaster(eventLog, 4, logger.Nop())

	conn := b.Register(memberIdentity("t1"))
	require.NoError(t, conn.Subscribe("tenant:t1"))

	// delivery proceeds even when the replay record cannot be written
	require.NoError(t, b.Broadcast(context.Background(), broadcastRequest("tenant:t1")))
	assert.Len(t, conn.Frames(), 1)
}

func TestBroadcastDropsSlowConsumer(t *testing.T) {
	b := NewBroadcaster(&fakeEventLog{}, 1, logger.Nop())

	slow := b.Register(memberIdentity("t1"))
	require.NoError(t, slow.Subscribe("tenant:t1"))
	require.Equal(t, 1, b.ConnCount())

	// first frame fills the 1-slot buffer, the second overflows it
	require.NoError(t, b.Broadcast(context.Background(), broadcastRequest("tenant:t1")))
	require.NoError(t, b.Broadcast(context.Background(), broadcastRequest("tenant:t1")))

	assert.Equal(t, 0, b.ConnCount())
	select {
	case <-slow.Done():
	default:
		t.Fatal("dropped connection not signalled via Done")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster(&fakeEventLog{}, 4, logger.Nop())

	conn := b.Register(memberIdentity("t1"))
	require.NoError(t, conn.Subscribe("tenant:t1"))
	conn.Unsubscribe("tenant:t1")

	require.NoError(t, b.Broadcast(context.Background(), broadcastRequest("tenant:t1")))
	assert.Len(t, conn.Frames(), 0)
}
