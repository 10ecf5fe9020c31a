package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdempotencyKeyIsDeterministic(t *testing.T) {
	payload := []byte(`{"member_id":"m-1","event_id":"e-1"}`)

	first := IdempotencyKey(ActionCheckIn, "/api/checkins", payload)
	second := IdempotencyKey(ActionCheckIn, "/api/checkins", payload)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // hex-encoded HMAC-SHA256
}

func TestIdempotencyKeyDiscriminates(t *testing.T) {
	payload := []byte(`{"member_id":"m-1"}`)
	base := IdempotencyKey(ActionCheckIn, "/api/checkins", payload)

	assert.NotEqual(t, base, IdempotencyKey(ActionRSVP, "/api/checkins", payload))
	assert.NotEqual(t, base, IdempotencyKey(ActionCheckIn, "/api/rsvps", payload))
	assert.NotEqual(t, base, IdempotencyKey(ActionCheckIn, "/api/checkins", []byte(`{"member_id":"m-2"}`)))
}
