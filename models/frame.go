package models

// Wire frames exchanged over the realtime WebSocket. The SSE transport only
// carries ServerFrame values; channel selection happens at connect time via
// query parameters.

const (
	// FrameSubscribe asks the hub to add the connection to a channel.
	FrameSubscribe = "subscribe"
	// FrameUnsubscribe asks the hub to remove the connection from a channel.
	FrameUnsubscribe = "unsubscribe"
)

// SubscriptionFrame is the client-to-hub control message.
type SubscriptionFrame struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

const (
	// ServerFrameEvent carries one realtime event.
	ServerFrameEvent = "event"
	// ServerFrameError reports a rejected subscription or protocol fault.
	// The connection stays open; only the named channel is affected.
	ServerFrameError = "error"
	// ServerFrameSubscribed confirms a channel subscription.
	ServerFrameSubscribed = "subscribed"
)

// ServerFrame is the hub-to-client message envelope.
type ServerFrame struct {
	Kind    string         `json:"kind"`
	Channel string         `json:"channel,omitempty"`
	Error   string         `json:"error,omitempty"`
	Event   *RealtimeEvent `json:"event,omitempty"`
}
