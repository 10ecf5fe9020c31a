package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrChannelForbidden is returned when an authenticated identity asks for a
// channel its tenant, church membership, or roles do not grant. Subscriptions
// to a non-permitted channel are rejected, never silently ignored.
var ErrChannelForbidden = errors.New("channel subscription forbidden")

// ChannelKind classifies a logical channel name by its namespace prefix.
type ChannelKind string

const (
	// ChannelOpen channels (bare names such as "announcements" or
	// "service:counts") are open to any authenticated identity.
	ChannelOpen ChannelKind = "open"

	// ChannelAdmin channels ("admin:*") require the admin role.
	ChannelAdmin ChannelKind = "admin"

	// ChannelLeader channels ("leader:*") require the leader or admin role.
	ChannelLeader ChannelKind = "leader"

	// ChannelTenant channels ("tenant:<id>") require matching tenant.
	ChannelTenant ChannelKind = "tenant"

	// ChannelChurch channels ("church:<id>") require church membership.
	ChannelChurch ChannelKind = "church"

	// ChannelUser channels ("user:<id>") are private to one user.
	ChannelUser ChannelKind = "user"
)

// Channel is a parsed logical channel name.
type Channel struct {
	// Name is the full channel name as subscribed.
	Name string

	// Kind is the namespace the name falls into.
	Kind ChannelKind

	// Scope is the identifier after the prefix for scoped kinds
	// (tenant/church/user ID), empty for open/admin/leader namespaces.
	Scope string
}

// ParseChannel classifies a channel name by its namespace convention.
// Prefixes are fixed: "admin:", "leader:", "tenant:", "church:", "user:".
// Anything else, including compound bare names like "service:counts", is an
// open channel.
func ParseChannel(name string) (Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Channel{}, errors.New("empty channel name")
	}

	prefix, rest, found := strings.Cut(name, ":")
	if !found {
		return Channel{Name: name, Kind: ChannelOpen}, nil
	}

	switch ChannelKind(prefix) {
	case ChannelAdmin:
		return Channel{Name: name, Kind: ChannelAdmin}, nil
	case ChannelLeader:
		return Channel{Name: name, Kind: ChannelLeader}, nil
	case ChannelTenant, ChannelChurch, ChannelUser:
		if rest == "" {
			return Channel{}, fmt.Errorf("channel %q: missing %s identifier", name, prefix)
		}
		return Channel{Name: name, Kind: ChannelKind(prefix), Scope: rest}, nil
	default:
		return Channel{Name: name, Kind: ChannelOpen}, nil
	}
}

// Authorize checks whether the identity may join the channel. It returns
// [ErrChannelForbidden] (wrapped with the channel name) on any mismatch so
// callers can reject the subscription explicitly.
func (c Channel) Authorize(identity Identity) error {
	switch c.Kind {
	case ChannelOpen:
		return nil
	case ChannelAdmin:
		if identity.HasRole(RoleAdmin) {
			return nil
		}
	case ChannelLeader:
		if identity.HasRole(RoleLeader) || identity.HasRole(RoleAdmin) {
			return nil
		}
	case ChannelTenant:
		if identity.TenantID == c.Scope {
			return nil
		}
	case ChannelChurch:
		if identity.MemberOfChurch(c.Scope) {
			return nil
		}
	case ChannelUser:
		if identity.UserID == c.Scope {
			return nil
		}
	}
	return fmt.Errorf("channel %q: %w", c.Name, ErrChannelForbidden)
}
