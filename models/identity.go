package models

import (
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Role is an authorization role carried in the session token.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleLeader Role = "leader"
	RoleMember Role = "member"
)

// Claims is the JWT claim set issued by the platform's auth service. The hub
// only verifies and reads these claims; token issuance is an external
// collaborator.
type Claims struct {
	jwt.RegisteredClaims

	// TenantID is the organization the session belongs to.
	TenantID string `json:"tenant_id"`

	// ChurchIDs are the churches within the tenant the user is a member of.
	ChurchIDs []string `json:"church_ids,omitempty"`

	// Roles are the user's authorization roles.
	Roles []Role `json:"roles,omitempty"`
}

// Identity is the authenticated caller derived from a verified token. It is
// what channel authorization decisions are made against.
type Identity struct {
	UserID    string   `json:"user_id"`
	TenantID  string   `json:"tenant_id"`
	ChurchIDs []string `json:"church_ids,omitempty"`
	Roles     []Role   `json:"roles,omitempty"`
}

// IdentityFromClaims converts a verified claim set into an [Identity].
// Returns an error if the subject or tenant claim is missing, since an
// identity without both cannot be authorized for any scoped channel.
func IdentityFromClaims(claims *Claims) (Identity, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return Identity{}, fmt.Errorf("error extracting subject from claims: %w", err)
	}
	if sub == "" {
		return Identity{}, fmt.Errorf("empty subject in claims")
	}
	if claims.TenantID == "" {
		return Identity{}, fmt.Errorf("empty tenant_id in claims")
	}

	return Identity{
		UserID:    sub,
		TenantID:  claims.TenantID,
		ChurchIDs: claims.ChurchIDs,
		Roles:     claims.Roles,
	}, nil
}

// HasRole reports whether the identity carries the given role.
func (i Identity) HasRole(role Role) bool {
	return slices.Contains(i.Roles, role)
}

// MemberOfChurch reports whether the identity belongs to the given church.
func (i Identity) MemberOfChurch(churchID string) bool {
	return slices.Contains(i.ChurchIDs, churchID)
}
