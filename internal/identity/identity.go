// Package identity defines the per-session acting principal: who is calling,
// in which tenant, with which role and (for listeners) which tier.
//
// The interactive clients this service replaced selected role and tenant by
// editing constants at the top of a script. Here the same information is an
// explicit value threaded into every core operation — never ambient state —
// so two concurrent sessions with different roles cannot interfere.
package identity

import "github.com/google/uuid"

// Role is the closed set of principal kinds. Anything else coming out of
// storage or a token is rejected at parse time.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleDistributor Role = "distributor"
	RoleListener    Role = "listener"
)

// Tier is the listener subscription level. It is meaningful only when the
// role is listener; admin and distributor identities carry TierNone.
type Tier string

const (
	TierNone    Tier = ""
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Identity is the acting principal for one session. It is immutable for the
// session except Tier, which may transition free→premium through the
// subscription upgrade and never regresses.
type Identity struct {
	TenantID uuid.UUID
	Username string
	Role     Role
	Tier     Tier
}

// ParseRole validates a stored or token-borne role string.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleDistributor, RoleListener:
		return Role(s), true
	}
	return "", false
}

// ParseTier validates a stored or token-borne tier string. The empty string
// is valid for non-listener roles.
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case TierNone, TierFree, TierPremium:
		return Tier(s), true
	}
	return "", false
}

// IsListener reports whether the identity acts in the listener role.
func (id Identity) IsListener() bool { return id.Role == RoleListener }

// IsUploader reports whether the identity may add songs to the catalog.
func (id Identity) IsUploader() bool {
	return id.Role == RoleAdmin || id.Role == RoleDistributor
}

// IsPremium reports whether the identity is a premium-tier listener.
func (id Identity) IsPremium() bool {
	return id.Role == RoleListener && id.Tier == TierPremium
}
