// Package session derives the effective actor for every request: who is
// signed in, which customer's data they may see, and whether an
// administrator is currently impersonating a customer. Authentication itself
// is external; this package consumes the authenticated session payload and
// owns the impersonation overlay transitions.
package session

import "time"

// Role is the portal's closed role set.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// IsValidRole checks whether a role string is recognized.
func IsValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleCustomer
}

// Identity describes the authenticated user. It is immutable for the session
// lifetime except via re-authentication. OwnTenantID is empty for
// administrators, who have no tenant of their own.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	OwnTenantID string `json:"own_tenant_id"`
}

// Overlay is the impersonation state layered over an admin identity.
// Invariant: Active implies ImpersonatedTenantID and OriginatingAdminID are
// set; inactive implies the whole struct is zero.
type Overlay struct {
	Active               bool      `json:"active"`
	ImpersonatedTenantID string    `json:"impersonated_tenant_id"`
	OriginatingAdminID   string    `json:"originating_admin_id"`
	StartedAt            time.Time `json:"started_at"`
}

// EffectiveSession is the derived view every other component consumes. It is
// recomputed on each read, never stored.
type EffectiveSession struct {
	Identity Identity
	Overlay  Overlay

	// ActiveTenantID is the tenant whose data the current view is scoped
	// to. Empty means unscoped: an admin without an overlay sees all
	// tenants.
	ActiveTenantID string

	// AdminUnscoped is true for an admin with no active overlay.
	AdminUnscoped bool
}

// Compute derives the effective session from an identity and overlay. Pure
// and total: any combination of inputs yields a well-defined result.
func Compute(identity Identity, overlay Overlay) EffectiveSession {
	active := identity.OwnTenantID
	if overlay.Active {
		active = overlay.ImpersonatedTenantID
	}
	return EffectiveSession{
		Identity:       identity,
		Overlay:        overlay,
		ActiveTenantID: active,
		AdminUnscoped:  identity.Role == RoleAdmin && !overlay.Active,
	}
}

// IsAdmin reports whether the underlying identity is an administrator,
// regardless of any impersonation overlay.
func (s EffectiveSession) IsAdmin() bool {
	return s.Identity.Role == RoleAdmin
}

// Impersonating reports whether an overlay is active.
func (s EffectiveSession) Impersonating() bool {
	return s.Overlay.Active
}
