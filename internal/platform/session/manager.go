package session

import (
	"context"
	"errors"
	"time"

	"github.com/medsupply/orderportal/internal/platform/audit"
)

// ErrNotAuthorized is returned when a non-admin attempts an admin-only
// session transition. The transition is refused, never silently skipped.
var ErrNotAuthorized = errors.New("session: not authorized")

// ErrMissingTarget is returned when impersonation is started without a
// target tenant; an active overlay must always name exactly one tenant.
var ErrMissingTarget = errors.New("session: impersonation target tenant is required")

// Manager owns the impersonation overlay transitions and their audit trail.
type Manager struct {
	audit *audit.Logger
	now   func() time.Time
}

// NewManager creates a Manager emitting to the given audit logger.
func NewManager(auditLogger *audit.Logger) *Manager {
	return &Manager{audit: auditLogger, now: time.Now}
}

// StartImpersonation activates an overlay scoping the admin's view to the
// target tenant. Only admins may impersonate; a customer caller gets
// ErrNotAuthorized and the overlay is left untouched. Exactly one
// impersonate_start entry is emitted on success.
func (m *Manager) StartImpersonation(ctx context.Context, identity Identity, targetTenantID string) (Overlay, error) {
	if identity.Role != RoleAdmin {
		return Overlay{}, ErrNotAuthorized
	}
	if targetTenantID == "" {
		return Overlay{}, ErrMissingTarget
	}

	overlay := Overlay{
		Active:               true,
		ImpersonatedTenantID: targetTenantID,
		OriginatingAdminID:   identity.UserID,
		StartedAt:            m.now().UTC(),
	}

	m.audit.Emit(ctx, audit.Draft{
		Action:         audit.ActionImpersonateStart,
		ActorID:        identity.UserID,
		ActorName:      identity.DisplayName,
		TargetTenantID: audit.TenantTarget(targetTenantID),
		Resource:       "session",
	})

	return overlay, nil
}

// EndImpersonation clears an active overlay and emits one impersonate_end
// entry with the elapsed duration. Ending an inactive overlay is an
// idempotent no-op: the overlay is returned unchanged and nothing is
// emitted. It always succeeds.
func (m *Manager) EndImpersonation(ctx context.Context, identity Identity, overlay Overlay) Overlay {
	if !overlay.Active {
		return overlay
	}

	elapsed := m.now().UTC().Sub(overlay.StartedAt)
	m.audit.Emit(ctx, audit.Draft{
		Action:         audit.ActionImpersonateEnd,
		ActorID:        identity.UserID,
		ActorName:      identity.DisplayName,
		TargetTenantID: audit.TenantTarget(overlay.ImpersonatedTenantID),
		Resource:       "session",
		Details: map[string]any{
			"duration_ms": elapsed.Milliseconds(),
		},
	})

	return Overlay{}
}
