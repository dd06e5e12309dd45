// Package disclosure gates visibility of patient-identifying fields behind a
// mandatory reason capture. Each sensitive view owns one Gate; the gate
// guarantees the fields can never become visible without exactly one
// patient_data_access audit entry carrying the chosen reason.
package disclosure

import (
	"context"
	"errors"
	"fmt"

	"github.com/medsupply/orderportal/internal/platform/audit"
	"github.com/medsupply/orderportal/internal/platform/session"
)

// State is the disclosure position of a single sensitive view.
type State int

const (
	// Hidden is the initial state: patient fields are redacted.
	Hidden State = iota
	// PendingVerification means a reveal was requested and the portal is
	// waiting for the caller to pick an access reason.
	PendingVerification
	// Visible means the fields are shown; the reveal has been audited.
	Visible
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case PendingVerification:
		return "pending-verification"
	case Visible:
		return "visible"
	default:
		return "unknown"
	}
}

// ErrMissingReason mirrors the audit package sentinel: Confirm was called
// without a recognized access reason. Recoverable; the gate stays pending.
var ErrMissingReason = audit.ErrMissingReason

// ErrNotPending is returned when Confirm or Cancel is called outside
// PendingVerification.
var ErrNotPending = errors.New("disclosure: no reveal pending")

// Required reports whether patient fields must be gated for this session.
// Only unscoped admins are gated; a tenant user or an impersonating admin is
// already scoped to the owning tenant and sees the fields directly. Tenant
// users' access to their own patients is deliberately not audited here,
// matching the portal's observed behavior.
func Required(sess session.EffectiveSession) bool {
	return sess.AdminUnscoped
}

// Gate is the per-view disclosure state machine. It is not safe for
// concurrent use; each view instance owns its gate, created on mount and
// discarded on unmount.
type Gate struct {
	audit     *audit.Logger
	actorID   string
	actorName string
	orderID   string
	tenantID  string

	state  State
	reason audit.AccessReason
}

// New creates a gate in Hidden for the given viewer and order.
func New(auditLogger *audit.Logger, actorID, actorName, orderID, ownerTenantID string) *Gate {
	return &Gate{
		audit:     auditLogger,
		actorID:   actorID,
		actorName: actorName,
		orderID:   orderID,
		tenantID:  ownerTenantID,
		state:     Hidden,
	}
}

// State returns the current position.
func (g *Gate) State() State { return g.state }

// Reason returns the confirmed access reason while Visible.
func (g *Gate) Reason() (audit.AccessReason, bool) {
	if g.state != Visible {
		return "", false
	}
	return g.reason, true
}

// RequestReveal moves Hidden to PendingVerification. Requesting again while
// pending or visible changes nothing; a hidden-again view must always pass
// through verification before becoming visible.
func (g *Gate) RequestReveal() {
	if g.state == Hidden {
		g.state = PendingVerification
	}
}

// Confirm commits the reveal with the chosen reason. The patient_data_access
// entry is emitted before the state moves to Visible; a missing or
// unrecognized reason leaves the gate in PendingVerification.
func (g *Gate) Confirm(ctx context.Context, reason audit.AccessReason) error {
	if g.state != PendingVerification {
		return ErrNotPending
	}
	if !audit.IsValidAccessReason(reason) {
		return ErrMissingReason
	}

	_, err := g.audit.Emit(ctx, audit.Draft{
		Action:         audit.ActionPatientDataAccess,
		ActorID:        g.actorID,
		ActorName:      g.actorName,
		TargetTenantID: audit.TenantTarget(g.tenantID),
		Resource:       "order",
		OrderID:        g.orderID,
		Reason:         reason,
	})
	if err != nil {
		return fmt.Errorf("disclosure: audit reveal: %w", err)
	}

	g.state = Visible
	g.reason = reason
	return nil
}

// Cancel abandons a pending reveal.
func (g *Gate) Cancel() {
	if g.state == PendingVerification {
		g.state = Hidden
	}
}

// Hide re-redacts a visible view and discards the reason. Hiding is not
// audited; only reveals are.
func (g *Gate) Hide() {
	if g.state == Visible {
		g.state = Hidden
		g.reason = ""
	}
}
