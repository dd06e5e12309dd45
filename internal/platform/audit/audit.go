// Package audit emits the portal's compliance trail: impersonation
// transitions, mutations performed under an impersonation overlay, and
// reason-gated patient data disclosures. Entries are immutable once emitted;
// identifiers and timestamps are assigned at emission time.
package audit

import (
	"context"
	"errors"
	"fmt"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Action identifies the kind of event an audit entry records.
const (
	ActionImpersonateStart  = "impersonate_start"
	ActionImpersonateEnd    = "impersonate_end"
	ActionImpersonatedOp    = "impersonated_action"
	ActionPatientDataAccess = "patient_data_access"
)

// AccessReason is the mandatory justification attached to every patient data
// disclosure. The set is closed; there is no default.
type AccessReason string

const (
	ReasonVerifyOrder       AccessReason = "to-verify-order"
	ReasonUpdateRecords     AccessReason = "to-update-records"
	ReasonAuthorizedRequest AccessReason = "authorized-user-request"
	ReasonOtherPurpose      AccessReason = "other-purpose"
)

// ValidAccessReasons returns the closed set of disclosure reasons.
func ValidAccessReasons() []AccessReason {
	return []AccessReason{
		ReasonVerifyOrder,
		ReasonUpdateRecords,
		ReasonAuthorizedRequest,
		ReasonOtherPurpose,
	}
}

// IsValidAccessReason checks whether a reason is a recognized value.
func IsValidAccessReason(r AccessReason) bool {
	for _, v := range ValidAccessReasons() {
		if v == r {
			return true
		}
	}
	return false
}

// ErrMissingReason is returned when a patient_data_access entry is emitted
// without a valid access reason.
var ErrMissingReason = errors.New("audit: access reason is required for patient data access")

// ErrUnknownAction is returned for drafts carrying an action outside the
// closed set above.
var ErrUnknownAction = errors.New("audit: unknown action")

// Entry is an immutable audit log record. TargetTenantID is nil when the
// event has no tenant target, and the null is serialized explicitly so the
// sink always sees either a tenant or a "no target" marker.
type Entry struct {
	LogID          string         `json:"log_id"`
	Timestamp      time.Time      `json:"timestamp"`
	Action         string         `json:"action"`
	ActorID        string         `json:"actor_id"`
	ActorName      string         `json:"actor_name"`
	TargetTenantID *string        `json:"target_tenant_id"`
	Resource       string         `json:"resource"`
	OrderID        string         `json:"order_id,omitempty"`
	Reason         AccessReason   `json:"reason,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
}

// Draft is an entry before emission: everything except the log id and
// timestamp, which the logger assigns.
type Draft struct {
	Action         string
	ActorID        string
	ActorName      string
	TargetTenantID *string
	Resource       string
	OrderID        string
	Reason         AccessReason
	Details        map[string]any
}

// TenantTarget is a convenience for building a Draft's target pointer.
func TenantTarget(tenantID string) *string {
	return &tenantID
}

// Logger assigns identifiers and timestamps to audit drafts and hands the
// resulting entries to its sinks. Delivery is asynchronous and best-effort:
// a sink failure (or a full delivery buffer) is logged and never surfaces to
// the emitting caller.
type Logger struct {
	log   zerolog.Logger
	sinks []Sink

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	lastTS  time.Time
	now     func() time.Time

	ch        chan Entry
	done      chan struct{}
	closeOnce sync.Once
}

const deliveryBufferSize = 256

// NewLogger creates a Logger delivering to the given sinks. The zerolog
// logger is used for delivery-failure reporting only; use a LogSink to write
// entries themselves as structured logs.
func NewLogger(log zerolog.Logger, sinks ...Sink) *Logger {
	l := &Logger{
		log:     log,
		sinks:   sinks,
		entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0),
		now:     time.Now,
		ch:      make(chan Entry, deliveryBufferSize),
		done:    make(chan struct{}),
	}
	go l.deliver()
	return l
}

// Emit validates the draft, assigns a ULID log id and a per-process
// monotonically non-decreasing UTC timestamp, and queues the entry for sink
// delivery. The returned entry is complete regardless of delivery outcome.
func (l *Logger) Emit(ctx context.Context, d Draft) (Entry, error) {
	switch d.Action {
	case ActionImpersonateStart, ActionImpersonateEnd, ActionImpersonatedOp:
	case ActionPatientDataAccess:
		if !IsValidAccessReason(d.Reason) {
			return Entry{}, ErrMissingReason
		}
	default:
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownAction, d.Action)
	}

	l.mu.Lock()
	ts := l.now().UTC()
	if ts.Before(l.lastTS) {
		ts = l.lastTS
	}
	l.lastTS = ts
	id := ulid.MustNew(ulid.Timestamp(ts), l.entropy).String()
	l.mu.Unlock()

	entry := Entry{
		LogID:          id,
		Timestamp:      ts,
		Action:         d.Action,
		ActorID:        d.ActorID,
		ActorName:      d.ActorName,
		TargetTenantID: d.TargetTenantID,
		Resource:       d.Resource,
		OrderID:        d.OrderID,
		Reason:         d.Reason,
		Details:        d.Details,
	}

	select {
	case l.ch <- entry:
	default:
		l.log.Error().
			Str("log_id", entry.LogID).
			Str("action", entry.Action).
			Msg("audit delivery buffer full, entry dropped")
	}

	return entry, nil
}

// deliver drains the queue, pushing each entry to every sink. Failures are
// logged and the entry is not retried.
func (l *Logger) deliver() {
	defer close(l.done)
	for entry := range l.ch {
		for _, s := range l.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.Deliver(ctx, entry); err != nil {
				l.log.Error().
					Err(err).
					Str("log_id", entry.LogID).
					Str("action", entry.Action).
					Msg("audit sink delivery failed")
			}
			cancel()
		}
	}
}

// Close stops accepting entries and blocks until queued entries have been
// handed to the sinks.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		close(l.ch)
		<-l.done
	})
}
