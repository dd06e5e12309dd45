// Package tenancy narrows tenant-owned data to what the active session may
// see. Every order and site list in the portal flows through FilterByTenant,
// and every detail load through VerifyOwnership.
package tenancy

import (
	"errors"
	"regexp"
)

// Owned is implemented by any record with exactly one owning tenant, fixed
// at creation.
type Owned interface {
	OwnerTenant() string
}

// ErrMissingTenantContext is returned when an unscoped admin tries to author
// a tenant-owned record without first selecting a tenant. A new record must
// have exactly one owner; the portal never guesses one.
var ErrMissingTenantContext = errors.New("tenancy: no tenant selected for new record")

// ErrAccessDenied is returned when a single-record ownership check fails.
// Callers render it as not-found so the record's existence is not leaked.
var ErrAccessDenied = errors.New("tenancy: access denied")

var tenantIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidTenantID reports whether an identifier is well-formed. The empty
// string is not a tenant id; it is the unscoped marker.
func ValidTenantID(tenantID string) bool {
	return tenantIDPattern.MatchString(tenantID)
}

// FilterByTenant returns the records visible to the active tenant scope.
// An empty activeTenantID means unscoped and returns the input slice
// unchanged. Otherwise the result is a fresh slice preserving input order,
// holding exactly the records owned by the active tenant. Applying the
// filter twice with the same scope yields the same result.
func FilterByTenant[T Owned](records []T, activeTenantID string) []T {
	if activeTenantID == "" {
		return records
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if r.OwnerTenant() == activeTenantID {
			out = append(out, r)
		}
	}
	return out
}

// VerifyOwnership reports whether the active scope may see the record:
// unscoped sessions see everything, scoped sessions only their own tenant's
// records.
func VerifyOwnership(record Owned, activeTenantID string) bool {
	return activeTenantID == "" || record.OwnerTenant() == activeTenantID
}

// ResolveTenantForNewRecord returns the owning tenant for a record being
// created under the active scope, or ErrMissingTenantContext when the scope
// is unscoped.
func ResolveTenantForNewRecord(activeTenantID string) (string, error) {
	if activeTenantID == "" {
		return "", ErrMissingTenantContext
	}
	return activeTenantID, nil
}
