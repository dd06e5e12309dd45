// Package authz answers "can this role use feature X or reach screen Y" from
// static tables loaded at process start. Lookups are fail-closed: an unknown
// feature or unmatched screen path is denied, never silently allowed. The
// tables never mutate, so every check is safe on every render.
package authz

import (
	"sort"
	"strings"
)

// AccessLevel is the fidelity at which a role may use a feature. None is the
// no-access sentinel.
type AccessLevel int

const (
	LevelNone AccessLevel = iota
	LevelLimited
	LevelStandard
	LevelEnhanced
	LevelFull
)

func (l AccessLevel) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelLimited:
		return "limited"
	case LevelStandard:
		return "standard"
	case LevelEnhanced:
		return "enhanced"
	case LevelFull:
		return "full"
	default:
		return "unknown"
	}
}

// Feature identifies a portal capability. The set is closed; permission
// checks on identifiers outside it fail closed.
type Feature string

const (
	FeatureOrders            Feature = "orders"
	FeatureOrderExport       Feature = "order-export"
	FeatureSites             Feature = "sites"
	FeatureCustomerDirectory Feature = "customer-directory"
	FeatureImpersonation     Feature = "impersonation"
	FeatureAuditTrail        Feature = "audit-trail"
	FeaturePatientData       Feature = "patient-data"
)

type rolePolicy struct {
	admin    AccessLevel
	customer AccessLevel
}

// featureAccess is the static permission matrix. Every known feature is
// reachable by at least one role.
var featureAccess = map[Feature]rolePolicy{
	FeatureOrders:            {admin: LevelFull, customer: LevelStandard},
	FeatureOrderExport:       {admin: LevelFull, customer: LevelStandard},
	FeatureSites:             {admin: LevelFull, customer: LevelStandard},
	FeatureCustomerDirectory: {admin: LevelFull, customer: LevelNone},
	FeatureImpersonation:     {admin: LevelFull, customer: LevelNone},
	FeatureAuditTrail:        {admin: LevelEnhanced, customer: LevelNone},
	FeaturePatientData:       {admin: LevelEnhanced, customer: LevelStandard},
}

// CanAccessFeature reports whether the role may use the feature at all.
// Unknown features are denied.
func CanAccessFeature(feature Feature, isAdmin bool) bool {
	policy, ok := featureAccess[feature]
	if !ok {
		return false
	}
	if isAdmin {
		return policy.admin != LevelNone
	}
	return policy.customer != LevelNone
}

// FeatureViewLevel returns the fidelity at which the role uses the feature.
// Unknown features resolve to LevelLimited, the most restrictive usable
// level: a screen asking about a feature the matrix has never heard of gets
// the minimal rendering rather than an error.
func FeatureViewLevel(feature Feature, isAdmin bool) AccessLevel {
	policy, ok := featureAccess[feature]
	if !ok {
		return LevelLimited
	}
	if isAdmin {
		return policy.admin
	}
	return policy.customer
}

// screenRule grants roles access to a screen path prefix.
type screenRule struct {
	pattern  string
	admin    bool
	customer bool
}

// screenAccess lists the portal's screens. Matching is longest-prefix-first;
// the slice is sorted once at init.
var screenAccess = []screenRule{
	{pattern: "/", admin: true, customer: true},
	{pattern: "/orders", admin: true, customer: true},
	{pattern: "/orders/new", admin: true, customer: true},
	{pattern: "/sites", admin: true, customer: true},
	{pattern: "/customers", admin: true, customer: false},
	{pattern: "/customers/impersonate", admin: true, customer: false},
	{pattern: "/audit", admin: true, customer: false},
	{pattern: "/settings", admin: true, customer: true},
	{pattern: "/settings/users", admin: true, customer: false},
}

func init() {
	sort.SliceStable(screenAccess, func(i, j int) bool {
		return len(screenAccess[i].pattern) > len(screenAccess[j].pattern)
	})
}

// matchesScreen reports whether a path falls under a pattern. A pattern
// matches itself and anything below it; the root pattern matches only the
// root, so unlisted paths stay denied.
func matchesScreen(pattern, path string) bool {
	if pattern == "/" {
		return path == "/"
	}
	return path == pattern || strings.HasPrefix(path, pattern+"/")
}

// CanAccessScreen reports whether the role may reach the screen at path.
// The longest matching pattern decides; a path matching no pattern is
// denied.
func CanAccessScreen(path string, isAdmin bool) bool {
	for _, rule := range screenAccess {
		if matchesScreen(rule.pattern, path) {
			if isAdmin {
				return rule.admin
			}
			return rule.customer
		}
	}
	return false
}
