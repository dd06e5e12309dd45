package session

import "testing"

// --- Compute tests ---

func TestComputeUnscopedAdmin(t *testing.T) {
	admin := Identity{UserID: "admin-1", Role: RoleAdmin}

	sess := Compute(admin, Overlay{})
	if sess.ActiveTenantID != "" {
		t.Errorf("active tenant = %q, want unscoped", sess.ActiveTenantID)
	}
	if !sess.AdminUnscoped {
		t.Error("expected AdminUnscoped")
	}
}

func TestComputeImpersonatingAdmin(t *testing.T) {
	admin := Identity{UserID: "admin-1", Role: RoleAdmin}
	overlay := Overlay{
		Active:               true,
		ImpersonatedTenantID: "CUST-001",
		OriginatingAdminID:   "admin-1",
	}

	sess := Compute(admin, overlay)
	if sess.ActiveTenantID != "CUST-001" {
		t.Errorf("active tenant = %q, want CUST-001", sess.ActiveTenantID)
	}
	if sess.AdminUnscoped {
		t.Error("impersonating admin must not be unscoped")
	}
	if !sess.IsAdmin() {
		t.Error("impersonation must not change the underlying role")
	}
}

func TestComputeCustomer(t *testing.T) {
	customer := Identity{UserID: "user-9", Role: RoleCustomer, OwnTenantID: "CUST-009"}

	sess := Compute(customer, Overlay{})
	if sess.ActiveTenantID != "CUST-009" {
		t.Errorf("active tenant = %q, want CUST-009", sess.ActiveTenantID)
	}
	if sess.AdminUnscoped {
		t.Error("customer session must never be unscoped")
	}
}

// TestComputeUnscopedEquivalence checks the invariant
// activeTenantID = "" ⟺ admin without overlay, across role/overlay
// combinations.
func TestComputeUnscopedEquivalence(t *testing.T) {
	cases := []struct {
		name     string
		identity Identity
		overlay  Overlay
	}{
		{"admin-no-overlay", Identity{UserID: "a", Role: RoleAdmin}, Overlay{}},
		{"admin-impersonating", Identity{UserID: "a", Role: RoleAdmin},
			Overlay{Active: true, ImpersonatedTenantID: "CUST-001", OriginatingAdminID: "a"}},
		{"customer", Identity{UserID: "c", Role: RoleCustomer, OwnTenantID: "CUST-002"}, Overlay{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := Compute(tc.identity, tc.overlay)
			unscoped := tc.identity.Role == RoleAdmin && !tc.overlay.Active
			if (sess.ActiveTenantID == "") != unscoped {
				t.Errorf("active tenant %q does not match unscoped=%v", sess.ActiveTenantID, unscoped)
			}
			if sess.AdminUnscoped != unscoped {
				t.Errorf("AdminUnscoped = %v, want %v", sess.AdminUnscoped, unscoped)
			}
		})
	}
}
