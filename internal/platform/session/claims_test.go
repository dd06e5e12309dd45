package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-signing-key-for-session-tests")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// --- Claims mapping tests ---

func TestClaimsOverlayEnforcesInvariant(t *testing.T) {
	// is_impersonating without a target must yield an inactive overlay.
	c := &Claims{IsImpersonating: true}
	if c.Overlay().Active {
		t.Error("overlay active despite missing target tenant")
	}

	c = &Claims{
		IsImpersonating:      true,
		ImpersonatedTenantID: "CUST-001",
	}
	if c.Overlay().Active {
		t.Error("overlay active despite missing originating admin")
	}

	c = &Claims{
		IsImpersonating:      true,
		ImpersonatedTenantID: "CUST-001",
		OriginatingAdminID:   "admin-1",
	}
	if !c.Overlay().Active {
		t.Error("expected active overlay with both fields present")
	}
}

func TestPayloadForNullMarkers(t *testing.T) {
	sess := Compute(Identity{UserID: "admin-1", Role: RoleAdmin}, Overlay{})
	data, err := json.Marshal(PayloadFor(sess))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range []string{"own_tenant_id", "impersonated_tenant_id", "originating_admin_id", "active_tenant_id"} {
		v, ok := raw[field]
		if !ok {
			t.Errorf("expected %s present", field)
			continue
		}
		if v != nil {
			t.Errorf("%s = %v, want explicit null", field, v)
		}
	}
}

// --- Middleware tests ---

func newSessionEcho() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(MiddlewareConfig{SigningKey: testSigningKey}))
	e.GET("/whoami", func(c echo.Context) error {
		sess, _ := FromContext(c.Request().Context())
		return c.JSON(http.StatusOK, PayloadFor(sess))
	})
	return e
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	e := newSessionEcho()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareRejectsBadSignature(t *testing.T) {
	e := newSessionEcho()
	claims := &Claims{Role: "admin"}
	claims.Subject = "admin-1"
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte("wrong-key"))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareRejectsCustomerWithoutTenant(t *testing.T) {
	e := newSessionEcho()
	claims := &Claims{Role: "customer", DisplayName: "No Tenant"}
	claims.Subject = "user-1"

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareRejectsAdminWithOwnTenant(t *testing.T) {
	// An admin token carrying a tenant of its own would scope a view that
	// must be unscoped: an unscoped admin has an empty active tenant, and
	// only an overlay may narrow it.
	e := newSessionEcho()
	claims := &Claims{Role: "admin", DisplayName: "Pat Admin", OwnTenantID: "CUST-001"}
	claims.Subject = "admin-1"

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareInstallsEffectiveSession(t *testing.T) {
	e := newSessionEcho()
	claims := &Claims{
		Role:                 "admin",
		DisplayName:          "Pat Admin",
		IsImpersonating:      true,
		ImpersonatedTenantID: "CUST-001",
		OriginatingAdminID:   "admin-1",
	}
	claims.Subject = "admin-1"

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var p Payload
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ActiveTenantID == nil || *p.ActiveTenantID != "CUST-001" {
		t.Errorf("active tenant = %v, want CUST-001", p.ActiveTenantID)
	}
	if !p.IsImpersonating {
		t.Error("expected is_impersonating true")
	}
}
