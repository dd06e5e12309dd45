package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medsupply/orderportal/internal/platform/session"
)

func loggerEcho(buf *bytes.Buffer, sess *session.EffectiveSession) *echo.Echo {
	e := echo.New()
	e.Use(RequestID(), Logger(zerolog.New(buf)))
	if sess != nil {
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				ctx := session.WithSession(c.Request().Context(), *sess)
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			}
		})
	}
	e.GET("/api/v1/orders", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return e
}

func TestLoggerCarriesSessionScope(t *testing.T) {
	var buf bytes.Buffer
	sess := session.Compute(
		session.Identity{UserID: "admin-1", Role: session.RoleAdmin},
		session.Overlay{Active: true, ImpersonatedTenantID: "CUST-001", OriginatingAdminID: "admin-1"})
	e := loggerEcho(&buf, &sess)

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	if line["active_tenant_id"] != "CUST-001" {
		t.Errorf("active_tenant_id = %v, want CUST-001", line["active_tenant_id"])
	}
	if line["impersonating"] != true {
		t.Errorf("impersonating = %v, want true", line["impersonating"])
	}
	if line["actor_id"] != "admin-1" {
		t.Errorf("actor_id = %v, want admin-1", line["actor_id"])
	}
	if line["request_id"] == "" || line["request_id"] == nil {
		t.Error("request_id missing from log line")
	}
}

func TestLoggerWithoutSession(t *testing.T) {
	// Unauthenticated surfaces (health) log without scope fields.
	var buf bytes.Buffer
	e := loggerEcho(&buf, nil)

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if _, ok := line["active_tenant_id"]; ok {
		t.Error("active_tenant_id present without a session")
	}
	if line["status"] != float64(http.StatusOK) {
		t.Errorf("status = %v, want 200", line["status"])
	}
}
