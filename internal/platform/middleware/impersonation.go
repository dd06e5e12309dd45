package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medsupply/orderportal/internal/platform/audit"
	"github.com/medsupply/orderportal/internal/platform/session"
)

// mutatingMethods are the HTTP methods recorded as impersonated actions.
var mutatingMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// ImpersonationAudit returns middleware that records every successful
// mutation performed while an impersonation overlay is active. Session
// transitions themselves (start/end impersonation) are audited by the
// session manager and skipped here to avoid double entries.
func ImpersonationAudit(auditLogger *audit.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			req := c.Request()
			path := req.URL.Path
			if err != nil || !mutatingMethods[req.Method] {
				return err
			}
			if strings.HasPrefix(path, "/api/v1/session") {
				return err
			}
			if c.Response().Status >= http.StatusBadRequest {
				return err
			}

			sess, ok := session.FromContext(req.Context())
			if !ok || !sess.Impersonating() {
				return err
			}

			auditLogger.Emit(req.Context(), audit.Draft{
				Action:         audit.ActionImpersonatedOp,
				ActorID:        sess.Overlay.OriginatingAdminID,
				ActorName:      sess.Identity.DisplayName,
				TargetTenantID: audit.TenantTarget(sess.Overlay.ImpersonatedTenantID),
				Resource:       path,
				Details: map[string]any{
					"method": req.Method,
					"status": c.Response().Status,
				},
			})

			return err
		}
	}
}
