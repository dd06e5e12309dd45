package authz

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medsupply/orderportal/internal/platform/session"
)

// RequireFeature returns middleware that rejects callers whose role has no
// access to the feature.
func RequireFeature(feature Feature) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := session.FromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "no session")
			}
			if !CanAccessFeature(feature, sess.IsAdmin()) {
				return echo.NewHTTPError(http.StatusForbidden, "feature not available for this role")
			}
			return next(c)
		}
	}
}

// RequireAdmin returns middleware that rejects non-admin callers. The check
// is on the underlying identity: an admin impersonating a customer keeps
// admin surfaces.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := session.FromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "no session")
			}
			if !sess.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "administrator role required")
			}
			return next(c)
		}
	}
}
