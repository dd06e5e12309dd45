package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medsupply/orderportal/internal/platform/session"
)

// Logger logs one structured event per request. The tenant scope and
// impersonation state land on every line so the access log can be read next
// to the audit trail: the trail records what was disclosed, the request log
// records as whom.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			// Session middleware sits further down the chain; the scope
			// fields are present once it has run for this request.
			if sess, ok := session.FromContext(c.Request().Context()); ok {
				evt = evt.
					Str("actor_id", sess.Identity.UserID).
					Str("active_tenant_id", sess.ActiveTenantID).
					Bool("impersonating", sess.Impersonating())
			}

			evt.Msg("request")
			return err
		}
	}
}
