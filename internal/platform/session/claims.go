package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims is the session token payload produced by the external identity
// provider. Field names are the provider's data contract, not an internal
// choice.
type Claims struct {
	jwt.RegisteredClaims
	Role                   string `json:"role"`
	DisplayName            string `json:"display_name"`
	OwnTenantID            string `json:"own_tenant_id"`
	IsImpersonating        bool   `json:"is_impersonating"`
	ImpersonatedTenantID   string `json:"impersonated_tenant_id"`
	OriginatingAdminID     string `json:"originating_admin_id"`
	ImpersonationStartedAt int64  `json:"impersonation_started_at,omitempty"`
}

// Identity maps the claims to the portal identity.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:      c.Subject,
		DisplayName: c.DisplayName,
		Role:        Role(c.Role),
		OwnTenantID: c.OwnTenantID,
	}
}

// Overlay maps the claims to the impersonation overlay. A token claiming an
// impersonation without a target tenant yields an inactive overlay: the
// invariant wins over the flag.
func (c *Claims) Overlay() Overlay {
	if !c.IsImpersonating || c.ImpersonatedTenantID == "" || c.OriginatingAdminID == "" {
		return Overlay{}
	}
	o := Overlay{
		Active:               true,
		ImpersonatedTenantID: c.ImpersonatedTenantID,
		OriginatingAdminID:   c.OriginatingAdminID,
	}
	if c.ImpersonationStartedAt > 0 {
		o.StartedAt = time.Unix(c.ImpersonationStartedAt, 0).UTC()
	}
	return o
}

// Payload is the session shape returned to callers and consumed by the
// identity provider when it refreshes the token.
type Payload struct {
	UserID               string  `json:"user_id"`
	DisplayName          string  `json:"display_name"`
	Role                 string  `json:"role"`
	OwnTenantID          *string `json:"own_tenant_id"`
	IsImpersonating      bool    `json:"is_impersonating"`
	ImpersonatedTenantID *string `json:"impersonated_tenant_id"`
	OriginatingAdminID   *string `json:"originating_admin_id"`
	ActiveTenantID       *string `json:"active_tenant_id"`
}

// PayloadFor builds the wire payload for an effective session. Empty tenant
// and admin ids serialize as explicit nulls.
func PayloadFor(s EffectiveSession) Payload {
	p := Payload{
		UserID:          s.Identity.UserID,
		DisplayName:     s.Identity.DisplayName,
		Role:            string(s.Identity.Role),
		IsImpersonating: s.Overlay.Active,
	}
	if s.Identity.OwnTenantID != "" {
		p.OwnTenantID = &s.Identity.OwnTenantID
	}
	if s.Overlay.Active {
		p.ImpersonatedTenantID = &s.Overlay.ImpersonatedTenantID
		p.OriginatingAdminID = &s.Overlay.OriginatingAdminID
	}
	if s.ActiveTenantID != "" {
		p.ActiveTenantID = &s.ActiveTenantID
	}
	return p
}

type contextKey string

const sessionKey contextKey = "effective_session"

// FromContext retrieves the effective session installed by Middleware.
func FromContext(ctx context.Context) (EffectiveSession, bool) {
	s, ok := ctx.Value(sessionKey).(EffectiveSession)
	return s, ok
}

// WithSession returns a context carrying the given effective session.
// Handlers under Middleware never need it directly; tests do.
func WithSession(ctx context.Context, s EffectiveSession) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// MiddlewareConfig configures session token verification.
type MiddlewareConfig struct {
	SigningKey []byte
}

// Middleware returns Echo middleware that verifies the bearer session token,
// derives the effective session, and installs it on the request context.
// The effective session is recomputed per request; nothing is cached across
// requests.
func Middleware(cfg MiddlewareConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.SigningKey, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if !IsValidRole(Role(claims.Role)) {
				return echo.NewHTTPError(http.StatusUnauthorized, "unrecognized role")
			}
			if Role(claims.Role) == RoleCustomer && claims.OwnTenantID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "customer session without tenant")
			}
			// Admins own no tenant; a token claiming one would make an
			// unscoped admin silently scoped.
			if Role(claims.Role) == RoleAdmin && claims.OwnTenantID != "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "admin session with own tenant")
			}

			sess := Compute(claims.Identity(), claims.Overlay())

			ctx := WithSession(c.Request().Context(), sess)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("active_tenant_id", sess.ActiveTenantID)

			return next(c)
		}
	}
}

// MustFromContext is a helper for handlers mounted behind Middleware.
func MustFromContext(ctx context.Context) (EffectiveSession, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return EffectiveSession{}, fmt.Errorf("session: no effective session on context")
	}
	return s, nil
}
