package session

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the session surface: reading the effective session and
// starting/ending impersonation. Persisting the returned payload into a
// refreshed token is the identity provider's responsibility.
type Handler struct {
	mgr *Manager
}

// NewHandler creates a session handler.
func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

// Register mounts the session routes on the given group.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/session", h.Get)
	g.POST("/session/impersonation", h.StartImpersonation)
	g.DELETE("/session/impersonation", h.EndImpersonation)
}

// Get returns the current effective session payload.
func (h *Handler) Get(c echo.Context) error {
	sess, err := MustFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	return c.JSON(http.StatusOK, PayloadFor(sess))
}

type startImpersonationRequest struct {
	TenantID string `json:"tenant_id"`
}

// StartImpersonation activates an impersonation overlay for the caller.
func (h *Handler) StartImpersonation(c echo.Context) error {
	sess, err := MustFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}

	var req startImpersonationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	overlay, err := h.mgr.StartImpersonation(c.Request().Context(), sess.Identity, req.TenantID)
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, "only administrators may impersonate a customer")
	case errors.Is(err, ErrMissingTarget):
		return echo.NewHTTPError(http.StatusBadRequest, "tenant_id is required")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "impersonation failed")
	}

	return c.JSON(http.StatusOK, PayloadFor(Compute(sess.Identity, overlay)))
}

// EndImpersonation clears the caller's overlay. Always succeeds, including
// when no overlay is active.
func (h *Handler) EndImpersonation(c echo.Context) error {
	sess, err := MustFromContext(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}

	overlay := h.mgr.EndImpersonation(c.Request().Context(), sess.Identity, sess.Overlay)
	return c.JSON(http.StatusOK, PayloadFor(Compute(sess.Identity, overlay)))
}
