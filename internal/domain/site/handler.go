package site

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medsupply/orderportal/internal/platform/authz"
	"github.com/medsupply/orderportal/internal/platform/session"
	"github.com/medsupply/orderportal/internal/platform/tenancy"
)

// Handler exposes the site surface.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the site routes on the given group.
func (h *Handler) Register(g *echo.Group) {
	sites := g.Group("/sites", authz.RequireFeature(authz.FeatureSites))
	sites.GET("", h.List)
	sites.GET("/:id", h.Get)
}

// List returns the session-visible sites.
func (h *Handler) List(c echo.Context) error {
	sess, ok := session.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}

	sites, err := h.svc.List(c.Request().Context(), sess)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing sites failed")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"sites": sites,
		"total": len(sites),
	})
}

// Get returns one site. Denied and missing records render identically.
func (h *Handler) Get(c echo.Context) error {
	sess, ok := session.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "site not found")
	}

	st, err := h.svc.Get(c.Request().Context(), sess, id)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, tenancy.ErrAccessDenied):
		return echo.NewHTTPError(http.StatusNotFound, "site not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "loading site failed")
	}
	return c.JSON(http.StatusOK, st)
}
