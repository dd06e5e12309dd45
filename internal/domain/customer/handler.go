package customer

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medsupply/orderportal/internal/platform/authz"
)

// Handler exposes the customer directory. The whole surface sits behind the
// directory feature guard, which only admins hold.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the customer routes on the given group.
func (h *Handler) Register(g *echo.Group) {
	customers := g.Group("/customers", authz.RequireFeature(authz.FeatureCustomerDirectory))
	customers.GET("", h.List)
	customers.GET("/:id", h.Get)
}

// List returns the full directory for the impersonation picker.
func (h *Handler) List(c echo.Context) error {
	customers, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing customers failed")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"customers": customers,
		"total":     len(customers),
	})
}

// Get returns one customer by tenant id.
func (h *Handler) Get(c echo.Context) error {
	cust, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "customer not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "loading customer failed")
	}
	return c.JSON(http.StatusOK, cust)
}
