package order

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medsupply/orderportal/internal/platform/audit"
	"github.com/medsupply/orderportal/internal/platform/authz"
	"github.com/medsupply/orderportal/internal/platform/disclosure"
	"github.com/medsupply/orderportal/internal/platform/session"
	"github.com/medsupply/orderportal/internal/platform/tenancy"
)

// Handler exposes the order surface. Scoping and disclosure decisions live
// in the service; the handler maps them to status codes and keeps denied
// records indistinguishable from missing ones.
type Handler struct {
	svc *Service
}

// NewHandler creates an order handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the order routes on the given group.
func (h *Handler) Register(g *echo.Group) {
	orders := g.Group("/orders", authz.RequireFeature(authz.FeatureOrders))
	orders.GET("", h.List)
	orders.POST("", h.Create)
	orders.GET("/export.csv", h.Export, authz.RequireFeature(authz.FeatureOrderExport))
	orders.GET("/:id", h.Get)
	orders.PATCH("/:id/status", h.UpdateStatus)
	orders.POST("/:id/disclosure", h.Disclose, authz.RequireFeature(authz.FeaturePatientData))
}

func currentSession(c echo.Context) (session.EffectiveSession, error) {
	sess, ok := session.FromContext(c.Request().Context())
	if !ok {
		return session.EffectiveSession{}, echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	return sess, nil
}

func orderID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return id, nil
}

// List returns the session-visible orders, patient fields redacted where
// the disclosure gate applies.
func (h *Handler) List(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	orders, err := h.svc.List(c.Request().Context(), sess)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing orders failed")
	}

	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, VisibleOrder(sess, o))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"orders": out,
		"total":  len(out),
	})
}

// Get returns one order. Denied and missing records render identically.
func (h *Handler) Get(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	o, err := h.svc.Get(c.Request().Context(), sess, id)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, tenancy.ErrAccessDenied):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "loading order failed")
	}

	return c.JSON(http.StatusOK, VisibleOrder(sess, *o))
}

// Create authors a new order for the active tenant.
func (h *Handler) Create(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	o, err := h.svc.Create(c.Request().Context(), sess, in)
	switch {
	case errors.Is(err, tenancy.ErrMissingTenantContext):
		return echo.NewHTTPError(http.StatusConflict,
			"select a customer before creating an order: an unscoped view cannot own records")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "creating order failed")
	}

	return c.JSON(http.StatusCreated, VisibleOrder(sess, *o))
}

type updateStatusRequest struct {
	Status Status `json:"status"`
}

// UpdateStatus moves an order to a new fulfillment status.
func (h *Handler) UpdateStatus(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	o, err := h.svc.UpdateStatus(c.Request().Context(), sess, id, req.Status)
	switch {
	case errors.Is(err, ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, "unrecognized status")
	case errors.Is(err, ErrNotFound), errors.Is(err, tenancy.ErrAccessDenied):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "updating order failed")
	}

	return c.JSON(http.StatusOK, VisibleOrder(sess, *o))
}

type discloseRequest struct {
	Reason audit.AccessReason `json:"reason"`
}

// Disclose runs the reason-gated reveal for an order's patient fields and
// returns the order unredacted. The missing-reason failure is field-level
// and recoverable: the caller re-submits with a reason.
func (h *Handler) Disclose(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req discloseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	o, err := h.svc.Reveal(c.Request().Context(), sess, id, req.Reason)
	switch {
	case errors.Is(err, disclosure.ErrMissingReason):
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			map[string]string{"reason": "an access reason is required to view patient data"})
	case errors.Is(err, ErrNotFound), errors.Is(err, tenancy.ErrAccessDenied):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "disclosure failed")
	}

	return c.JSON(http.StatusOK, o)
}

// Export streams the session-visible orders as CSV.
func (h *Handler) Export(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="orders.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return h.svc.ExportCSV(c.Request().Context(), sess, c.Response())
}
