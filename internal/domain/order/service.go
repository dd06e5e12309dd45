package order

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/medsupply/orderportal/internal/platform/audit"
	"github.com/medsupply/orderportal/internal/platform/disclosure"
	"github.com/medsupply/orderportal/internal/platform/session"
	"github.com/medsupply/orderportal/internal/platform/tenancy"
)

// ErrInvalidStatus is returned for status transitions outside the closed
// status set.
var ErrInvalidStatus = errors.New("order: invalid status")

// Service applies the portal's tenant scoping and disclosure rules to the
// order store. Every read is narrowed to the caller's active tenant; every
// write resolves ownership before touching the repository.
type Service struct {
	repo  Repository
	audit *audit.Logger
	now   func() time.Time
}

// NewService creates an order service.
func NewService(repo Repository, auditLogger *audit.Logger) *Service {
	return &Service{repo: repo, audit: auditLogger, now: time.Now}
}

// List returns the orders visible to the session, most recent first. An
// unscoped admin sees every tenant's orders; everyone else sees only the
// active tenant's.
func (s *Service) List(ctx context.Context, sess session.EffectiveSession) ([]Order, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return tenancy.FilterByTenant(all, sess.ActiveTenantID), nil
}

// Get loads one order under the session's scope. A foreign tenant's order
// surfaces as tenancy.ErrAccessDenied, which handlers render exactly like a
// missing record.
func (s *Service) Get(ctx context.Context, sess session.EffectiveSession, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tenancy.VerifyOwnership(o, sess.ActiveTenantID) {
		return nil, tenancy.ErrAccessDenied
	}
	return o, nil
}

// CreateInput is the caller-supplied part of a new order.
type CreateInput struct {
	SiteID          *uuid.UUID `json:"site_id"`
	DirectToPatient bool       `json:"direct_to_patient"`
	PatientName     string     `json:"patient_name"`
	PatientDOB      string     `json:"patient_dob"`
	PatientAddress  string     `json:"patient_address"`
	ItemCount       int        `json:"item_count"`
}

// Create authors a new order owned by the session's active tenant. An
// unscoped admin gets tenancy.ErrMissingTenantContext: a record needs
// exactly one owner and the portal never picks one silently.
func (s *Service) Create(ctx context.Context, sess session.EffectiveSession, in CreateInput) (*Order, error) {
	tenantID, err := tenancy.ResolveTenantForNewRecord(sess.ActiveTenantID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	o := &Order{
		ID:              uuid.New(),
		OrderNumber:     fmt.Sprintf("ORD-%s", now.Format("20060102-150405.000")),
		TenantID:        tenantID,
		SiteID:          in.SiteID,
		Status:          StatusPending,
		DirectToPatient: in.DirectToPatient,
		PatientName:     in.PatientName,
		PatientDOB:      in.PatientDOB,
		PatientAddress:  in.PatientAddress,
		ItemCount:       in.ItemCount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus moves an order to a new status under the session's scope.
func (s *Service) UpdateStatus(ctx context.Context, sess session.EffectiveSession, id uuid.UUID, status Status) (*Order, error) {
	if !IsValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if _, err := s.Get(ctx, sess, id); err != nil {
		return nil, err
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Reveal runs the disclosure workflow for one order's patient fields and
// returns the order unredacted. The patient_data_access entry is emitted
// before anything is returned; a missing reason fails with
// disclosure.ErrMissingReason and nothing is disclosed.
func (s *Service) Reveal(ctx context.Context, sess session.EffectiveSession, id uuid.UUID, reason audit.AccessReason) (*Order, error) {
	o, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if !disclosure.Required(sess) || !o.HasPatientData() {
		return o, nil
	}

	gate := disclosure.New(s.audit, sess.Identity.UserID, sess.Identity.DisplayName, o.OrderNumber, o.TenantID)
	gate.RequestReveal()
	if err := gate.Confirm(ctx, reason); err != nil {
		return nil, err
	}
	return o, nil
}

// VisibleOrder shapes an order for the session: patient fields are redacted
// for gated viewers, passed through for scoped ones.
func VisibleOrder(sess session.EffectiveSession, o Order) Order {
	if disclosure.Required(sess) && o.HasPatientData() {
		return o.Redacted()
	}
	return o
}

// ExportCSV writes the session-visible orders as CSV. Patient fields follow
// the same redaction rule as list views; a reveal never flows into exports.
func (s *Service) ExportCSV(ctx context.Context, sess session.EffectiveSession, w io.Writer) error {
	orders, err := s.List(ctx, sess)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"order_number", "tenant_id", "status", "direct_to_patient", "patient_name", "item_count", "created_at"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	for _, o := range orders {
		v := VisibleOrder(sess, o)
		row := []string{
			v.OrderNumber,
			v.TenantID,
			string(v.Status),
			strconv.FormatBool(v.DirectToPatient),
			v.PatientName,
			strconv.Itoa(v.ItemCount),
			v.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
