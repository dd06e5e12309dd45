package order

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medsupply/orderportal/internal/platform/audit"
	"github.com/medsupply/orderportal/internal/platform/session"
	"github.com/medsupply/orderportal/internal/platform/tenancy"
)

func unscopedAdmin() session.EffectiveSession {
	return session.Compute(session.Identity{UserID: "admin-1", DisplayName: "Pat Admin", Role: session.RoleAdmin}, session.Overlay{})
}

func customerSession(tenant string) session.EffectiveSession {
	return session.Compute(
		session.Identity{UserID: "u-" + tenant, Role: session.RoleCustomer, OwnTenantID: tenant},
		session.Overlay{})
}

func impersonatingAdmin(tenant string) session.EffectiveSession {
	return session.Compute(
		session.Identity{UserID: "admin-1", DisplayName: "Pat Admin", Role: session.RoleAdmin},
		session.Overlay{Active: true, ImpersonatedTenantID: tenant, OriginatingAdminID: "admin-1"})
}

func seedRepo(t *testing.T, repo Repository, specs []Order) {
	t.Helper()
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := range specs {
		o := specs[i]
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		if o.Status == "" {
			o.Status = StatusPending
		}
		o.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		o.UpdatedAt = o.CreatedAt
		if err := repo.Create(context.Background(), &o); err != nil {
			t.Fatalf("seed order %d: %v", i, err)
		}
	}
}

func newTestService(t *testing.T) (*Service, *MemoryRepo, *audit.MemorySink, *audit.Logger) {
	t.Helper()
	sink := audit.NewMemorySink()
	logger := audit.NewLogger(zerolog.Nop(), sink)
	repo := NewMemoryRepo()
	return NewService(repo, logger), repo, sink, logger
}

// --- List tests ---

func TestListUnscopedAdminSeesAll(t *testing.T) {
	svc, repo, _, logger := newTestService(t)
	defer logger.Close()
	seedRepo(t, repo, []Order{
		{OrderNumber: "ORD-1", TenantID: "CUST-001"},
		{OrderNumber: "ORD-2", TenantID: "CUST-002"},
		{OrderNumber: "ORD-3", TenantID: "CUST-001"},
	})

	orders, err := svc.List(context.Background(), unscopedAdmin())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 3 {
		t.Errorf("unscoped admin sees %d orders, want 3", len(orders))
	}
}

func TestListScopedToActiveTenant(t *testing.T) {
	svc, repo, _, logger := newTestService(t)
	defer logger.Close()
	seedRepo(t, repo, []Order{
		{OrderNumber: "ORD-1", TenantID: "CUST-001"},
		{OrderNumber: "ORD-2", TenantID: "CUST-002"},
		{OrderNumber: "ORD-3", TenantID: "CUST-001"},
	})

	for _, sess := range []session.EffectiveSession{
		customerSession("CUST-001"),
		impersonatingAdmin("CUST-001"),
	} {
		orders, err := svc.List(context.Background(), sess)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(orders) != 2 {
			t.Errorf("scoped session sees %d orders, want 2", len(orders))
		}
		for _, o := range orders {
			if o.TenantID != "CUST-001" {
				t.Errorf("order %s leaked from %s", o.OrderNumber, o.TenantID)
			}
		}
	}
}

// --- Get tests ---

func TestGetDeniesForeignTenant(t *testing.T) {
	svc, repo, _, logger := newTestService(t)
	defer logger.Close()
	id := uuid.New()
	seedRepo(t, repo, []Order{{ID: id, OrderNumber: "ORD-1", TenantID: "CUST-001"}})

	if _, err := svc.Get(context.Background(), customerSession("CUST-002"), id); !errors.Is(err, tenancy.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	if _, err := svc.Get(context.Background(), customerSession("CUST-001"), id); err != nil {
		t.Fatalf("owner denied: %v", err)
	}
	if _, err := svc.Get(context.Background(), unscopedAdmin(), id); err != nil {
		t.Fatalf("unscoped admin denied: %v", err)
	}
}

// --- Create tests ---

func TestCreateResolvesTenant(t *testing.T) {
	svc, _, _, logger := newTestService(t)
	defer logger.Close()

	o, err := svc.Create(context.Background(), customerSession("CUST-005"), CreateInput{ItemCount: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if o.TenantID != "CUST-005" {
		t.Errorf("tenant = %s, want CUST-005", o.TenantID)
	}
	if o.Status != StatusPending {
		t.Errorf("status = %s, want pending", o.Status)
	}
}

func TestCreateFailsUnscoped(t *testing.T) {
	svc, repo, _, logger := newTestService(t)
	defer logger.Close()

	_, err := svc.Create(context.Background(), unscopedAdmin(), CreateInput{})
	if !errors.Is(err, tenancy.ErrMissingTenantContext) {
		t.Fatalf("expected ErrMissingTenantContext, got %v", err)
	}

	orders, _ := repo.List(context.Background())
	if len(orders) != 0 {
		t.Errorf("refused create still stored %d orders", len(orders))
	}
}

// --- UpdateStatus tests ---

func TestUpdateStatus(t *testing.T) {
	svc, repo, _, logger := newTestService(t)
	defer logger.Close()
	id := uuid.New()
	seedRepo(t, repo, []Order{{ID: id, OrderNumber: "ORD-1", TenantID: "CUST-001"}})

	if _, err := svc.UpdateStatus(context.Background(), customerSession("CUST-001"), id, "teleported"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), customerSession("CUST-002"), id, StatusShipped); !errors.Is(err, tenancy.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	o, err := svc.UpdateStatus(context.Background(), customerSession("CUST-001"), id, StatusShipped)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if o.Status != StatusShipped {
		t.Errorf("status = %s, want shipped", o.Status)
	}
}

// --- Reveal / redaction tests ---

func dtpOrder(id uuid.UUID, tenant string) Order {
	return Order{
		ID:              id,
		OrderNumber:     "ORD-DTP",
		TenantID:        tenant,
		DirectToPatient: true,
		PatientName:     "Jordan Doe",
		PatientDOB:      "1980-04-12",
		PatientAddress:  "12 Elm St",
	}
}

func TestRevealRequiresReasonForUnscopedAdmin(t *testing.T) {
	svc, repo, sink, logger := newTestService(t)
	id := uuid.New()
	seedRepo(t, repo, []Order{dtpOrder(id, "CUST-001")})

	if _, err := svc.Reveal(context.Background(), unscopedAdmin(), id, ""); !errors.Is(err, audit.ErrMissingReason) {
		t.Fatalf("expected ErrMissingReason, got %v", err)
	}

	o, err := svc.Reveal(context.Background(), unscopedAdmin(), id, audit.ReasonVerifyOrder)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if o.PatientName != "Jordan Doe" {
		t.Errorf("patient name = %q, want unredacted", o.PatientName)
	}

	logger.Close()
	var accesses []audit.Entry
	for _, e := range sink.Entries() {
		if e.Action == audit.ActionPatientDataAccess {
			accesses = append(accesses, e)
		}
	}
	if len(accesses) != 1 {
		t.Fatalf("expected exactly 1 patient_data_access entry, got %d", len(accesses))
	}
	if accesses[0].Reason != audit.ReasonVerifyOrder {
		t.Errorf("reason = %s, want to-verify-order", accesses[0].Reason)
	}
	if accesses[0].OrderID != "ORD-DTP" {
		t.Errorf("order id = %s, want ORD-DTP", accesses[0].OrderID)
	}
}

func TestRevealUngatedForScopedViewers(t *testing.T) {
	svc, repo, sink, logger := newTestService(t)
	id := uuid.New()
	seedRepo(t, repo, []Order{dtpOrder(id, "CUST-001")})

	// Scoped viewers get the fields without a reason and without audit.
	for _, sess := range []session.EffectiveSession{
		customerSession("CUST-001"),
		impersonatingAdmin("CUST-001"),
	} {
		o, err := svc.Reveal(context.Background(), sess, id, "")
		if err != nil {
			t.Fatalf("reveal: %v", err)
		}
		if o.PatientName == "" {
			t.Error("scoped viewer got redacted fields")
		}
	}

	logger.Close()
	if got := len(sink.Entries()); got != 0 {
		t.Errorf("scoped reveals emitted %d audit entries, want 0", got)
	}
}

func TestVisibleOrderRedaction(t *testing.T) {
	o := dtpOrder(uuid.New(), "CUST-001")

	red := VisibleOrder(unscopedAdmin(), o)
	if red.PatientName != "" || red.PatientDOB != "" || red.PatientAddress != "" {
		t.Errorf("unscoped admin sees patient fields: %+v", red)
	}
	if !red.DirectToPatient {
		t.Error("redaction must not hide the order class")
	}

	full := VisibleOrder(customerSession("CUST-001"), o)
	if full.PatientName != "Jordan Doe" {
		t.Error("scoped viewer lost patient fields")
	}
}

func TestExportCSVRedactsForUnscopedAdmin(t *testing.T) {
	svc, repo, _, logger := newTestService(t)
	defer logger.Close()
	seedRepo(t, repo, []Order{
		dtpOrder(uuid.New(), "CUST-001"),
		{OrderNumber: "ORD-PLAIN", TenantID: "CUST-002"},
	})

	var b strings.Builder
	if err := svc.ExportCSV(context.Background(), unscopedAdmin(), &b); err != nil {
		t.Fatalf("export: %v", err)
	}

	out := b.String()
	if strings.Contains(out, "Jordan Doe") {
		t.Error("export leaked patient name to unscoped admin")
	}
	if !strings.Contains(out, "ORD-DTP") || !strings.Contains(out, "ORD-PLAIN") {
		t.Errorf("export missing rows:\n%s", out)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Errorf("export has %d lines, want header + 2 rows", len(lines))
	}
}
