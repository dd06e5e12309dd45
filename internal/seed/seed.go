// Package seed builds the deterministic demo dataset used in memory mode
// and for first-run database population. Identifiers are derived from
// stable names so repeated runs, and the tests, see the same records.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medsupply/orderportal/internal/domain/customer"
	"github.com/medsupply/orderportal/internal/domain/order"
	"github.com/medsupply/orderportal/internal/domain/site"
)

// namespace anchors the SHA1-derived ids for the whole dataset.
var namespace = uuid.MustParse("7b1d0aa2-4f63-4a41-9c2e-3f8d5b6a9e01")

var baseTime = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

func stableID(name string) uuid.UUID {
	return uuid.NewSHA1(namespace, []byte(name))
}

// Customers returns the four demo tenants.
func Customers() []customer.Customer {
	names := map[string]string{
		"CUST-001": "Lakeside Medical Group",
		"CUST-002": "Harbor Home Health",
		"CUST-003": "Summit Care Partners",
		"CUST-004": "Prairie Clinics",
	}
	out := make([]customer.Customer, 0, len(names))
	for _, id := range []string{"CUST-001", "CUST-002", "CUST-003", "CUST-004"} {
		out = append(out, customer.Customer{
			ID:        id,
			Name:      names[id],
			Active:    true,
			CreatedAt: baseTime,
		})
	}
	return out
}

// Sites returns two delivery sites per tenant.
func Sites() []site.Site {
	var out []site.Site
	for _, c := range Customers() {
		for i, kind := range []string{"Main Office", "Distribution"} {
			name := fmt.Sprintf("%s %s", c.Name, kind)
			out = append(out, site.Site{
				ID:        stableID("site/" + c.ID + "/" + kind),
				TenantID:  c.ID,
				Name:      name,
				Address:   fmt.Sprintf("%d Commerce Way", 100+i),
				Active:    true,
				CreatedAt: baseTime,
			})
		}
	}
	return out
}

// patients cycle through the direct-to-patient orders.
var patients = []struct {
	name, dob, address string
}{
	{"Alex Rivera", "1957-03-22", "48 Birch Lane"},
	{"Morgan Chen", "1964-11-08", "221 Oak Hollow Rd"},
	{"Sam Okafor", "1949-07-14", "9 Harbor View Ct"},
}

// Orders returns exactly 28 orders spread across the four tenants. Every
// fourth order ships direct to a patient and carries patient fields.
func Orders() []order.Order {
	tenants := []string{"CUST-001", "CUST-002", "CUST-003", "CUST-004"}
	statuses := []order.Status{
		order.StatusPending, order.StatusProcessing, order.StatusShipped,
		order.StatusDelivered, order.StatusShipped, order.StatusProcessing,
		order.StatusPending,
	}

	sites := Sites()
	siteFor := func(tenant string) uuid.UUID {
		for _, s := range sites {
			if s.TenantID == tenant {
				return s.ID
			}
		}
		return uuid.Nil
	}

	out := make([]order.Order, 0, 28)
	for i := 0; i < 28; i++ {
		tenant := tenants[i%len(tenants)]
		number := fmt.Sprintf("ORD-2026-%04d", 1001+i)
		created := baseTime.Add(time.Duration(i) * 6 * time.Hour)

		o := order.Order{
			ID:          stableID("order/" + number),
			OrderNumber: number,
			TenantID:    tenant,
			Status:      statuses[i%len(statuses)],
			ItemCount:   1 + i%5,
			CreatedAt:   created,
			UpdatedAt:   created,
		}

		if i%4 == 3 {
			p := patients[(i/4)%len(patients)]
			o.DirectToPatient = true
			o.PatientName = p.name
			o.PatientDOB = p.dob
			o.PatientAddress = p.address
		} else {
			sid := siteFor(tenant)
			o.SiteID = &sid
		}
		out = append(out, o)
	}
	return out
}

// Apply loads the demo dataset into the given repositories.
func Apply(ctx context.Context, customers customer.Repository, sites site.Repository, orders order.Repository) error {
	for _, c := range Customers() {
		c := c
		if err := customers.Create(ctx, &c); err != nil {
			return fmt.Errorf("seeding customer %s: %w", c.ID, err)
		}
	}
	for _, s := range Sites() {
		s := s
		if err := sites.Create(ctx, &s); err != nil {
			return fmt.Errorf("seeding site %s: %w", s.Name, err)
		}
	}
	for _, o := range Orders() {
		o := o
		if err := orders.Create(ctx, &o); err != nil {
			return fmt.Errorf("seeding order %s: %w", o.OrderNumber, err)
		}
	}
	return nil
}
