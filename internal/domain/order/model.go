package order

import (
	"time"

	"github.com/google/uuid"
)

// Status is an order's fulfillment state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// IsValidStatus checks whether a status string is recognized.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is a tenant-owned supply order. Direct-to-Patient orders carry
// patient-identifying fields and are the portal's sensitive record class.
// TenantID is fixed at creation and never reassigned.
type Order struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	OrderNumber     string     `db:"order_number" json:"order_number"`
	TenantID        string     `db:"tenant_id" json:"tenant_id"`
	SiteID          *uuid.UUID `db:"site_id" json:"site_id,omitempty"`
	Status          Status     `db:"status" json:"status"`
	DirectToPatient bool       `db:"direct_to_patient" json:"direct_to_patient"`
	PatientName     string     `db:"patient_name" json:"patient_name,omitempty"`
	PatientDOB      string     `db:"patient_dob" json:"patient_dob,omitempty"`
	PatientAddress  string     `db:"patient_address" json:"patient_address,omitempty"`
	ItemCount       int        `db:"item_count" json:"item_count"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// OwnerTenant implements tenancy.Owned.
func (o Order) OwnerTenant() string { return o.TenantID }

// HasPatientData reports whether the order carries patient-identifying
// fields.
func (o Order) HasPatientData() bool {
	return o.DirectToPatient
}

// Redacted returns a copy with the patient-identifying fields blanked.
func (o Order) Redacted() Order {
	o.PatientName = ""
	o.PatientDOB = ""
	o.PatientAddress = ""
	return o
}
