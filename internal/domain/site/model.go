package site

import (
	"time"

	"github.com/google/uuid"
)

// Site is a delivery location owned by one customer tenant.
type Site struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OwnerTenant reports the owning tenant for scope filtering.
func (s Site) OwnerTenant() string { return s.TenantID }
