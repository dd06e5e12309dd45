package customer

import "time"

// Customer is a tenant in the portal. Its ID doubles as the tenant id
// stamped on every record the customer owns.
type Customer struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
