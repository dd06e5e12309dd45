package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepo is the Postgres-backed Repository.
type PGRepo struct {
	pool *pgxpool.Pool
}

// NewPGRepo creates a repository backed by the given connection pool.
func NewPGRepo(pool *pgxpool.Pool) *PGRepo {
	return &PGRepo{pool: pool}
}

const orderColumns = `
	id, order_number, tenant_id, site_id, status, direct_to_patient,
	patient_name, patient_dob, patient_address, item_count, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.TenantID, &o.SiteID, &o.Status, &o.DirectToPatient,
		&o.PatientName, &o.PatientDOB, &o.PatientAddress, &o.ItemCount, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepo) List(ctx context.Context) ([]Order, error) {
	query := `SELECT` + orderColumns + ` FROM portal_order ORDER BY created_at DESC, order_number`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("order list: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("order list: scan: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT` + orderColumns + ` FROM portal_order WHERE id = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("order get: %w", err)
	}
	return o, nil
}

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	const query = `
		INSERT INTO portal_order (
			id, order_number, tenant_id, site_id, status, direct_to_patient,
			patient_name, patient_dob, patient_address, item_count, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	_, err := r.pool.Exec(ctx, query,
		o.ID, o.OrderNumber, o.TenantID, o.SiteID, o.Status, o.DirectToPatient,
		o.PatientName, o.PatientDOB, o.PatientAddress, o.ItemCount, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("order create: %w", err)
	}
	return nil
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Order, error) {
	query := `
		UPDATE portal_order SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING` + orderColumns

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("order update status: %w", err)
	}
	return o, nil
}
