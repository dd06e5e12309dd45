package site

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const siteColumns = `id, tenant_id, name, address, active, created_at`

// PGRepo is the Postgres Repository.
type PGRepo struct {
	pool *pgxpool.Pool
}

func NewPGRepo(pool *pgxpool.Pool) *PGRepo {
	return &PGRepo{pool: pool}
}

func scanSite(row pgx.Row) (*Site, error) {
	var s Site
	err := row.Scan(&s.ID, &s.TenantID, &s.Name, &s.Address, &s.Active, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGRepo) List(ctx context.Context) ([]Site, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+siteColumns+` FROM site ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}
	defer rows.Close()

	var out []Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning site: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, id uuid.UUID) (*Site, error) {
	s, err := scanSite(r.pool.QueryRow(ctx,
		`SELECT `+siteColumns+` FROM site WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading site: %w", err)
	}
	return s, nil
}

func (r *PGRepo) Create(ctx context.Context, s *Site) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO site (`+siteColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.TenantID, s.Name, s.Address, s.Active, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting site: %w", err)
	}
	return nil
}
