package customer

import (
	"context"

	"github.com/medsupply/orderportal/internal/platform/tenancy"
)

// Service exposes the customer directory. It backs the admin's customer
// picker, so it deliberately has no tenant scoping of its own.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all customers ordered by id.
func (s *Service) List(ctx context.Context) ([]Customer, error) {
	return s.repo.List(ctx)
}

// Get returns one customer by tenant id.
func (s *Service) Get(ctx context.Context, id string) (*Customer, error) {
	if !tenancy.ValidTenantID(id) {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}
