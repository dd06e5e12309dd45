package site

import (
	"context"

	"github.com/google/uuid"

	"github.com/medsupply/orderportal/internal/platform/session"
	"github.com/medsupply/orderportal/internal/platform/tenancy"
)

// Service applies tenant scoping over the site repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the sites visible to the session.
func (s *Service) List(ctx context.Context, sess session.EffectiveSession) ([]Site, error) {
	sites, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return tenancy.FilterByTenant(sites, sess.ActiveTenantID), nil
}

// Get returns one site if the session may see it.
func (s *Service) Get(ctx context.Context, sess session.EffectiveSession, id uuid.UUID) (*Site, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tenancy.VerifyOwnership(st, sess.ActiveTenantID) {
		return nil, tenancy.ErrAccessDenied
	}
	return st, nil
}
