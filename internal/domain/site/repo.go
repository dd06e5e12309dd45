package site

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no site exists with the given id.
var ErrNotFound = errors.New("site not found")

// Repository stores sites. Tenant scoping is applied by the service layer.
type Repository interface {
	List(ctx context.Context) ([]Site, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Site, error)
	Create(ctx context.Context, s *Site) error
}

// MemoryRepo is an in-memory Repository used in memory mode and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	sites map[uuid.UUID]Site
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{sites: make(map[uuid.UUID]Site)}
}

func (r *MemoryRepo) List(_ context.Context) ([]Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Site, 0, len(r.sites))
	for _, s := range r.sites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Site, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sites[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemoryRepo) Create(_ context.Context, s *Site) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sites[s.ID] = *s
	return nil
}
