package customer

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned when no customer exists with the given id.
var ErrNotFound = errors.New("customer not found")

// Repository stores customers. The directory is admin-only, so there is no
// tenant scoping here; the route guard does the gating.
type Repository interface {
	List(ctx context.Context) ([]Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
}

// MemoryRepo is an in-memory Repository used in memory mode and tests.
type MemoryRepo struct {
	mu        sync.RWMutex
	customers map[string]Customer
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{customers: make(map[string]Customer)}
}

func (r *MemoryRepo) List(_ context.Context) ([]Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (*Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *MemoryRepo) Create(_ context.Context, c *Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.customers[c.ID] = *c
	return nil
}
