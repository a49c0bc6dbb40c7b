package provider

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*Provider
	byUser map[string]string
}

// NewMemoryRepository returns a Repository that keeps providers in process
// memory. Stored values are copied on the way in and out.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:   make(map[string]*Provider),
		byUser: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, p *Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID]; ok {
		return ErrConflict
	}
	if _, ok := r.byUser[p.UserID]; ok {
		return ErrConflict
	}
	r.byID[p.ID] = p.Clone()
	r.byUser[p.UserID] = p.ID
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (r *memoryRepository) GetByUserID(ctx context.Context, userID string) (*Provider, error) {
	r.mu.RLock()
	id, ok := r.byUser[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *memoryRepository) List(_ context.Context, filter Filter) ([]*Provider, int, error) {
	r.mu.RLock()
	var matched []*Provider
	for _, p := range r.byID {
		if filter.Category == "" || offersCategory(p, filter.Category) {
			matched = append(matched, p.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Rating != matched[j].Rating {
			return matched[i].Rating > matched[j].Rating
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return nil, total, nil
	}
	end := min(start+filter.PageSize, total)
	return matched[start:end], total, nil
}

func (r *memoryRepository) Save(_ context.Context, p *Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[p.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != p.Version {
		return ErrConflict
	}

	p.Version++
	r.byID[p.ID] = p.Clone()
	return nil
}

func offersCategory(p *Provider, category string) bool {
	for _, s := range p.Services {
		if s.Category == category {
			return true
		}
	}
	return false
}
