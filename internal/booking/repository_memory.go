package booking

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/nekogravitycat/servicehub-backend/internal/availability"
)

type memoryRepository struct {
	mu       sync.RWMutex
	bookings map[string]Booking
}

// NewMemoryRepository returns a Repository that keeps bookings in process memory.
func NewMemoryRepository() Repository {
	return &memoryRepository{bookings: make(map[string]Booking)}
}

func copyBooking(b Booking) *Booking {
	if b.TimeSpent != nil {
		v := *b.TimeSpent
		b.TimeSpent = &v
	}
	return &b
}

func (r *memoryRepository) Create(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID] = *copyBooking(*b)
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyBooking(b), nil
}

func (r *memoryRepository) List(_ context.Context, filter Filter) ([]*Booking, int, error) {
	r.mu.RLock()
	var matched []*Booking
	for _, b := range r.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.ProviderID != "" && b.ProviderID != filter.ProviderID {
			continue
		}
		if filter.Status != "" && string(b.Status) != filter.Status {
			continue
		}
		matched = append(matched, copyBooking(b))
	}
	r.mu.RUnlock()

	asc := strings.EqualFold(filter.SortOrder, "ASC")
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date) == asc
		}
		if a.StartTime != b.StartTime {
			return (a.StartTime < b.StartTime) == asc
		}
		return a.ID < b.ID
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

func (r *memoryRepository) Update(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[b.ID]; !ok {
		return ErrNotFound
	}
	r.bookings[b.ID] = *copyBooking(*b)
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *memoryRepository) CountByStatus(_ context.Context, providerID string) (map[availability.Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[availability.Status]int)
	for _, b := range r.bookings {
		if b.ProviderID == providerID {
			counts[b.Status]++
		}
	}
	return counts, nil
}
