package provider

import (
	"context"
	"errors"
)

// UpdateWithRetry reads provider id, applies mutate and saves it with a
// version check. A stale write is retried from a fresh read up to attempts
// times; after that ErrConflict is returned. Errors from mutate stop the loop
// and are returned unchanged.
func UpdateWithRetry(ctx context.Context, repo Repository, id string, attempts int, mutate func(p *Provider) error) (*Provider, error) {
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		p, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := mutate(p); err != nil {
			return nil, err
		}

		err = repo.Save(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, ErrConflict
}
