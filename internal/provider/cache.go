package provider

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nekogravitycat/servicehub-backend/internal/availability"
	"go.uber.org/zap"
)

// cachedRepository serves GetByID from redis and falls through to the wrapped
// store on a miss. Writes invalidate the entry whether or not they succeed,
// so a retry after ErrConflict reads the current version.
type cachedRepository struct {
	Repository
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// cachedProvider mirrors Provider with JSON tags for the cache payload.
type cachedProvider struct {
	ID            string                `json:"id"`
	UserID        string                `json:"user_id"`
	Services      []ServiceOffering     `json:"services"`
	Schedule      availability.Schedule `json:"schedule"`
	Rating        float64               `json:"rating"`
	Bio           string                `json:"bio"`
	Experience    int                   `json:"experience"`
	Contact       ContactInfo           `json:"contact"`
	PhotoPath     string                `json:"photo_path"`
	ThumbnailPath string                `json:"thumbnail_path"`
	Version       int64                 `json:"version"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// NewCachedRepository wraps repo with a redis read-through cache for GetByID.
// Cache failures are logged and never fail the call.
func NewCachedRepository(repo Repository, client *redis.Client, ttl time.Duration, log *zap.Logger) Repository {
	return &cachedRepository{Repository: repo, client: client, ttl: ttl, log: log}
}

func cacheKey(id string) string {
	return "provider:" + id
}

func (r *cachedRepository) GetByID(ctx context.Context, id string) (*Provider, error) {
	data, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if err == nil {
		if p, err := decodeCached(data); err == nil {
			return p, nil
		}
		r.log.Warn("dropping unreadable provider cache entry", zap.String("provider_id", id))
	} else if !errors.Is(err, redis.Nil) {
		r.log.Warn("provider cache read failed", zap.String("provider_id", id), zap.Error(err))
	}

	p, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := encodeCached(p); err == nil {
		if err := r.client.Set(ctx, cacheKey(id), data, r.ttl).Err(); err != nil {
			r.log.Warn("provider cache write failed", zap.String("provider_id", id), zap.Error(err))
		}
	}
	return p, nil
}

func (r *cachedRepository) Save(ctx context.Context, p *Provider) error {
	err := r.Repository.Save(ctx, p)
	r.invalidate(ctx, p.ID)
	return err
}

func (r *cachedRepository) Create(ctx context.Context, p *Provider) error {
	err := r.Repository.Create(ctx, p)
	r.invalidate(ctx, p.ID)
	return err
}

func (r *cachedRepository) invalidate(ctx context.Context, id string) {
	if err := r.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		r.log.Warn("provider cache invalidation failed", zap.String("provider_id", id), zap.Error(err))
	}
}

func encodeCached(p *Provider) ([]byte, error) {
	return json.Marshal(cachedProvider{
		ID:            p.ID,
		UserID:        p.UserID,
		Services:      p.Services,
		Schedule:      p.Schedule,
		Rating:        p.Rating,
		Bio:           p.Bio,
		Experience:    p.Experience,
		Contact:       p.Contact,
		PhotoPath:     p.PhotoPath,
		ThumbnailPath: p.ThumbnailPath,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	})
}

func decodeCached(data []byte) (*Provider, error) {
	var c cachedProvider
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &Provider{
		ID:            c.ID,
		UserID:        c.UserID,
		Services:      c.Services,
		Schedule:      c.Schedule,
		Rating:        c.Rating,
		Bio:           c.Bio,
		Experience:    c.Experience,
		Contact:       c.Contact,
		PhotoPath:     c.PhotoPath,
		ThumbnailPath: c.ThumbnailPath,
		Version:       c.Version,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}, nil
}
