package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nekogravitycat/servicehub-backend/internal/availability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTimeout = 5 * time.Second

type providerDocument struct {
	ID            string                    `bson:"_id"`
	UserID        string                    `bson:"user_id"`
	Services      []ServiceOffering         `bson:"services"`
	Availability  []availability.Day        `bson:"availability"`
	BookedSlots   []availability.BookedSlot `bson:"booked_slots"`
	Rating        float64                   `bson:"rating"`
	Bio           string                    `bson:"bio"`
	Experience    int                       `bson:"experience"`
	Contact       ContactInfo               `bson:"contact"`
	PhotoPath     string                    `bson:"photo_path,omitempty"`
	ThumbnailPath string                    `bson:"thumbnail_path,omitempty"`
	Version       int64                     `bson:"version"`
	CreatedAt     time.Time                 `bson:"created_at"`
	UpdatedAt     time.Time                 `bson:"updated_at"`
}

func toProviderDocument(p *Provider) providerDocument {
	return providerDocument{
		ID:            p.ID,
		UserID:        p.UserID,
		Services:      nonNilServices(p.Services),
		Availability:  nonNilDays(p.Schedule.Availability),
		BookedSlots:   nonNilBooked(p.Schedule.BookedSlots),
		Rating:        p.Rating,
		Bio:           p.Bio,
		Experience:    p.Experience,
		Contact:       p.Contact,
		PhotoPath:     p.PhotoPath,
		ThumbnailPath: p.ThumbnailPath,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (d providerDocument) toProvider() *Provider {
	return &Provider{
		ID:       d.ID,
		UserID:   d.UserID,
		Services: d.Services,
		Schedule: availability.Schedule{
			Availability: d.Availability,
			BookedSlots:  d.BookedSlots,
		},
		Rating:        d.Rating,
		Bio:           d.Bio,
		Experience:    d.Experience,
		Contact:       d.Contact,
		PhotoPath:     d.PhotoPath,
		ThumbnailPath: d.ThumbnailPath,
		Version:       d.Version,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository returns a Repository over the "providers" collection and
// makes sure its indexes exist.
func NewMongoRepository(ctx context.Context, db *mongo.Database) (Repository, error) {
	r := &mongoRepository{coll: db.Collection("providers")}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *mongoRepository) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "services.category", Value: 1}}},
		{Keys: bson.D{{Key: "rating", Value: -1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create provider indexes: %w", err)
	}
	return nil
}

func (r *mongoRepository) Create(ctx context.Context, p *Provider) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, toProviderDocument(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*Provider, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoRepository) GetByUserID(ctx context.Context, userID string) (*Provider, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *mongoRepository) findOne(ctx context.Context, filter bson.M) (*Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var doc providerDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch provider: %w", err)
	}
	return doc.toProvider(), nil
}

func (r *mongoRepository) List(ctx context.Context, filter Filter) ([]*Provider, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.Category != "" {
		query["services.category"] = filter.Category
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count providers: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.PageSize)).
		SetLimit(int64(filter.PageSize))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list providers: %w", err)
	}
	defer cursor.Close(ctx)

	var providers []*Provider
	for cursor.Next(ctx) {
		var doc providerDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to decode provider: %w", err)
		}
		providers = append(providers, doc.toProvider())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate providers: %w", err)
	}
	return providers, int(total), nil
}

func (r *mongoRepository) Save(ctx context.Context, p *Provider) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	doc := toProviderDocument(p)
	doc.Version = p.Version + 1

	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID, "version": p.Version}, doc)
	if err != nil {
		return fmt.Errorf("failed to save provider %s: %w", p.ID, err)
	}
	if result.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": p.ID})
		if err != nil {
			return fmt.Errorf("failed to check provider %s: %w", p.ID, err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}

	p.Version++
	return nil
}
