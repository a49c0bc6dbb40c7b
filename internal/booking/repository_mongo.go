package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nekogravitycat/servicehub-backend/internal/availability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTimeout = 5 * time.Second

type bookingDocument struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	ProviderID string    `bson:"provider_id"`
	ServiceID  string    `bson:"service_id,omitempty"`
	Date       time.Time `bson:"date"`
	StartTime  string    `bson:"start_time"`
	EndTime    string    `bson:"end_time"`
	Status     string    `bson:"status"`
	TimeSpent  *float64  `bson:"time_spent,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func toBookingDocument(b *Booking) bookingDocument {
	return bookingDocument{
		ID:         b.ID,
		UserID:     b.UserID,
		ProviderID: b.ProviderID,
		ServiceID:  b.ServiceID,
		Date:       b.Date,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Status:     string(b.Status),
		TimeSpent:  b.TimeSpent,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func (d bookingDocument) toBooking() *Booking {
	return &Booking{
		ID:         d.ID,
		UserID:     d.UserID,
		ProviderID: d.ProviderID,
		ServiceID:  d.ServiceID,
		Date:       d.Date.UTC(),
		StartTime:  d.StartTime,
		EndTime:    d.EndTime,
		Status:     availability.Status(d.Status),
		TimeSpent:  d.TimeSpent,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository returns a Repository over the "bookings" collection and
// makes sure its indexes exist.
func NewMongoRepository(ctx context.Context, db *mongo.Database) (Repository, error) {
	r := &mongoRepository{coll: db.Collection("bookings")}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *mongoRepository) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "provider_id", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

func (r *mongoRepository) Create(ctx context.Context, b *Booking) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, toBookingDocument(b)); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var doc bookingDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return doc.toBooking(), nil
}

func (r *mongoRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.ProviderID != "" {
		query["provider_id"] = filter.ProviderID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	dir := -1
	if strings.EqualFold(filter.SortOrder, "ASC") {
		dir = 1
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: dir}, {Key: "start_time", Value: dir}}).
		SetSkip(int64((filter.Page - 1) * filter.PageSize)).
		SetLimit(int64(filter.PageSize))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, doc.toBooking())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, int(total), nil
}

func (r *mongoRepository) Update(ctx context.Context, b *Booking) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"date":       b.Date,
		"start_time": b.StartTime,
		"end_time":   b.EndTime,
		"status":     string(b.Status),
		"time_spent": b.TimeSpent,
		"updated_at": b.UpdatedAt,
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": b.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update booking %s: %w", b.ID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete booking %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository) CountByStatus(ctx context.Context, providerID string) (map[availability.Status]int, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"provider_id": providerID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[availability.Status]int)
	for cursor.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode booking count: %w", err)
		}
		counts[availability.Status(row.Status)] = row.Count
	}
	return counts, cursor.Err()
}
