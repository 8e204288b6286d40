package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tradepost/listing-service/internal/listing/domain"
)

const (
	listingCollectionName = "listings"
	counterCollectionName = "counters"
)

type counterDocument struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

type ListingRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	counters   *mongo.Collection
}

func NewListingRepository(client *mongo.Client, db *mongo.Database) *ListingRepository {
	return &ListingRepository{
		client:     client,
		collection: db.Collection(listingCollectionName),
		counters:   db.Collection(counterCollectionName),
	}
}

// NextID allocates the next synthetic listing id from the counters
// collection.
func (r *ListingRepository) NextID(ctx context.Context) (int64, error) {
	return r.nextSeq(ctx, listingCollectionName)
}

func (r *ListingRepository) nextSeq(ctx context.Context, name string) (int64, error) {
	var counter counterDocument
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate id for %s: %w", name, err)
	}
	return counter.Seq, nil
}

// WithTransaction runs fn inside one MongoDB transaction. Repository
// calls made with the callback's context join the session, which
// serializes concurrent read-modify-write cycles on the same listing.
func (r *ListingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.Listing) error {
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, toListingDocument(l)); err != nil {
		return fmt.Errorf("failed to create listing %d: %w", l.ID, err)
	}
	return nil
}

func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	l.UpdatedAt = time.Now().UTC()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": l.ID}, toListingDocument(l))
	if err != nil {
		return fmt.Errorf("failed to update listing %d: %w", l.ID, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id int64) (*domain.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing %d: %w", id, err)
	}
	return toDomainListing(&doc), nil
}

func (r *ListingRepository) FindByImageID(ctx context.Context, imageID string) (*domain.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"images": bson.M{"$elemMatch": bson.M{"id": imageID}}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get listing by image %s: %w", imageID, err)
	}
	return toDomainListing(&doc), nil
}

func (r *ListingRepository) FindByThreadID(ctx context.Context, threadID string) (*domain.Listing, error) {
	var doc listingDocument
	err := r.collection.FindOne(ctx, bson.M{"thread_id": threadID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing by thread %s: %w", threadID, err)
	}
	return toDomainListing(&doc), nil
}

func (r *ListingRepository) FindByFilter(ctx context.Context, f domain.Filter) ([]*domain.Listing, error) {
	query, err := buildFilter(f)
	if err != nil {
		return nil, err
	}

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	var docs []listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}

	listings := make([]*domain.Listing, 0, len(docs))
	for i := range docs {
		listings = append(listings, toDomainListing(&docs[i]))
	}
	return listings, nil
}
