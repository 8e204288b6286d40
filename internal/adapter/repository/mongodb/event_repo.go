package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tradepost/listing-service/internal/listing/domain"
)

const eventCollectionName = "listing_events"

// EventRepository is append-only: events are inserted once and never
// modified or removed.
type EventRepository struct {
	collection *mongo.Collection
	listings   *ListingRepository
}

func NewEventRepository(db *mongo.Database, listings *ListingRepository) *EventRepository {
	return &EventRepository{
		collection: db.Collection(eventCollectionName),
		listings:   listings,
	}
}

func (r *EventRepository) Append(ctx context.Context, e *domain.ListingEvent) error {
	id, err := r.listings.nextSeq(ctx, eventCollectionName)
	if err != nil {
		return err
	}
	e.ID = id
	if _, err := r.collection.InsertOne(ctx, toEventDocument(e)); err != nil {
		return fmt.Errorf("failed to append %s event for listing %d: %w", e.Type, e.ListingID, err)
	}
	return nil
}

// ListVisible returns the newest events whose listing has not been
// hidden by moderation, together with the listing's current title.
func (r *EventRepository) ListVisible(ctx context.Context, limit int64) ([]domain.FeedEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from":         listingCollectionName,
			"localField":   "listing_id",
			"foreignField": "_id",
			"as":           "listing",
		}}},
		{{Key: "$unwind", Value: "$listing"}},
		{{Key: "$match", Value: bson.M{"listing.is_hidden": false}}},
		{{Key: "$sort", Value: bson.D{{Key: "time", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to query event feed: %w", err)
	}

	var rows []struct {
		eventDocument `bson:",inline"`
		Listing       listingDocument `bson:"listing"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode event feed: %w", err)
	}

	entries := make([]domain.FeedEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, domain.FeedEntry{
			Event:        *toDomainEvent(&rows[i].eventDocument),
			ListingTitle: rows[i].Listing.Title,
		})
	}
	return entries, nil
}
