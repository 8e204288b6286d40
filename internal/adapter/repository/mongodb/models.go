package mongodb

import (
	"time"

	"github.com/tradepost/listing-service/internal/listing/domain"
)

type imageDocument struct {
	ID          string `bson:"id"`
	Path        string `bson:"path"`
	Width       int    `bson:"width"`
	Height      int    `bson:"height"`
	ContentType string `bson:"content_type"`
	IsHidden    bool   `bson:"is_hidden"`
}

type listingDocument struct {
	ID          int64           `bson:"_id"`
	Title       string          `bson:"title"`
	Description string          `bson:"description"`
	Price       string          `bson:"price"`
	Type        string          `bson:"type"`
	Status      string          `bson:"status"`
	IsHidden    bool            `bson:"is_hidden"`
	OwnerID     string          `bson:"owner_id"`
	MessageID   string          `bson:"message_id"`
	ThreadID    string          `bson:"thread_id"`
	Images      []imageDocument `bson:"images"`
	CreatedAt   time.Time       `bson:"created_at"`
	UpdatedAt   time.Time       `bson:"updated_at"`
}

type eventDocument struct {
	ID        int64     `bson:"_id"`
	Type      string    `bson:"type"`
	FromValue *string   `bson:"from_value"`
	ToValue   *string   `bson:"to_value"`
	Time      time.Time `bson:"time"`
	ListingID int64     `bson:"listing_id"`
}

func toListingDocument(l *domain.Listing) *listingDocument {
	images := make([]imageDocument, 0, len(l.Images))
	for _, img := range l.Images {
		images = append(images, imageDocument{
			ID:          img.ID,
			Path:        img.Path,
			Width:       img.Width,
			Height:      img.Height,
			ContentType: img.ContentType,
			IsHidden:    img.IsHidden,
		})
	}
	return &listingDocument{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Type:        string(l.Type),
		Status:      string(l.Status),
		IsHidden:    l.IsHidden,
		OwnerID:     l.OwnerID,
		MessageID:   l.MessageID,
		ThreadID:    l.ThreadID,
		Images:      images,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func toDomainListing(d *listingDocument) *domain.Listing {
	var images []domain.ListingImage
	for _, img := range d.Images {
		images = append(images, domain.ListingImage{
			ID:          img.ID,
			Path:        img.Path,
			Width:       img.Width,
			Height:      img.Height,
			ContentType: img.ContentType,
			IsHidden:    img.IsHidden,
		})
	}
	return &domain.Listing{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		Type:        domain.ListingType(d.Type),
		Status:      domain.ListingStatus(d.Status),
		IsHidden:    d.IsHidden,
		OwnerID:     d.OwnerID,
		MessageID:   d.MessageID,
		ThreadID:    d.ThreadID,
		Images:      images,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toEventDocument(e *domain.ListingEvent) *eventDocument {
	return &eventDocument{
		ID:        e.ID,
		Type:      string(e.Type),
		FromValue: e.FromValue,
		ToValue:   e.ToValue,
		Time:      e.Time,
		ListingID: e.ListingID,
	}
}

func toDomainEvent(d *eventDocument) *domain.ListingEvent {
	return &domain.ListingEvent{
		ID:        d.ID,
		Type:      domain.EventType(d.Type),
		FromValue: d.FromValue,
		ToValue:   d.ToValue,
		Time:      d.Time,
		ListingID: d.ListingID,
	}
}
