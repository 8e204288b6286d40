package domain

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventListingCreated     EventType = "listing_created"
	EventTitleChanged       EventType = "title_changed"
	EventDescriptionChanged EventType = "description_changed"
	EventPriceChanged       EventType = "price_changed"
	EventStatusChanged      EventType = "status_changed"
)

var eventTypeForField = map[Field]EventType{
	FieldTitle:       EventTitleChanged,
	FieldDescription: EventDescriptionChanged,
	FieldPrice:       EventPriceChanged,
	FieldStatus:      EventStatusChanged,
}

func EventTypeForField(f Field) EventType { return eventTypeForField[f] }

// ListingEvent is an append-only audit record. Rows are created by the
// recorder with a timestamp fixed at insertion and are never updated or
// deleted.
type ListingEvent struct {
	ID        int64
	Type      EventType
	FromValue *string
	ToValue   *string
	Time      time.Time
	ListingID int64
}

// NewCreatedEvent records the creation of a listing. The title is kept
// as the to-value so the event stays readable after later renames.
func NewCreatedEvent(l *Listing, at time.Time) *ListingEvent {
	title := l.Title
	return &ListingEvent{
		Type:      EventListingCreated,
		ToValue:   &title,
		Time:      at,
		ListingID: l.ID,
	}
}

func NewFieldChangeEvent(listingID int64, change FieldChange, at time.Time) *ListingEvent {
	from, to := change.From, change.To
	return &ListingEvent{
		Type:      eventTypeForField[change.Field],
		FromValue: &from,
		ToValue:   &to,
		Time:      at,
		ListingID: listingID,
	}
}

// quoteValue renders an event value for display. Empty values become an
// explicit placeholder so diffs against nothing stay legible.
func quoteValue(v *string) string {
	if v == nil || *v == "" {
		return "`(empty)`"
	}
	return "`" + *v + "`"
}

func strOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// Title derives the headline of a feed entry. listingTitle is the
// current title of the owning listing.
func (e *ListingEvent) Title(listingTitle string) string {
	switch e.Type {
	case EventListingCreated:
		return fmt.Sprintf("New Listing: %s", strOrEmpty(e.ToValue))
	case EventTitleChanged:
		return fmt.Sprintf("%s: Title Changed", listingTitle)
	case EventDescriptionChanged:
		return fmt.Sprintf("%s: Description Changed", listingTitle)
	case EventPriceChanged:
		return fmt.Sprintf("%s: Price Changed", listingTitle)
	case EventStatusChanged:
		return fmt.Sprintf("%s: Status Changed", listingTitle)
	}
	return listingTitle
}

func (e *ListingEvent) Description() string {
	switch e.Type {
	case EventListingCreated:
		return "Listing created"
	case EventTitleChanged:
		return fmt.Sprintf("Title changed from %s to %s", quoteValue(e.FromValue), quoteValue(e.ToValue))
	case EventDescriptionChanged:
		return fmt.Sprintf("Description changed from %s to %s", quoteValue(e.FromValue), quoteValue(e.ToValue))
	case EventPriceChanged:
		return fmt.Sprintf("Price changed from %s to %s", quoteValue(e.FromValue), quoteValue(e.ToValue))
	case EventStatusChanged:
		return fmt.Sprintf("Status changed from %s to %s", quoteValue(e.FromValue), quoteValue(e.ToValue))
	}
	return ""
}

// FeedEntry pairs an event with the current title of its listing for
// feed rendering.
type FeedEntry struct {
	Event        ListingEvent
	ListingTitle string
}
