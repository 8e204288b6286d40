package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/tradepost/listing-service/internal/listing/domain"
)

// Recorder turns change sets into immutable audit rows. It only ever
// appends; existing events are never updated or removed.
type Recorder struct {
	events domain.EventRepository
	now    func() time.Time
}

func NewRecorder(events domain.EventRepository) *Recorder {
	return &Recorder{events: events, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Recorder) RecordCreated(ctx context.Context, l *domain.Listing) error {
	if err := r.events.Append(ctx, domain.NewCreatedEvent(l, r.now())); err != nil {
		return fmt.Errorf("record created event for listing %d: %w", l.ID, err)
	}
	return nil
}

// RecordChanges appends one event per field change, in edit order. All
// events of one edit share a single timestamp.
func (r *Recorder) RecordChanges(ctx context.Context, listingID int64, changes domain.ChangeSet) error {
	at := r.now()
	for _, change := range changes {
		if err := r.events.Append(ctx, domain.NewFieldChangeEvent(listingID, change, at)); err != nil {
			return fmt.Errorf("record %s event for listing %d: %w", change.Field, listingID, err)
		}
	}
	return nil
}
