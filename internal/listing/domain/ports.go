package domain

import "context"

// Filter describes a bulk listing query. Empty slices mean "no
// restriction". HasIssues pushes the issue rule set's bulk predicate
// down into the store.
type Filter struct {
	Statuses      []ListingStatus
	Owners        []string
	Types         []ListingType
	HasIssues     bool
	IncludeHidden bool
}

// ListingRepository is the storage port. WithTransaction runs fn inside
// one storage transaction; every repository call made with the context
// passed to fn joins that transaction. Transactions are short-lived and
// never held across external API calls.
type ListingRepository interface {
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, l *Listing) error
	Update(ctx context.Context, l *Listing) error
	FindByID(ctx context.Context, id int64) (*Listing, error)
	FindByImageID(ctx context.Context, imageID string) (*Listing, error)
	FindByThreadID(ctx context.Context, threadID string) (*Listing, error)
	FindByFilter(ctx context.Context, f Filter) ([]*Listing, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventRepository stores the append-only audit log.
type EventRepository interface {
	Append(ctx context.Context, e *ListingEvent) error
	// ListVisible returns the newest events whose listing is not hidden.
	ListVisible(ctx context.Context, limit int64) ([]FeedEntry, error)
}

// Messenger is the external messaging port. Implementations render the
// listing's display form themselves; the core only decides when the
// mirror has to change. All methods may be called concurrently.
type Messenger interface {
	// PostListing publishes the listing's summary to the marketplace
	// channel and returns the message id.
	PostListing(ctx context.Context, l *Listing) (string, error)
	// CreateThread opens a discussion thread anchored to a message.
	CreateThread(ctx context.Context, messageID, name string) (string, error)
	AddParticipant(ctx context.Context, threadID, userID string) error
	// UpdateListing re-renders the channel message in place.
	UpdateListing(ctx context.Context, l *Listing) error
	RenameThread(ctx context.Context, threadID, name string) error
	// CloseThread locks and archives a thread. Terminal and
	// irreversible on the external side.
	CloseThread(ctx context.Context, threadID string) error
	SendDirect(ctx context.Context, userID, text string) error
	// AnnounceCreated and AnnounceEdited post to the events channel
	// when one is configured, and are silent no-ops otherwise.
	AnnounceCreated(ctx context.Context, l *Listing) error
	AnnounceEdited(ctx context.Context, l *Listing, sections []string) error
}

// Membership resolves the current guild member set.
type Membership interface {
	CurrentMembers(ctx context.Context) ([]string, error)
}

// ImageStore holds the raw image objects referenced by ListingImage
// paths.
type ImageStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Get(ctx context.Context, path string) ([]byte, string, error)
}

// EventPublisher fans listing events out to interested services.
// Publishing is best-effort; failures never affect the storage
// operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, message interface{}) error
}
