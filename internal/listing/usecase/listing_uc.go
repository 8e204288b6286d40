package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/tradepost/listing-service/internal/listing/domain"
	"github.com/tradepost/listing-service/internal/platform/logger"
)

const (
	subjectListingCreated = "listings.created"
	subjectListingChanged = "listings.changed"
)

// ListingCache is a read-through cache for single-listing lookups.
// Misses return (nil, nil).
type ListingCache interface {
	Get(ctx context.Context, id int64) (*domain.Listing, error)
	Set(ctx context.Context, l *domain.Listing) error
	Delete(ctx context.Context, id int64) error
}

// Service orchestrates the listing lifecycle: the transactional
// create/edit protocol, its fan-out to the Discord mirror, and the
// audit event trail. Storage is authoritative; the external mirror is
// advisory and updated best-effort after commit.
type Service struct {
	listings  domain.ListingRepository
	recorder  *Recorder
	messenger domain.Messenger
	images    domain.ImageStore
	cache     ListingCache
	publisher domain.EventPublisher
	log       logger.Logger
}

func NewService(
	listings domain.ListingRepository,
	recorder *Recorder,
	messenger domain.Messenger,
	images domain.ImageStore,
	cache ListingCache,
	publisher domain.EventPublisher,
	log logger.Logger,
) *Service {
	return &Service{
		listings:  listings,
		recorder:  recorder,
		messenger: messenger,
		images:    images,
		cache:     cache,
		publisher: publisher,
		log:       log,
	}
}

type listingEventMessage struct {
	ListingID int64  `json:"listing_id"`
	Type      string `json:"type"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

// CreateListing implements the create protocol: post the channel
// message, open the discussion thread, then persist listing plus
// created-event in one transaction. If persistence fails the already
// created message and thread are orphaned; that is accepted and logged,
// there is no compensating delete on the Discord side.
func (s *Service) CreateListing(ctx context.Context, typ domain.ListingType, title, description, price, ownerID string) (*domain.Listing, error) {
	l, err := domain.NewListing(typ, title, description, price, ownerID)
	if err != nil {
		return nil, err
	}

	messageID, err := s.messenger.PostListing(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("post listing message: %w", err)
	}
	threadID, err := s.messenger.CreateThread(ctx, messageID, l.Title)
	if err != nil {
		s.log.Errorf("create thread failed, orphaned message %s: %v", messageID, err)
		return nil, fmt.Errorf("create listing thread: %w", err)
	}
	if err := s.messenger.AddParticipant(ctx, threadID, ownerID); err != nil {
		s.log.Errorf("add owner to thread failed, orphaned message %s thread %s: %v", messageID, threadID, err)
		return nil, fmt.Errorf("add owner to thread: %w", err)
	}

	l.MessageID = messageID
	l.ThreadID = threadID

	err = s.listings.WithTransaction(ctx, func(ctx context.Context) error {
		id, err := s.listings.NextID(ctx)
		if err != nil {
			return err
		}
		l.ID = id
		if err := s.listings.Create(ctx, l); err != nil {
			return err
		}
		return s.recorder.RecordCreated(ctx, l)
	})
	if err != nil {
		s.log.Errorf("persist listing failed, orphaned message %s thread %s: %v", messageID, threadID, err)
		return nil, err
	}

	s.log.Infof("listing %d created by %s (%s)", l.ID, ownerID, typ)

	if err := s.messenger.AnnounceCreated(ctx, l); err != nil {
		s.log.Warnf("events channel notification failed for listing %d: %v", l.ID, err)
	}
	s.publish(ctx, subjectListingCreated, listingEventMessage{ListingID: l.ID, Type: string(domain.EventListingCreated), To: l.Title})

	return l, nil
}

// EditListing applies an edit inside one storage transaction and then
// propagates the result to the Discord mirror. The commit always
// precedes external mutation; mirror failures are logged, never
// surfaced, because storage already holds the authoritative state.
func (s *Service) EditListing(ctx context.Context, id int64, actorID string, isAdmin bool, req domain.EditRequest) (*domain.Listing, error) {
	var (
		l       *domain.Listing
		changes domain.ChangeSet
	)
	err := s.listings.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		l, err = s.listings.FindByID(ctx, id)
		if err != nil {
			return err
		}
		changes, err = l.ApplyEdit(req, actorID, isAdmin)
		if err != nil {
			return err
		}
		if err := s.listings.Update(ctx, l); err != nil {
			return err
		}
		return s.recorder.RecordChanges(ctx, l.ID, changes)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)

	if len(changes) > 0 {
		if err := s.messenger.UpdateListing(ctx, l); err != nil {
			s.log.Warnf("message update failed for listing %d: %v", l.ID, err)
		}
	}
	if changes.Has(domain.FieldTitle) {
		if err := s.messenger.RenameThread(ctx, l.ThreadID, l.Title); err != nil {
			s.log.Warnf("thread rename failed for listing %d: %v", l.ID, err)
		}
	}
	if changes.Has(domain.FieldStatus) && l.Status == domain.StatusClosed {
		if err := s.messenger.CloseThread(ctx, l.ThreadID); err != nil {
			s.log.Warnf("thread close failed for listing %d: %v", l.ID, err)
		}
	}
	if len(changes) > 0 {
		if err := s.messenger.AnnounceEdited(ctx, l, changes.Summaries()); err != nil {
			s.log.Warnf("events channel notification failed for listing %d: %v", l.ID, err)
		}
		for _, change := range changes {
			s.publish(ctx, subjectListingChanged, listingEventMessage{
				ListingID: l.ID,
				Type:      string(domain.EventTypeForField(change.Field)),
				From:      change.From,
				To:        change.To,
			})
		}
	}

	return l, nil
}

// GetListing is a cache-assisted point lookup.
func (s *Service) GetListing(ctx context.Context, id int64) (*domain.Listing, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, id); err != nil {
			s.log.Warnf("cache lookup failed for listing %d: %v", id, err)
		} else if cached != nil {
			return cached, nil
		}
	}
	l, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, l); err != nil {
			s.log.Warnf("cache store failed for listing %d: %v", id, err)
		}
	}
	return l, nil
}

// SearchListings runs a bulk query. Hidden listings are always excluded
// from search results.
func (s *Service) SearchListings(ctx context.Context, f domain.Filter) ([]*domain.Listing, error) {
	f.IncludeHidden = false
	return s.listings.FindByFilter(ctx, f)
}

// ListingIssues evaluates the issue rule set for one listing, for UI
// display.
func (s *Service) ListingIssues(l *domain.Listing) []domain.IssueDetails {
	return l.Issues()
}

// HideListing toggles the moderation-only hidden flag. Works regardless
// of status, including on closed listings.
func (s *Service) HideListing(ctx context.Context, id int64, isAdmin bool, hidden bool) error {
	if !isAdmin {
		return domain.ErrForbidden
	}
	err := s.listings.WithTransaction(ctx, func(ctx context.Context) error {
		l, err := s.listings.FindByID(ctx, id)
		if err != nil {
			return err
		}
		l.IsHidden = hidden
		return s.listings.Update(ctx, l)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log.Infof("listing %d hidden=%t", id, hidden)
	return nil
}

// AttachImage stores an attachment arriving on a listing's thread and
// records it on the listing. The object write happens before the
// transaction; a failed commit leaves an orphaned object, mirroring the
// create protocol's best-effort join.
func (s *Service) AttachImage(ctx context.Context, listingID int64, filename string, data []byte) (*domain.ListingImage, error) {
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, domain.ErrNotAnImage
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ErrNotAnImage
	}

	ext := mtype.Extension()
	if ext == "" {
		ext = path.Ext(filename)
	}
	img := domain.ListingImage{
		ID:          uuid.NewString(),
		Path:        fmt.Sprintf("listings/%d/%s%s", listingID, uuid.NewString(), ext),
		Width:       cfg.Width,
		Height:      cfg.Height,
		ContentType: mtype.String(),
	}

	if err := s.images.Put(ctx, img.Path, data, img.ContentType); err != nil {
		return nil, fmt.Errorf("store image object: %w", err)
	}

	err = s.listings.WithTransaction(ctx, func(ctx context.Context) error {
		l, err := s.listings.FindByID(ctx, listingID)
		if err != nil {
			return err
		}
		l.Images = append(l.Images, img)
		return s.listings.Update(ctx, l)
	})
	if err != nil {
		s.log.Errorf("persist image failed, orphaned object %s: %v", img.Path, err)
		return nil, err
	}

	s.invalidate(ctx, listingID)
	s.log.Infof("image %s (%s) attached to listing %d", img.ID, img.ContentType, listingID)
	return &img, nil
}

// HideImage hides one image by moderation. Independent of the listing's
// own hidden flag and status.
func (s *Service) HideImage(ctx context.Context, listingID int64, imageID string, isAdmin bool, hidden bool) error {
	if !isAdmin {
		return domain.ErrForbidden
	}
	err := s.listings.WithTransaction(ctx, func(ctx context.Context) error {
		l, err := s.listings.FindByID(ctx, listingID)
		if err != nil {
			return err
		}
		img, ok := l.Image(imageID)
		if !ok {
			return domain.ErrImageNotFound
		}
		img.IsHidden = hidden
		return s.listings.Update(ctx, l)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, listingID)
	return nil
}

// GetImage streams one visible image's bytes and content type.
func (s *Service) GetImage(ctx context.Context, imageID string) ([]byte, string, error) {
	l, err := s.listings.FindByImageID(ctx, imageID)
	if err != nil {
		return nil, "", err
	}
	img, ok := l.Image(imageID)
	if !ok || img.IsHidden {
		return nil, "", domain.ErrImageNotFound
	}
	return s.images.Get(ctx, img.Path)
}

// EventFeed returns the newest audit events of non-hidden listings.
func (s *Service) EventFeed(ctx context.Context, limit int64) ([]domain.FeedEntry, error) {
	return s.recorder.events.ListVisible(ctx, limit)
}

func (s *Service) publish(ctx context.Context, subject string, msg listingEventMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, msg); err != nil {
		s.log.Warnf("publish %s for listing %d failed: %v", subject, msg.ListingID, err)
	}
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warnf("cache invalidation failed for listing %d: %v", id, err)
	}
}
