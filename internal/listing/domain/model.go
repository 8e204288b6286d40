package domain

import (
	"strings"
	"time"
)

type ListingType string

const (
	TypeBuy  ListingType = "buy"
	TypeSell ListingType = "sell"
)

type ListingStatus string

const (
	StatusOpen    ListingStatus = "open"
	StatusPending ListingStatus = "pending"
	StatusClosed  ListingStatus = "closed"
)

// Display returns the capitalized name used in embeds, events and change
// summaries ("Open", "Pending", "Closed").
func (s ListingStatus) Display() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

func (t ListingType) Display() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

func ParseStatus(s string) (ListingStatus, error) {
	switch ListingStatus(strings.ToLower(s)) {
	case StatusOpen:
		return StatusOpen, nil
	case StatusPending:
		return StatusPending, nil
	case StatusClosed:
		return StatusClosed, nil
	}
	return "", ErrInvalidStatus
}

func ParseType(s string) (ListingType, error) {
	switch ListingType(strings.ToLower(s)) {
	case TypeBuy:
		return TypeBuy, nil
	case TypeSell:
		return TypeSell, nil
	}
	return "", ErrInvalidType
}

type ListingImage struct {
	ID          string
	Path        string
	Width       int
	Height      int
	ContentType string
	IsHidden    bool
}

// Listing is the central aggregate. MessageID and ThreadID anchor the
// listing to its mirrored Discord representation; they are assigned once
// by the create workflow and never change afterwards.
type Listing struct {
	ID          int64
	Title       string
	Description string
	Price       string
	Type        ListingType
	Status      ListingStatus
	IsHidden    bool
	OwnerID     string
	MessageID   string
	ThreadID    string
	Images      []ListingImage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewListing builds an unsaved listing in Open status. External anchors
// are left empty; the create workflow sets them once the Discord side of
// the listing exists.
func NewListing(typ ListingType, title, description, price, ownerID string) (*Listing, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if typ != TypeBuy && typ != TypeSell {
		return nil, ErrInvalidType
	}
	if ownerID == "" {
		return nil, ErrEmptyOwner
	}
	return &Listing{
		Title:       title,
		Description: description,
		Price:       price,
		Type:        typ,
		Status:      StatusOpen,
		OwnerID:     ownerID,
	}, nil
}

// VisibleImages filters out images hidden by moderation. An image's
// hidden flag is independent of the listing's own hidden flag.
func (l *Listing) VisibleImages() []ListingImage {
	var out []ListingImage
	for _, img := range l.Images {
		if !img.IsHidden {
			out = append(out, img)
		}
	}
	return out
}

func (l *Listing) Image(imageID string) (*ListingImage, bool) {
	for i := range l.Images {
		if l.Images[i].ID == imageID {
			return &l.Images[i], true
		}
	}
	return nil, false
}

type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldPrice       Field = "price"
	FieldType        Field = "type"
	FieldStatus      Field = "status"
)

// FieldChange records one field whose value actually differs between the
// old and new listing state. Status changes carry display names
// ("Open" -> "Closed") rather than raw enum values.
type FieldChange struct {
	Field Field
	From  string
	To    string
}

type ChangeSet []FieldChange

func (c ChangeSet) Lookup(f Field) (FieldChange, bool) {
	for _, ch := range c {
		if ch.Field == f {
			return ch, true
		}
	}
	return FieldChange{}, false
}

func (c ChangeSet) Has(f Field) bool {
	_, ok := c.Lookup(f)
	return ok
}

// EditRequest carries the proposed field values of an edit. Nil means
// "leave unchanged"; a pointer to the current value is a no-op.
type EditRequest struct {
	Title       *string
	Description *string
	Price       *string
	Status      *ListingStatus
	Hidden      *bool
}

func (r EditRequest) touchesContent(l *Listing) bool {
	if r.Title != nil && strings.TrimSpace(*r.Title) != l.Title {
		return true
	}
	if r.Description != nil && *r.Description != l.Description {
		return true
	}
	if r.Price != nil && *r.Price != l.Price {
		return true
	}
	return false
}

// ApplyEdit validates and applies an edit in place, returning the set of
// fields whose values actually changed. Content fields are frozen once
// the listing is closed; status-only changes and the admin hidden flag
// stay editable. The hidden flag is a moderation override and is never
// part of the returned ChangeSet. Status transitions are deliberately
// unconstrained; any status may follow any other.
func (l *Listing) ApplyEdit(req EditRequest, actorID string, isAdmin bool) (ChangeSet, error) {
	if l.OwnerID != actorID && !isAdmin {
		return nil, ErrForbidden
	}
	if req.Hidden != nil && !isAdmin {
		return nil, ErrForbidden
	}
	if l.Status == StatusClosed && req.touchesContent(l) {
		return nil, ErrListingClosed
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, ErrEmptyTitle
	}
	if req.Status != nil {
		if _, err := ParseStatus(string(*req.Status)); err != nil {
			return nil, err
		}
	}

	var changes ChangeSet

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title != l.Title {
			changes = append(changes, FieldChange{Field: FieldTitle, From: l.Title, To: title})
			l.Title = title
		}
	}
	if req.Description != nil && *req.Description != l.Description {
		changes = append(changes, FieldChange{Field: FieldDescription, From: l.Description, To: *req.Description})
		l.Description = *req.Description
	}
	if req.Price != nil && *req.Price != l.Price {
		changes = append(changes, FieldChange{Field: FieldPrice, From: l.Price, To: *req.Price})
		l.Price = *req.Price
	}
	if req.Status != nil && *req.Status != l.Status {
		changes = append(changes, FieldChange{Field: FieldStatus, From: l.Status.Display(), To: req.Status.Display()})
		l.Status = *req.Status
	}
	if req.Hidden != nil {
		l.IsHidden = *req.Hidden
	}

	return changes, nil
}
