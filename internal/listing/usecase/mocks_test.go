package usecase

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/tradepost/listing-service/internal/listing/domain"
)

// memoryListings is an in-memory ListingRepository. Transactions are a
// plain callback; the filter is evaluated with the same expression tree
// the store adapter lowers, so bulk queries behave like production.
type memoryListings struct {
	mu        sync.Mutex
	nextID    int64
	byID      map[int64]*domain.Listing
	createErr error
	updateErr error
}

func newMemoryListings() *memoryListings {
	return &memoryListings{byID: map[int64]*domain.Listing{}}
}

func (m *memoryListings) add(l *domain.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.byID[l.ID] = &cp
	if l.ID > m.nextID {
		m.nextID = l.ID
	}
}

func (m *memoryListings) NextID(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return m.nextID, nil
}

func (m *memoryListings) Create(ctx context.Context, l *domain.Listing) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.byID[l.ID] = &cp
	return nil
}

func (m *memoryListings) Update(ctx context.Context, l *domain.Listing) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[l.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *l
	m.byID[l.ID] = &cp
	return nil
}

func (m *memoryListings) FindByID(ctx context.Context, id int64) (*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memoryListings) FindByImageID(ctx context.Context, imageID string) (*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.byID {
		for _, img := range l.Images {
			if img.ID == imageID {
				cp := *l
				return &cp, nil
			}
		}
	}
	return nil, domain.ErrImageNotFound
}

func (m *memoryListings) FindByThreadID(ctx context.Context, threadID string) (*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.byID {
		if l.ThreadID == threadID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryListings) FindByFilter(ctx context.Context, f domain.Filter) ([]*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issues := domain.AnyOpenIssue()
	var out []*domain.Listing
	for _, l := range m.byID {
		if !f.IncludeHidden && l.IsHidden {
			continue
		}
		if len(f.Owners) > 0 && !contains(f.Owners, l.OwnerID) {
			continue
		}
		if len(f.Statuses) > 0 && !contains(f.Statuses, l.Status) {
			continue
		}
		if len(f.Types) > 0 && !contains(f.Types, l.Type) {
			continue
		}
		if f.HasIssues && !issues.Matches(l) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func contains[T comparable](xs []T, x T) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func (m *memoryListings) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memoryEvents struct {
	mu   sync.Mutex
	rows []domain.ListingEvent
}

func (m *memoryEvents) Append(ctx context.Context, e *domain.ListingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *e)
	return nil
}

func (m *memoryEvents) ListVisible(ctx context.Context, limit int64) ([]domain.FeedEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.FeedEntry
	for i := len(m.rows) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		out = append(out, domain.FeedEntry{Event: m.rows[i]})
	}
	return out, nil
}

type memoryCache struct {
	mu   sync.Mutex
	byID map[int64]*domain.Listing
}

func newMemoryCache() *memoryCache {
	return &memoryCache{byID: map[int64]*domain.Listing{}}
}

func (c *memoryCache) Get(ctx context.Context, id int64) (*domain.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byID[id], nil
}

func (c *memoryCache) Set(ctx context.Context, l *domain.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *l
	c.byID[l.ID] = &cp
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
	return nil
}

type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) PostListing(ctx context.Context, l *domain.Listing) (string, error) {
	args := m.Called(ctx, l)
	return args.String(0), args.Error(1)
}

func (m *MockMessenger) CreateThread(ctx context.Context, messageID, name string) (string, error) {
	args := m.Called(ctx, messageID, name)
	return args.String(0), args.Error(1)
}

func (m *MockMessenger) AddParticipant(ctx context.Context, threadID, userID string) error {
	args := m.Called(ctx, threadID, userID)
	return args.Error(0)
}

func (m *MockMessenger) UpdateListing(ctx context.Context, l *domain.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockMessenger) RenameThread(ctx context.Context, threadID, name string) error {
	args := m.Called(ctx, threadID, name)
	return args.Error(0)
}

func (m *MockMessenger) CloseThread(ctx context.Context, threadID string) error {
	args := m.Called(ctx, threadID)
	return args.Error(0)
}

func (m *MockMessenger) SendDirect(ctx context.Context, userID, text string) error {
	args := m.Called(ctx, userID, text)
	return args.Error(0)
}

func (m *MockMessenger) AnnounceCreated(ctx context.Context, l *domain.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockMessenger) AnnounceEdited(ctx context.Context, l *domain.Listing, sections []string) error {
	args := m.Called(ctx, l, sections)
	return args.Error(0)
}

type MockMembership struct {
	mock.Mock
}

func (m *MockMembership) CurrentMembers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type memoryImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryImages() *memoryImages {
	return &memoryImages{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memoryImages) Put(ctx context.Context, path string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	s.types[path] = contentType
	return nil
}

func (s *memoryImages) Get(ctx context.Context, path string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, "", domain.ErrImageNotFound
	}
	return data, s.types[path], nil
}

type capturedMessage struct {
	Subject string
	Message interface{}
}

type memoryPublisher struct {
	mu       sync.Mutex
	messages []capturedMessage
}

func (p *memoryPublisher) Publish(ctx context.Context, subject string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, capturedMessage{Subject: subject, Message: message})
	return nil
}
