package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/listing-service/internal/listing/domain"
	"github.com/tradepost/listing-service/internal/platform/logger"
)

func newSweepFixture(listings *memoryListings, members *MockMembership, messenger *MockMessenger) *ReminderSweep {
	return NewReminderSweep(listings, members, messenger, 0, logger.NewNop())
}

func TestNewReminderSweep_IntervalFallback(t *testing.T) {
	// A zero or negative interval must never reach time.NewTicker.
	for _, interval := range []time.Duration{0, -time.Hour} {
		sweep := NewReminderSweep(newMemoryListings(), new(MockMembership), new(MockMessenger), interval, logger.NewNop())
		assert.Equal(t, defaultSweepInterval, sweep.interval)
	}

	sweep := NewReminderSweep(newMemoryListings(), new(MockMembership), new(MockMessenger), time.Hour, logger.NewNop())
	assert.Equal(t, time.Hour, sweep.interval)
}

func TestSweepOnce(t *testing.T) {
	ctx := context.Background()

	deficient := func(id int64, owner string) *domain.Listing {
		return &domain.Listing{ID: id, Title: "Lamp", Type: domain.TypeSell, Status: domain.StatusOpen, OwnerID: owner}
	}
	complete := func(id int64, owner string) *domain.Listing {
		return &domain.Listing{
			ID: id, Title: "Lamp", Type: domain.TypeSell, Status: domain.StatusOpen, OwnerID: owner,
			Description: "d", Price: "5", Images: []domain.ListingImage{{ID: "a"}},
		}
	}

	t.Run("one DM per owner with the listing count", func(t *testing.T) {
		listings := newMemoryListings()
		listings.add(deficient(1, "alice"))
		listings.add(deficient(2, "alice"))
		listings.add(complete(3, "bob"))
		listings.add(deficient(4, "carol")) // not a member anymore

		members := new(MockMembership)
		members.On("CurrentMembers", ctx).Return([]string{"alice", "bob"}, nil)

		messenger := new(MockMessenger)
		messenger.On("SendDirect", ctx, "alice",
			"You have 2 active listings with issues that need your attention. Please check the Tradepost UI for more details.",
		).Return(nil).Once()

		sweep := newSweepFixture(listings, members, messenger)
		require.NoError(t, sweep.SweepOnce(ctx))

		messenger.AssertExpectations(t)
		messenger.AssertNumberOfCalls(t, "SendDirect", 1)
	})

	t.Run("singular wording for one listing", func(t *testing.T) {
		listings := newMemoryListings()
		listings.add(deficient(1, "alice"))

		members := new(MockMembership)
		members.On("CurrentMembers", ctx).Return([]string{"alice"}, nil)

		messenger := new(MockMessenger)
		messenger.On("SendDirect", ctx, "alice",
			"You have 1 active listing with issues that need your attention. Please check the Tradepost UI for more details.",
		).Return(nil).Once()

		sweep := newSweepFixture(listings, members, messenger)
		require.NoError(t, sweep.SweepOnce(ctx))
		messenger.AssertExpectations(t)
	})

	t.Run("closed listings never trigger reminders", func(t *testing.T) {
		listings := newMemoryListings()
		l := deficient(1, "alice")
		l.Status = domain.StatusClosed
		listings.add(l)

		members := new(MockMembership)
		members.On("CurrentMembers", ctx).Return([]string{"alice"}, nil)

		messenger := new(MockMessenger)
		sweep := newSweepFixture(listings, members, messenger)
		require.NoError(t, sweep.SweepOnce(ctx))
		messenger.AssertNotCalled(t, "SendDirect", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("hidden listings still count", func(t *testing.T) {
		listings := newMemoryListings()
		l := deficient(1, "alice")
		l.IsHidden = true
		listings.add(l)

		members := new(MockMembership)
		members.On("CurrentMembers", ctx).Return([]string{"alice"}, nil)

		messenger := new(MockMessenger)
		messenger.On("SendDirect", ctx, "alice", mock.Anything).Return(nil).Once()

		sweep := newSweepFixture(listings, members, messenger)
		require.NoError(t, sweep.SweepOnce(ctx))
		messenger.AssertExpectations(t)
	})

	t.Run("failed delivery does not block other recipients", func(t *testing.T) {
		listings := newMemoryListings()
		listings.add(deficient(1, "alice"))
		listings.add(deficient(2, "bob"))

		members := new(MockMembership)
		members.On("CurrentMembers", ctx).Return([]string{"alice", "bob"}, nil)

		messenger := new(MockMessenger)
		messenger.On("SendDirect", ctx, mock.Anything, mock.Anything).Return(errors.New("dms closed")).Once()
		messenger.On("SendDirect", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		sweep := newSweepFixture(listings, members, messenger)
		require.NoError(t, sweep.SweepOnce(ctx))
		messenger.AssertNumberOfCalls(t, "SendDirect", 2)
	})

	t.Run("empty guild skips the query", func(t *testing.T) {
		members := new(MockMembership)
		members.On("CurrentMembers", ctx).Return([]string{}, nil)

		messenger := new(MockMessenger)
		sweep := newSweepFixture(newMemoryListings(), members, messenger)
		require.NoError(t, sweep.SweepOnce(ctx))
		messenger.AssertNotCalled(t, "SendDirect", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("member resolution failure is surfaced", func(t *testing.T) {
		members := new(MockMembership)
		members.On("CurrentMembers", ctx).Return(nil, errors.New("gateway down"))

		sweep := newSweepFixture(newMemoryListings(), members, new(MockMessenger))
		assert.Error(t, sweep.SweepOnce(ctx))
	})
}
