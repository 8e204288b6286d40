package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/tradepost/listing-service/internal/listing/domain"
	"github.com/tradepost/listing-service/internal/platform/logger"
)

const defaultSweepInterval = 14 * 24 * time.Hour

// ReminderSweep periodically nudges owners whose listings still have
// open issues. One direct message per owner per sweep, best-effort per
// recipient.
type ReminderSweep struct {
	listings  domain.ListingRepository
	members   domain.Membership
	messenger domain.Messenger
	interval  time.Duration
	log       logger.Logger
}

func NewReminderSweep(
	listings domain.ListingRepository,
	members domain.Membership,
	messenger domain.Messenger,
	interval time.Duration,
	log logger.Logger,
) *ReminderSweep {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &ReminderSweep{
		listings:  listings,
		members:   members,
		messenger: messenger,
		interval:  interval,
		log:       log,
	}
}

// Run blocks until ctx is cancelled. The first sweep happens one full
// interval after start, so a restart never fires a notification storm.
func (s *ReminderSweep) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				s.log.Errorf("reminder sweep failed: %v", err)
			}
		}
	}
}

// SweepOnce queries all non-closed listings with issues owned by a
// current guild member, groups them by owner, and sends one DM per
// owner stating the count. Owners who left the guild are skipped by
// construction; a failed delivery never blocks the remaining ones.
func (s *ReminderSweep) SweepOnce(ctx context.Context) error {
	members, err := s.members.CurrentMembers(ctx)
	if err != nil {
		return fmt.Errorf("resolve guild members: %w", err)
	}
	if len(members) == 0 {
		return nil
	}

	deficient, err := s.listings.FindByFilter(ctx, domain.Filter{
		Owners:        members,
		HasIssues:     true,
		IncludeHidden: true,
	})
	if err != nil {
		return fmt.Errorf("query listings with issues: %w", err)
	}

	counts := lo.CountValuesBy(deficient, func(l *domain.Listing) string { return l.OwnerID })
	for ownerID, count := range counts {
		text := fmt.Sprintf(
			"You have %d active %s with issues that need your attention. Please check the Tradepost UI for more details.",
			count, pluralise(count, "listing", "listings"),
		)
		if err := s.messenger.SendDirect(ctx, ownerID, text); err != nil {
			s.log.Warnf("reminder to %s not delivered: %v", ownerID, err)
			continue
		}
	}
	return nil
}

func pluralise(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
