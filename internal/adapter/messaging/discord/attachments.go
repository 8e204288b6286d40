package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tradepost/listing-service/internal/listing/domain"
	"github.com/tradepost/listing-service/internal/listing/usecase"
	"github.com/tradepost/listing-service/internal/platform/logger"
)

const attachmentTimeout = 30 * time.Second

// AttachmentListener picks up images posted into listing threads and
// records them on the listing. It runs on the shared gateway connection
// and may fire while an edit to the same listing is in flight; the
// repository transaction keeps the two from interleaving.
type AttachmentListener struct {
	listings domain.ListingRepository
	service  *usecase.Service
	client   *http.Client
	log      logger.Logger
}

func NewAttachmentListener(listings domain.ListingRepository, service *usecase.Service, log logger.Logger) *AttachmentListener {
	return &AttachmentListener{
		listings: listings,
		service:  service,
		client:   &http.Client{Timeout: attachmentTimeout},
		log:      log,
	}
}

func (a *AttachmentListener) Register(session *discordgo.Session) {
	session.AddHandler(a.onMessageCreate)
}

func (a *AttachmentListener) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || len(m.Attachments) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), attachmentTimeout)
	defer cancel()

	listing, err := a.listings.FindByThreadID(ctx, m.ChannelID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			a.log.Warnf("thread lookup for %s failed: %v", m.ChannelID, err)
		}
		return
	}

	for _, attachment := range m.Attachments {
		data, err := a.download(ctx, attachment.URL)
		if err != nil {
			a.log.Warnf("download attachment %s for listing %d failed: %v", attachment.ID, listing.ID, err)
			continue
		}
		if _, err := a.service.AttachImage(ctx, listing.ID, attachment.Filename, data); err != nil {
			if errors.Is(err, domain.ErrNotAnImage) {
				continue
			}
			a.log.Warnf("attach image to listing %d failed: %v", listing.ID, err)
		}
	}
}

func (a *AttachmentListener) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
