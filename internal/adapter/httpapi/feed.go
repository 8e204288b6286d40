package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/feeds"
)

const feedLimit = 100

// EventFeed serves the audit trail of non-hidden listings as an RSS
// feed.
func (h *Handler) EventFeed(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.EventFeed(r.Context(), feedLimit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	feed := &feeds.Feed{
		Title:       "Tradepost",
		Description: "Listing events for Tradepost",
		Link:        &feeds.Link{Href: "https://" + r.Host},
	}
	for _, entry := range entries {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          fmt.Sprintf("%d", entry.Event.ID),
			Title:       entry.Event.Title(entry.ListingTitle),
			Description: entry.Event.Description(),
			Created:     entry.Event.Time,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml")
	if _, err := w.Write([]byte(rss)); err != nil {
		h.log.Warnf("write feed response: %v", err)
	}
}
