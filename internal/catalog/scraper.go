package catalog

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mixpilot/mixer-downloader/internal/model"
	"github.com/mixpilot/mixer-downloader/internal/session"
)

// Selectors for the purchased-files listing.
const (
	rowSelector  = `a.my-files__song`
	nextSelector = `a.pagination__next`
)

// ErrUnavailable is returned when the listing page cannot be reached or its
// rows never render.
var ErrUnavailable = errors.New("catalog unavailable")

// Scraper walks the paginated purchased-mixes listing.
//
// Pagination on the listing is unreliable: the page count is not exposed,
// pages may hot-swap content without a navigation event, and the last page
// is sometimes mirrored. The scraper therefore combines two signals: a
// sentinel predicate (the first visible row's key must change after
// clicking "next") and a stall rule (a page contributing zero new unique
// keys ends the walk).
type Scraper struct {
	sess session.Session

	// RowTimeout bounds the wait for the first page's rows.
	RowTimeout time.Duration

	// PageTimeout bounds the wait for content to change after clicking
	// the next affordance. Expiry is treated as end-of-list, not failure.
	PageTimeout time.Duration
}

// New creates a Scraper with production timeouts.
func New(sess session.Session) *Scraper {
	return &Scraper{
		sess:        sess,
		RowTimeout:  15 * time.Second,
		PageTimeout: 10 * time.Second,
	}
}

// Scrape navigates to listingURL and returns every purchased mix,
// deduplicated by key and sorted by display name with locale-aware
// ordering.
func (s *Scraper) Scrape(listingURL string) ([]model.CatalogEntry, error) {
	if err := s.sess.Navigate(listingURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	top := s.sess.Top()
	if _, err := top.WaitForSelector(rowSelector, s.RowTimeout); err != nil {
		return nil, fmt.Errorf("%w: listing rows never rendered", ErrUnavailable)
	}

	seen := make(map[string]model.CatalogEntry)
	firstPage := true

	for {
		entries := s.visibleEntries(top)
		if len(entries) == 0 {
			break
		}
		sentinelBefore := entries[0].Key

		newKeys := 0
		for _, entry := range entries {
			if _, dup := seen[entry.Key]; !dup {
				newKeys++
			}
			// Last-write-wins; repeated keys across pages carry
			// equivalent data.
			seen[entry.Key] = entry
		}

		// A page past the first that contributes nothing new means the
		// paging UI has started mirroring itself.
		if !firstPage && newKeys == 0 {
			break
		}
		firstPage = false

		next, err := top.Find(nextSelector)
		if err != nil {
			break
		}
		if err := next.ScrollIntoView(); err == nil {
			if err := next.Click(); err != nil {
				break
			}
		}

		// The listing may update in place, so wait on content change
		// rather than a navigation event. A stuck sentinel is treated
		// as end-of-list rather than failing the whole scrape.
		changed := s.sess.WaitFor(func() bool {
			current := s.visibleEntries(top)
			return len(current) > 0 && current[0].Key != sentinelBefore
		}, s.PageTimeout)
		if changed != nil {
			break
		}
	}

	result := make([]model.CatalogEntry, 0, len(seen))
	for _, entry := range seen {
		result = append(result, entry)
	}

	c := collate.New(language.English, collate.IgnoreCase)
	sort.Slice(result, func(i, j int) bool {
		if cmp := c.CompareString(result[i].DisplayName, result[j].DisplayName); cmp != 0 {
			return cmp < 0
		}
		return result[i].Key < result[j].Key
	})

	return result, nil
}

// visibleEntries extracts the (displayName, key) pairs currently rendered.
// Rows without a resolvable link target are skipped.
func (s *Scraper) visibleEntries(top session.Context) []model.CatalogEntry {
	rows, err := top.FindAll(rowSelector)
	if err != nil {
		return nil
	}

	var entries []model.CatalogEntry
	for _, row := range rows {
		href, err := row.Attribute("href")
		if err != nil || href == nil || *href == "" {
			continue
		}
		name, err := row.Text()
		if err != nil {
			continue
		}
		entries = append(entries, model.CatalogEntry{DisplayName: name, Key: *href})
	}
	return entries
}
