package model

// CatalogEntry is one purchased mix in the user's catalog listing.
//
// Key is the service-assigned canonical link target for the mix page. It is
// stable across catalog pages and sessions, which makes it the deduplication
// key during a paginated scrape and the navigation target once the user
// selects a mix. DisplayName is presentation-only and not guaranteed unique.
//
// Entries are produced by a scrape pass, held in memory for the session, and
// replaced wholesale on refresh. They are never persisted.
type CatalogEntry struct {
	// DisplayName is the human-readable mix title shown in the listing.
	DisplayName string

	// Key is the canonical link target (absolute or site-relative URL)
	// identifying the mix. Unique within a catalog.
	Key string
}
