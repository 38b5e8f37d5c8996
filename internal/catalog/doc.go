// Package catalog enumerates the mixes a user has purchased.
//
// The service exposes purchases as a paginated listing with an unstable
// paging UI; see Scraper for the termination heuristics. Results are
// deduplicated by each mix's canonical link target and returned in
// locale-aware alphabetical order.
package catalog
