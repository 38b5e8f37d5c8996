package session

import (
	"errors"
	"time"
)

// ErrNavigationTimeout is returned when a page fails to load in time.
var ErrNavigationTimeout = errors.New("navigation timed out")

// ErrNotFound is returned by Find and FindAll when no element matches.
var ErrNotFound = errors.New("element not found")

// Element is a handle to a single DOM element within a Context.
//
// Element handles are invalidated whenever the page mutates under them;
// callers that interleave queries with state-changing clicks must re-resolve
// rather than hold handles across the mutation.
type Element interface {
	// Click activates the element.
	Click() error

	// Input types text into the element.
	Input(text string) error

	// Text returns the element's visible text content.
	Text() (string, error)

	// Attribute returns the named attribute, or nil if absent.
	Attribute(name string) (*string, error)

	// ScrollIntoView brings the element into the viewport.
	ScrollIntoView() error

	// Find returns the first descendant matching selector, or ErrNotFound
	// immediately if none matches.
	Find(selector string) (Element, error)

	// Frame returns the nested rendering context hosted by this element,
	// for elements that embed one. Errors when the element hosts no
	// accessible context.
	Frame() (Context, error)
}

// Context is one rendering context: the top-level document or a nested one.
//
// A Context is a pure query capability. Find returns immediately;
// WaitForSelector polls until the selector matches or the timeout elapses.
type Context interface {
	// Find returns the first element matching selector, or ErrNotFound
	// immediately if none matches.
	Find(selector string) (Element, error)

	// FindAll returns every element matching selector. An empty result is
	// not an error.
	FindAll(selector string) ([]Element, error)

	// WaitForSelector blocks until selector matches or timeout elapses.
	WaitForSelector(selector string, timeout time.Duration) (Element, error)

	// HTML returns the context's current document markup.
	HTML() (string, error)

	// URL returns the context's current location.
	URL() string
}

// Session is the automation session driving one browser page.
//
// All widget and catalog code is written against this interface so the
// underlying engine can be swapped without touching the orchestrator.
type Session interface {
	// Navigate loads url in the session's page and waits for the load
	// event, returning ErrNavigationTimeout on deadline.
	Navigate(url string) error

	// Top returns the top-level rendering context.
	Top() Context

	// Frames enumerates every nested rendering context currently
	// reachable from the page. Contexts that refuse access are omitted,
	// never fatal.
	Frames() ([]Context, error)

	// WaitFor polls pred until it returns true or timeout elapses.
	WaitFor(pred func() bool, timeout time.Duration) error

	// ScrollBy scrolls the viewport by the given deltas.
	ScrollBy(x, y float64) error

	// SetDownloadDir routes file downloads triggered by the page into dir.
	SetDownloadDir(dir string) error

	// Close shuts the session down.
	Close() error
}

// Poll is a helper for predicate waits: it invokes pred every interval
// until it returns true or timeout elapses, and reports whether pred
// succeeded.
func Poll(pred func() bool, timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if pred() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(interval)
	}
}
