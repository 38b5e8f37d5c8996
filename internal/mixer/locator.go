package mixer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mixpilot/mixer-downloader/internal/session"
)

// ErrMixerNotFound is returned when no reachable rendering context contains
// the widget root within the locate timeout.
var ErrMixerNotFound = errors.New("mixer widget not found")

// openAffordances are clicked, at most one, when the widget is not mounted
// inline; ordered from most to least specific.
var openAffordances = []string{
	`a.begin-customize`,
	`button.customize-mix`,
	`a[href*="customize"]`,
}

// frameURLHints mark a nested context likely to host the widget.
var frameURLHints = []string{"mixer", "custom"}

// Locator resolves a handle to the mixer widget.
//
// The widget's mount point is not guaranteed: it may render inline, appear
// only after an "open/customize" affordance is clicked, mount lazily on
// scroll, or live inside a nested frame. The locator treats nested contexts
// as an enumerable, possibly-empty, possibly-throwing collection and never
// assumes them present or absent.
type Locator struct {
	sess session.Session

	// PollInterval is the delay between probe rounds.
	PollInterval time.Duration

	// SubTimeout bounds the verification wait inside a URL-hinted frame.
	SubTimeout time.Duration

	// DiagnosticsDir receives document snapshots when location fails.
	// Empty disables capture.
	DiagnosticsDir string
}

// NewLocator creates a Locator with production intervals.
func NewLocator(sess session.Session) *Locator {
	return &Locator{
		sess:         sess,
		PollInterval: time.Second,
		SubTimeout:   3 * time.Second,
	}
}

// Locate searches every rendering context for the widget root, retrying
// until timeout. On failure it captures document snapshots for postmortem
// and returns ErrMixerNotFound.
func (l *Locator) Locate(timeout time.Duration) (*Handle, error) {
	top := l.sess.Top()

	// Common case: the widget is mounted inline.
	if h := probe(top); h != nil {
		return h, nil
	}

	// Not inline; the page may need its customize affordance clicked
	// before the widget mounts. Click at most one.
	for _, selector := range openAffordances {
		el, err := top.Find(selector)
		if err != nil {
			continue
		}
		if el.ScrollIntoView() == nil && el.Click() == nil {
			break
		}
	}
	if h := probe(top); h != nil {
		return h, nil
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if h := probe(top); h != nil {
			return h, nil
		}
		if h := l.probeFrames(); h != nil {
			return h, nil
		}

		// Lazy mounts trigger on scroll.
		_ = l.sess.ScrollBy(0, 600)
		time.Sleep(l.PollInterval)
	}

	if l.DiagnosticsDir != "" {
		if err := CaptureSnapshots(l.sess, l.DiagnosticsDir); err == nil {
			return nil, fmt.Errorf("%w after %s (snapshots in %s)", ErrMixerNotFound, timeout, l.DiagnosticsDir)
		}
	}
	return nil, fmt.Errorf("%w after %s", ErrMixerNotFound, timeout)
}

// probe checks one context for the widget root without waiting.
func probe(ctx session.Context) *Handle {
	if _, err := ctx.Find(RootSelector); err != nil {
		return nil
	}
	return NewHandle(ctx)
}

// probeFrames scans every nested context. A context that errors on access
// is treated as absent, not fatal. Frames whose location hints at hosting
// the widget get a bounded wait for the root to render.
func (l *Locator) probeFrames() *Handle {
	frames, err := l.sess.Frames()
	if err != nil {
		return nil
	}

	for _, frame := range frames {
		if h := probe(frame); h != nil {
			return h
		}
	}

	for _, frame := range frames {
		if !urlSuggestsMixer(frame.URL()) {
			continue
		}
		if _, err := frame.WaitForSelector(RootSelector, l.SubTimeout); err == nil {
			return NewHandle(frame)
		}
	}
	return nil
}

func urlSuggestsMixer(url string) bool {
	lower := strings.ToLower(url)
	for _, hint := range frameURLHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
