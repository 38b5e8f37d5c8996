package mixer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mixpilot/mixer-downloader/internal/session"
)

// Selectors for the mixer widget. The widget's markup is the same whether it
// is mounted inline or inside a nested frame, so every query goes through
// the handle's context.
const (
	// RootSelector identifies the widget's mount point.
	RootSelector = `#mixer`

	trackSelector    = `#mixer .mixer__track`
	captionSelector  = `.mixer__track-caption`
	soloSelector     = `button.track__solo`
	muteSelector     = `button.track__mute`
	downloadSelector = `a.mixer__download`
	overlaySelector  = `.modal button.modal__close`

	// clickTrackClass marks the click/intro track's row.
	clickTrackClass = "mixer__track--click"
)

// ErrNoSolo is returned when a track's row carries no solo control. Some mix
// templates omit it; callers degrade to downloading without isolation.
var ErrNoSolo = errors.New("track has no solo control")

// ErrNoSuchTrack is returned for an out-of-range track index.
var ErrNoSuchTrack = errors.New("no such track")

// Handle is the capability to drive one located mixer widget.
//
// Soloing a track re-renders the widget's DOM and invalidates element
// handles held across the change, so the handle never caches track rows:
// every accessor re-queries the live track list by index.
type Handle struct {
	ctx session.Context
}

// NewHandle wraps a rendering context known to contain the widget root.
func NewHandle(ctx session.Context) *Handle {
	return &Handle{ctx: ctx}
}

// Context returns the rendering context hosting the widget.
func (h *Handle) Context() session.Context {
	return h.ctx
}

// TrackCount returns the number of tracks currently in the mixer.
func (h *Handle) TrackCount() (int, error) {
	rows, err := h.ctx.FindAll(trackSelector)
	if err != nil {
		return 0, fmt.Errorf("track list: %w", err)
	}
	return len(rows), nil
}

// trackAt re-resolves the live track list and returns row i.
func (h *Handle) trackAt(i int) (session.Element, error) {
	rows, err := h.ctx.FindAll(trackSelector)
	if err != nil {
		return nil, fmt.Errorf("track list: %w", err)
	}
	if i < 0 || i >= len(rows) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoSuchTrack, i, len(rows))
	}
	return rows[i], nil
}

// TrackName returns the display caption of track i.
func (h *Handle) TrackName(i int) (string, error) {
	row, err := h.trackAt(i)
	if err != nil {
		return "", err
	}
	caption, err := row.Find(captionSelector)
	if err != nil {
		return "", fmt.Errorf("track %d caption: %w", i, err)
	}
	text, err := caption.Text()
	if err != nil {
		return "", fmt.Errorf("track %d caption: %w", i, err)
	}
	return strings.TrimSpace(text), nil
}

// SoloControl returns track i's solo control, or ErrNoSolo when the row
// omits one.
func (h *Handle) SoloControl(i int) (session.Element, error) {
	row, err := h.trackAt(i)
	if err != nil {
		return nil, err
	}
	solo, err := row.Find(soloSelector)
	if err != nil {
		return nil, fmt.Errorf("track %d: %w", i, ErrNoSolo)
	}
	return solo, nil
}

// DownloadControl returns the widget's single shared download control. Its
// effect depends entirely on the current isolation state.
func (h *Handle) DownloadControl() (session.Element, error) {
	el, err := h.ctx.Find(downloadSelector)
	if err != nil {
		return nil, fmt.Errorf("download control: %w", err)
	}
	return el, nil
}

// DismissOverlay closes the transient confirmation overlay if one is
// showing, and reports whether it did. An absent overlay is the normal
// case, not an error.
func (h *Handle) DismissOverlay() bool {
	el, err := h.ctx.Find(overlaySelector)
	if err != nil {
		return false
	}
	return el.Click() == nil
}

// ToggleClickTrack flips the mute control on the click/intro track's row.
// Mixes without a click track return ErrNoSuchTrack.
func (h *Handle) ToggleClickTrack() error {
	rows, err := h.ctx.FindAll(trackSelector)
	if err != nil {
		return fmt.Errorf("track list: %w", err)
	}
	for _, row := range rows {
		class, err := row.Attribute("class")
		if err != nil || class == nil {
			continue
		}
		if !strings.Contains(*class, clickTrackClass) {
			continue
		}
		mute, err := row.Find(muteSelector)
		if err != nil {
			return fmt.Errorf("click track mute: %w", err)
		}
		return mute.Click()
	}
	return fmt.Errorf("%w: click track", ErrNoSuchTrack)
}
