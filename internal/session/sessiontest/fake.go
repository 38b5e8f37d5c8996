// Package sessiontest provides a scriptable in-memory implementation of the
// session interfaces for tests.
//
// A FakeContext maps selectors to elements; tests mutate the map (typically
// from an element's OnClick hook) to simulate the page changing under the
// automation, e.g. pagination swapping rows or a solo click re-rendering the
// track list.
package sessiontest

import (
	"fmt"
	"time"

	"github.com/mixpilot/mixer-downloader/internal/session"
)

// FakeElement is a scriptable DOM element.
type FakeElement struct {
	// TextValue is returned by Text.
	TextValue string

	// Attrs holds attribute values returned by Attribute.
	Attrs map[string]string

	// OnClick runs when the element is clicked. May mutate the owning
	// context to simulate page updates.
	OnClick func() error

	// FrameContext, when set, is returned by Frame.
	FrameContext session.Context

	// Children maps selectors to descendant elements returned by Find.
	Children map[string][]*FakeElement

	// Recorded interactions.
	Clicks   int
	Inputs   []string
	Scrolled int
}

func (e *FakeElement) Click() error {
	e.Clicks++
	if e.OnClick != nil {
		return e.OnClick()
	}
	return nil
}

func (e *FakeElement) Input(text string) error {
	e.Inputs = append(e.Inputs, text)
	return nil
}

func (e *FakeElement) Text() (string, error) {
	return e.TextValue, nil
}

func (e *FakeElement) Attribute(name string) (*string, error) {
	if e.Attrs == nil {
		return nil, nil
	}
	v, ok := e.Attrs[name]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (e *FakeElement) ScrollIntoView() error {
	e.Scrolled++
	return nil
}

func (e *FakeElement) Find(selector string) (session.Element, error) {
	els := e.Children[selector]
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, selector)
	}
	return els[0], nil
}

func (e *FakeElement) Frame() (session.Context, error) {
	if e.FrameContext == nil {
		return nil, fmt.Errorf("element hosts no frame")
	}
	return e.FrameContext, nil
}

// FakeContext is a scriptable rendering context.
type FakeContext struct {
	// Elements maps a selector to the elements it matches, in order.
	Elements map[string][]*FakeElement

	// FindFunc, when set, overrides map lookup entirely.
	FindFunc func(selector string) ([]*FakeElement, error)

	// HTMLValue is returned by HTML.
	HTMLValue string

	// URLValue is returned by URL.
	URLValue string
}

// NewFakeContext returns an empty context.
func NewFakeContext() *FakeContext {
	return &FakeContext{Elements: make(map[string][]*FakeElement)}
}

// Set replaces the elements matching selector.
func (c *FakeContext) Set(selector string, els ...*FakeElement) {
	if c.Elements == nil {
		c.Elements = make(map[string][]*FakeElement)
	}
	c.Elements[selector] = els
}

func (c *FakeContext) lookup(selector string) ([]*FakeElement, error) {
	if c.FindFunc != nil {
		return c.FindFunc(selector)
	}
	return c.Elements[selector], nil
}

func (c *FakeContext) Find(selector string) (session.Element, error) {
	els, err := c.lookup(selector)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, selector)
	}
	return els[0], nil
}

func (c *FakeContext) FindAll(selector string) ([]session.Element, error) {
	els, err := c.lookup(selector)
	if err != nil {
		return nil, err
	}
	result := make([]session.Element, 0, len(els))
	for _, el := range els {
		result = append(result, el)
	}
	return result, nil
}

func (c *FakeContext) WaitForSelector(selector string, timeout time.Duration) (session.Element, error) {
	var found session.Element
	ok := session.Poll(func() bool {
		el, err := c.Find(selector)
		if err != nil {
			return false
		}
		found = el
		return true
	}, timeout, time.Millisecond)
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, selector)
	}
	return found, nil
}

func (c *FakeContext) HTML() (string, error) {
	return c.HTMLValue, nil
}

func (c *FakeContext) URL() string {
	return c.URLValue
}

// FakeSession is a scriptable automation session.
type FakeSession struct {
	// TopContext is returned by Top.
	TopContext *FakeContext

	// FrameContexts is returned by Frames.
	FrameContexts []session.Context

	// NavigateFunc, when set, handles Navigate calls.
	NavigateFunc func(url string) error

	// Recorded interactions.
	Navigated   []string
	DownloadDir string
	Scrolls     int
	Closed      bool
}

// NewFakeSession returns a session with an empty top context.
func NewFakeSession() *FakeSession {
	return &FakeSession{TopContext: NewFakeContext()}
}

func (s *FakeSession) Navigate(url string) error {
	s.Navigated = append(s.Navigated, url)
	if s.NavigateFunc != nil {
		return s.NavigateFunc(url)
	}
	return nil
}

func (s *FakeSession) Top() session.Context {
	return s.TopContext
}

func (s *FakeSession) Frames() ([]session.Context, error) {
	return s.FrameContexts, nil
}

func (s *FakeSession) WaitFor(pred func() bool, timeout time.Duration) error {
	if session.Poll(pred, timeout, time.Millisecond) {
		return nil
	}
	return fmt.Errorf("predicate wait: %w", session.ErrNavigationTimeout)
}

func (s *FakeSession) ScrollBy(x, y float64) error {
	s.Scrolls++
	return nil
}

func (s *FakeSession) SetDownloadDir(dir string) error {
	s.DownloadDir = dir
	return nil
}

func (s *FakeSession) Close() error {
	s.Closed = true
	return nil
}
