package session

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Options configures a browser-backed session.
type Options struct {
	// Headless runs the browser without a visible window.
	Headless bool

	// UserDataDir persists cookies and login state between runs.
	UserDataDir string

	// PageTimeout bounds navigation and load waits.
	PageTimeout time.Duration
}

// Launch starts a Chromium instance and returns a Session driving one page.
//
// A system browser is preferred when one is installed; otherwise rod
// downloads its own Chromium build.
func Launch(opts Options) (Session, error) {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 30 * time.Second
	}

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("exclude-switches", "enable-automation")
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}
	if path, has := launcher.LookPath(); has {
		l = l.Bin(path)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &rodSession{
		browser:     browser,
		page:        page,
		pageTimeout: opts.PageTimeout,
	}, nil
}

type rodSession struct {
	browser     *rod.Browser
	page        *rod.Page
	pageTimeout time.Duration
}

func (s *rodSession) Navigate(url string) error {
	if err := s.page.Timeout(s.pageTimeout).Navigate(url); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigationTimeout, url, err)
	}
	if err := s.page.Timeout(s.pageTimeout).WaitLoad(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigationTimeout, url, err)
	}
	return nil
}

func (s *rodSession) Top() Context {
	return &rodContext{page: s.page}
}

// Frames walks every iframe on the page. Frames that refuse access
// (cross-origin, detached mid-walk) are skipped.
func (s *rodSession) Frames() ([]Context, error) {
	iframes, err := s.page.Elements("iframe")
	if err != nil {
		return nil, err
	}

	var contexts []Context
	for _, el := range iframes {
		framePage, err := el.Frame()
		if err != nil {
			continue
		}
		contexts = append(contexts, &rodContext{page: framePage})
	}
	return contexts, nil
}

func (s *rodSession) WaitFor(pred func() bool, timeout time.Duration) error {
	if Poll(pred, timeout, 250*time.Millisecond) {
		return nil
	}
	return fmt.Errorf("predicate wait: %w", ErrNavigationTimeout)
}

func (s *rodSession) ScrollBy(x, y float64) error {
	return s.page.Mouse.Scroll(x, y, 1)
}

func (s *rodSession) SetDownloadDir(dir string) error {
	return proto.PageSetDownloadBehavior{
		Behavior:     proto.PageSetDownloadBehaviorBehaviorAllow,
		DownloadPath: dir,
	}.Call(s.page)
}

func (s *rodSession) Close() error {
	return s.browser.Close()
}

type rodContext struct {
	page *rod.Page
}

func (c *rodContext) Find(selector string) (Element, error) {
	el, err := c.page.Sleeper(rod.NotFoundSleeper).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return &rodElement{el: el}, nil
}

func (c *rodContext) FindAll(selector string) ([]Element, error) {
	els, err := c.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	result := make([]Element, 0, len(els))
	for _, el := range els {
		result = append(result, &rodElement{el: el})
	}
	return result, nil
}

func (c *rodContext) WaitForSelector(selector string, timeout time.Duration) (Element, error) {
	el, err := c.page.Timeout(timeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return &rodElement{el: el}, nil
}

func (c *rodContext) HTML() (string, error) {
	return c.page.HTML()
}

func (c *rodContext) URL() string {
	info, err := c.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Input(text string) error {
	return e.el.Input(text)
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attribute(name string) (*string, error) {
	return e.el.Attribute(name)
}

func (e *rodElement) ScrollIntoView() error {
	return e.el.ScrollIntoView()
}

func (e *rodElement) Find(selector string) (Element, error) {
	el, err := e.el.Sleeper(rod.NotFoundSleeper).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return &rodElement{el: el}, nil
}

func (e *rodElement) Frame() (Context, error) {
	framePage, err := e.el.Frame()
	if err != nil {
		return nil, err
	}
	return &rodContext{page: framePage}, nil
}
