package scraper

import (
	"fmt"
	"log/slog"

	"github.com/corpix/uarand"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const fallbackUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.127 Safari/537.36"

// Session owns one browser process and its control connection. Pages
// can only be opened between Open and Close; Close must run on every
// exit path so no browser process leaks.
type Session struct {
	headless  bool
	userAgent string
	launcher  *launcher.Launcher
	browser   *rod.Browser
}

// NewSession prepares a session. An empty userAgent picks a plausible
// random desktop agent.
func NewSession(headless bool, userAgent string) *Session {
	if userAgent == "" {
		userAgent = randomUserAgent()
	}
	return &Session{headless: headless, userAgent: userAgent}
}

func randomUserAgent() string {
	ua := uarand.GetRandom()
	if ua == "" {
		slog.Warn("Failed to pick a random user agent, using fallback")
		return fallbackUserAgent
	}
	slog.Debug("Using random user agent", "user_agent", ua)
	return ua
}

// Open launches the browser process and connects a control session
func (s *Session) Open() error {
	slog.Debug("Launching browser", "headless", s.headless)

	l := launcher.New().Headless(s.headless)
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	s.launcher = l
	s.browser = browser
	return nil
}

// Close tears down the control connection and the browser process.
// Safe to call multiple times and after a failed Open.
func (s *Session) Close() {
	slog.Debug("Cleaning up browser resources")

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			slog.Warn("Error closing browser", "error", err)
		}
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher = nil
	}
}

// NewPage opens a page with the session viewport and user agent. It
// fails with ErrNotInitialized outside the Open/Close scope.
func (s *Session) NewPage() (Page, error) {
	if s.browser == nil {
		return nil, ErrNotInitialized
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1280,
		Height:            720,
		DeviceScaleFactor: 1,
	}); err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.userAgent}); err != nil {
		page.Close()
		return nil, fmt.Errorf("failed to set user agent: %w", err)
	}

	return &rodPage{page: page}, nil
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Navigate(url string) error {
	if err := p.page.Navigate(url); err != nil {
		return err
	}
	return p.page.WaitLoad()
}

func (p *rodPage) Elements(selector string) ([]Element, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, err
	}

	elements := make([]Element, 0, len(els))
	for _, el := range els {
		elements = append(elements, &rodElement{el: el})
	}
	return elements, nil
}

func (p *rodPage) Scroll(deltaY float64) error {
	return p.page.Mouse.Scroll(0, deltaY, 1)
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Child(selector string) (Element, error) {
	el, err := e.el.Element(selector)
	if err != nil {
		return nil, err
	}
	return &rodElement{el: el}, nil
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) HTML() (string, error) {
	return e.el.HTML()
}

func (e *rodElement) TextContent() (string, error) {
	prop, err := e.el.Property("textContent")
	if err != nil {
		return "", err
	}
	return prop.String(), nil
}

func (e *rodElement) Attr(name string) (string, error) {
	value, err := e.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

func (e *rodElement) ScrollIntoView() error {
	return e.el.ScrollIntoView()
}

func (e *rodElement) Height() (float64, error) {
	shape, err := e.el.Shape()
	if err != nil {
		return 0, err
	}

	box := shape.Box()
	if box == nil {
		return 0, fmt.Errorf("element has no bounding box")
	}
	return box.Height, nil
}
