package sources

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	DefaultNavigationTimeout = 60 * time.Second
	DefaultSelectorTimeout   = 30 * time.Second
)

type BrowserOptions struct {
	Headless          bool
	Bin               string // browser executable, empty to auto-detect or download
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
}

// BrowserRenderer renders pages in a shared headless browser. Each session is
// a separate tab.
type BrowserRenderer struct {
	browser *rod.Browser
	opts    BrowserOptions
}

var browserPaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
}

func NewBrowserRenderer(opts BrowserOptions) (*BrowserRenderer, error) {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavigationTimeout
	}
	if opts.SelectorTimeout <= 0 {
		opts.SelectorTimeout = DefaultSelectorTimeout
	}

	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(true).
		Leakless(false).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("mute-audio")

	bin := opts.Bin
	if bin == "" {
		for _, p := range browserPaths {
			if _, err := os.Stat(p); err == nil {
				bin = p
				break
			}
		}
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &BrowserRenderer{browser: browser, opts: opts}, nil
}

func (r *BrowserRenderer) NewSession(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The tab is detached from ctx so Close still works after cancellation.
	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	return &browserSession{page: page, opts: r.opts}, nil
}

func (r *BrowserRenderer) Close() error {
	if r.browser != nil {
		return r.browser.Close()
	}
	return nil
}

type browserSession struct {
	page *rod.Page
	opts BrowserOptions
}

func (s *browserSession) Load(ctx context.Context, url, selector string) (string, error) {
	page := s.page.Context(ctx)

	if err := s.navigate(page, url); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	if err := s.waitSelector(page, selector); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %s: %v", ErrSelectorTimeout, url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("%w: %s: reading document: %v", ErrNavigation, url, err)
	}
	return html, nil
}

func (s *browserSession) navigate(page *rod.Page, url string) error {
	nav := page.Timeout(s.opts.NavigationTimeout)
	defer nav.CancelTimeout()

	if err := nav.Navigate(url); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	if err := nav.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %s: waiting for load: %v", ErrNavigation, url, err)
	}
	return nil
}

func (s *browserSession) waitSelector(page *rod.Page, selector string) error {
	wait := page.Timeout(s.opts.SelectorTimeout)
	defer wait.CancelTimeout()

	_, err := wait.Element(selector)
	return err
}

func (s *browserSession) Close() error {
	return s.page.Close()
}
