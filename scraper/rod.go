package scraper

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/sectionscope/config"
	"github.com/use-agent/sectionscope/models"
)

// acceptLanguage is sent with every rendered request.
const acceptLanguage = "en-US,en;q=0.9"

// RodBrowser is a Browser backed by one shared Chromium process. Each
// session runs in its own incognito browser context. It is safe for
// concurrent use.
type RodBrowser struct {
	browser    *rod.Browser
	slots      rod.Pool[rod.Browser]
	browserCfg config.BrowserConfig
	blocker    *blocker
	headers    map[string]string
	active     atomic.Int32
}

// NewRodBrowser launches Chromium and connects to it.
func NewRodBrowser(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*RodBrowser, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, models.PhaseRender,
			"failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, models.PhaseRender,
			"failed to connect to browser", err)
	}

	maxSessions := browserCfg.MaxSessions
	if maxSessions < 1 {
		maxSessions = 1
	}
	browserCfg.MaxSessions = maxSessions

	return &RodBrowser{
		browser:    browser,
		slots:      rod.NewBrowserPool(maxSessions),
		browserCfg: browserCfg,
		blocker:    newBlocker(scraperCfg.BlockedResourceTypes, scraperCfg.BlockAds),
		headers:    scraperCfg.ExtraHeaders,
	}, nil
}

// NewSession waits for a free slot, then opens a fresh incognito context
// with a single page.
func (b *RodBrowser) NewSession(ctx context.Context, userAgent string) (Session, error) {
	select {
	case <-ctx.Done():
		return nil, categorizeError(ctx.Err(), "waiting for a browser session")
	case <-b.slots:
	}
	b.active.Add(1)

	release := func() {
		b.active.Add(-1)
		b.slots.Put(nil)
	}

	incognito, err := b.browser.Incognito()
	if err != nil {
		release()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, models.PhaseRender,
			"failed to create incognito context", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		release()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, models.PhaseRender,
			"failed to open page", err)
	}

	s := &rodSession{incognito: incognito, page: page, release: release}

	if b.browserCfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      userAgent,
		AcceptLanguage: acceptLanguage,
	}); err != nil {
		s.Close()
		return nil, categorizeError(err, "failed to set user agent")
	}
	if len(b.headers) > 0 {
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(b.headers)}).Call(page); err != nil {
			slog.Warn("extra headers not applied", "count", len(b.headers), "error", err)
		}
	}

	s.router = b.blocker.mount(page)
	return s, nil
}

// Stats returns a snapshot of session usage.
func (b *RodBrowser) Stats() models.BrowserStats {
	return models.BrowserStats{
		Enabled:        true,
		MaxSessions:    b.browserCfg.MaxSessions,
		ActiveSessions: int(b.active.Load()),
	}
}

// Close kills the browser process. Call it on graceful shutdown to prevent
// zombie Chrome processes.
func (b *RodBrowser) Close() {
	slog.Info("closing browser")
	if err := b.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
}

var _ Browser = (*RodBrowser)(nil)

// closeOnce guards session teardown against double Close.
type closeOnce struct {
	once sync.Once
	err  error
}

func (c *closeOnce) do(fn func() error) error {
	c.once.Do(func() { c.err = fn() })
	return c.err
}
