package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/sectionscope/config"
	"github.com/use-agent/sectionscope/extractor"
	"github.com/use-agent/sectionscope/models"
)

// scrollSteps is how many viewports the script scrolls.
const scrollSteps = 3

// probe is one catalog entry. selector is what gets reported in the
// interaction log.
type probe struct {
	selector string
	locator  Locator
}

func textProbe(tag, text string) probe {
	return probe{
		selector: tag + `:has-text("` + text + `")`,
		locator:  Locator{CSS: tag, Text: text},
	}
}

func cssProbe(css string) probe {
	return probe{selector: css, locator: Locator{CSS: css}}
}

var (
	expandProbes = []probe{
		textProbe("button", "Load more"),
		textProbe("button", "Show more"),
		textProbe("button", "See more"),
		textProbe("a", "Load more"),
		cssProbe(`[class*="load-more"]`),
		cssProbe(`[class*="show-more"]`),
	}

	tabProbes = []probe{
		cssProbe(`[role="tab"]`),
		cssProbe(`.tab`),
		cssProbe(`[class*="tab-"]`),
	}

	paginationProbes = []probe{
		cssProbe(`a[aria-label="Next"]`),
		textProbe("a", "Next"),
		cssProbe(`.pagination a:last-child`),
		cssProbe(`[class*="next"]`),
	}
)

// Delays are the fixed waits of the interaction script.
type Delays struct {
	Settle time.Duration
	Scroll time.Duration
	Expand time.Duration
	Tab    time.Duration
}

// Options configures a Renderer.
type Options struct {
	UserAgent         string
	NavigationTimeout time.Duration
	ProbeTimeout      time.Duration
	Delays            Delays
}

// OptionsFromConfig maps scraper configuration onto renderer options.
func OptionsFromConfig(cfg config.ScraperConfig) Options {
	return Options{
		UserAgent:         cfg.UserAgent,
		NavigationTimeout: cfg.NavigationTimeout,
		ProbeTimeout:      cfg.ProbeTimeout,
		Delays: Delays{
			Settle: cfg.SettleDelay,
			Scroll: cfg.ScrollDelay,
			Expand: cfg.ExpandDelay,
			Tab:    cfg.TabDelay,
		},
	}
}

// RenderResult is what one dynamic render produced. Meta and Sections are
// empty when the render failed before markup was read.
type RenderResult struct {
	Meta         models.Meta
	Sections     []models.Section
	Interactions models.Interactions
	Errors       []models.PhaseError
	Markup       string
}

// Renderer drives a Browser through the interaction script and extracts
// the resulting DOM.
type Renderer struct {
	browser   Browser
	extractor *extractor.Extractor
	opts      Options
}

// NewRenderer returns a Renderer using browser for sessions.
func NewRenderer(browser Browser, ext *extractor.Extractor, opts Options) *Renderer {
	return &Renderer{browser: browser, extractor: ext, opts: opts}
}

// Render opens a session, runs the script against pageURL, and extracts
// the final DOM. Any fault is reported as exactly one render error; the
// interactions performed so far are always returned.
func (r *Renderer) Render(ctx context.Context, pageURL string, opts extractor.Options) *RenderResult {
	res := &RenderResult{
		Sections:     []models.Section{},
		Interactions: models.NewInteractions(pageURL),
		Errors:       []models.PhaseError{},
	}
	fail := func(err error) *RenderResult {
		slog.Warn("render failed", "url", pageURL, "error", err)
		res.Errors = append(res.Errors, renderError(err))
		return res
	}

	session, err := r.browser.NewSession(ctx, r.opts.UserAgent)
	if err != nil {
		return fail(err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("session close failed", "url", pageURL, "error", err)
		}
	}()

	if err := r.load(ctx, session, pageURL); err != nil {
		return fail(err)
	}
	sleep(ctx, r.opts.Delays.Settle)

	r.scroll(ctx, session, &res.Interactions)
	r.expand(ctx, session, &res.Interactions)
	r.switchTab(ctx, session, &res.Interactions)
	r.paginate(ctx, session, pageURL, &res.Interactions)

	markup, err := session.Markup(ctx)
	if err != nil {
		return fail(err)
	}

	ext := r.extractor.Extract(markup, pageURL, opts)
	res.Meta = ext.Meta
	res.Sections = ext.Sections
	res.Markup = markup
	return res
}

// load navigates and waits for quiescence under the navigation ceiling.
func (r *Renderer) load(ctx context.Context, s Session, pageURL string) error {
	if r.opts.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.NavigationTimeout)
		defer cancel()
	}
	if err := s.Navigate(ctx, pageURL); err != nil {
		return err
	}
	return s.WaitQuiescent(ctx)
}

func (r *Renderer) scroll(ctx context.Context, s Session, log *models.Interactions) {
	for i := 0; i < scrollSteps; i++ {
		if err := s.ScrollViewport(ctx); err != nil {
			slog.Debug("scroll failed", "step", i, "error", err)
		}
		sleep(ctx, r.opts.Delays.Scroll)
		log.Scrolls++
	}
}

// expand clicks the first visible "load more" style control.
func (r *Renderer) expand(ctx context.Context, s Session, log *models.Interactions) {
	for _, p := range expandProbes {
		els := r.find(ctx, s, p)
		for _, el := range els {
			if !r.visible(ctx, el) {
				continue
			}
			if err := r.click(ctx, el); err != nil {
				slog.Debug("expand click failed", "selector", p.selector, "error", err)
				break
			}
			log.Clicks = append(log.Clicks, models.Click{Selector: p.selector, Success: true})
			sleep(ctx, r.opts.Delays.Expand)
			return
		}
	}
}

// switchTab clicks the second tab of the first catalog entry with at least
// two matches.
func (r *Renderer) switchTab(ctx context.Context, s Session, log *models.Interactions) {
	for _, p := range tabProbes {
		els := r.find(ctx, s, p)
		if len(els) < 2 {
			continue
		}
		if err := r.click(ctx, els[1]); err != nil {
			slog.Debug("tab click failed", "selector", p.selector, "error", err)
			continue
		}
		log.Clicks = append(log.Clicks, models.Click{Selector: p.selector, Success: true})
		sleep(ctx, r.opts.Delays.Tab)
		return
	}
}

// paginate records the next-page link without navigating to it.
func (r *Renderer) paginate(ctx context.Context, s Session, origin string, log *models.Interactions) {
	base, _ := url.Parse(origin)
	for _, p := range paginationProbes {
		els := r.find(ctx, s, p)
		if len(els) == 0 {
			continue
		}
		pctx, cancel := r.probeContext(ctx)
		href, ok, err := els[0].Attribute(pctx, "href")
		cancel()
		href = strings.TrimSpace(href)
		if err != nil || !ok || href == "" || strings.HasPrefix(href, "#") {
			continue
		}
		log.Pages = append(log.Pages, resolveHref(base, href))
		log.Clicks = append(log.Clicks, models.Click{Selector: p.selector, Success: true})
		return
	}
}

func (r *Renderer) find(ctx context.Context, s Session, p probe) []Element {
	pctx, cancel := r.probeContext(ctx)
	defer cancel()
	els, err := s.Find(pctx, p.locator)
	if err != nil {
		slog.Debug("probe lookup failed", "selector", p.selector, "error", err)
		return nil
	}
	return els
}

func (r *Renderer) visible(ctx context.Context, el Element) bool {
	pctx, cancel := r.probeContext(ctx)
	defer cancel()
	ok, err := el.Visible(pctx)
	return err == nil && ok
}

func (r *Renderer) click(ctx context.Context, el Element) error {
	pctx, cancel := r.probeContext(ctx)
	defer cancel()
	return el.Click(pctx)
}

func (r *Renderer) probeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.ProbeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opts.ProbeTimeout)
}

func resolveHref(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// renderError converts err to the render-phase error reported on results.
func renderError(err error) models.PhaseError {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		pe := se.ToPhaseError()
		pe.Phase = models.PhaseRender
		return pe
	}
	return models.NewPhaseError(models.PhaseRender, err)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
