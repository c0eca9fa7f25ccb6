// Package pipeline runs one extraction request end to end: static fetch,
// sufficiency check, optional dynamic render, merge and hand-off to
// persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/sectionscope/engine"
	"github.com/use-agent/sectionscope/extractor"
	"github.com/use-agent/sectionscope/models"
	"github.com/use-agent/sectionscope/scraper"
	"github.com/use-agent/sectionscope/simhash"
)

// State is a step of a pipeline run, logged for diagnostics.
type State string

const (
	StateStaticFetched        State = "static_fetched"
	StateSufficiencyEvaluated State = "sufficiency_evaluated"
	StateEscalated            State = "escalated"
	StateMerged               State = "merged"
)

// ErrRenderDisabled is reported when escalation is needed but dynamic
// rendering is switched off.
var ErrRenderDisabled = errors.New("dynamic rendering disabled")

// Renderer is the dynamic rendering capability.
type Renderer interface {
	Render(ctx context.Context, pageURL string, opts extractor.Options) *scraper.RenderResult
}

// Recorder accepts summaries for best-effort persistence. Record must not
// block.
type Recorder interface {
	Record(models.Summary)
}

// Notifier is told about every completed run.
type Notifier interface {
	Notify(models.Summary)
}

// Options tunes a single run.
type Options struct {
	// ForceRender escalates regardless of the sufficiency check.
	ForceRender bool
	Extract     extractor.Options
}

// Orchestrator is safe for concurrent use; each Run is independent.
type Orchestrator struct {
	fetcher   engine.Engine
	renderer  Renderer
	extractor *extractor.Extractor
	recorder  Recorder
	notifier  Notifier
	now       func() time.Time
}

// New returns an Orchestrator. renderer may be nil, in which case every
// escalation is reported as ErrRenderDisabled.
func New(fetcher engine.Engine, renderer Renderer, ext *extractor.Extractor) *Orchestrator {
	return &Orchestrator{
		fetcher:   fetcher,
		renderer:  renderer,
		extractor: ext,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetRecorder sets where summaries are persisted.
func (o *Orchestrator) SetRecorder(r Recorder) {
	o.recorder = r
}

// SetNotifier sets the completion notifier.
func (o *Orchestrator) SetNotifier(n Notifier) {
	o.notifier = n
}

// Run processes pageURL, which must already be validated. It always
// returns a populated result: failures are reported on result.Errors.
func (o *Orchestrator) Run(ctx context.Context, pageURL string, opts Options) (result *models.ScrapeResult) {
	scrapedAt := o.now()
	result = models.NewScrapeResult(pageURL, scrapedAt)
	var domFingerprint string

	defer func() {
		o.publish(result, domFingerprint)
	}()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline panic recovered", "url", pageURL, "panic", r)
			result.AddError(models.PhaseFetch, fmt.Errorf("%v", r))
		}
	}()

	static := o.fetchStatic(ctx, pageURL, opts.Extract)
	result = Assemble(pageURL, scrapedAt, static, models.NewInteractions(pageURL))
	o.logState(pageURL, StateStaticFetched, "sections", len(static.Sections), "errors", len(static.Errors))

	sufficient := Sufficient(static.Sections)
	escalate := opts.ForceRender || !sufficient
	o.logState(pageURL, StateSufficiencyEvaluated, "sufficient", sufficient, "force", opts.ForceRender)

	final := static
	interactions := models.NewInteractions(pageURL)
	if escalate {
		o.logState(pageURL, StateEscalated)
		dynamic := o.render(ctx, pageURL, opts.Extract)
		interactions = dynamic.Interactions
		final = Merge(static, dynamic)
		logDOMDistance(pageURL, static.Markup, dynamic.Markup)
	}

	result = Assemble(pageURL, scrapedAt, final, interactions)
	if fp := simhash.FingerprintDOM(final.Markup); fp != 0 {
		domFingerprint = simhash.Hex(fp)
	}
	o.logState(pageURL, StateMerged, "sections", len(result.Sections), "errors", len(result.Errors))
	return result
}

func (o *Orchestrator) fetchStatic(ctx context.Context, pageURL string, opts extractor.Options) Outcome {
	out := Outcome{Sections: []models.Section{}, Errors: []models.PhaseError{}}

	res, err := o.fetcher.Fetch(ctx, &engine.FetchRequest{URL: pageURL})
	if err != nil {
		slog.Warn("static fetch failed", "url", pageURL, "engine", o.fetcher.Name(), "error", err)
		out.Errors = append(out.Errors, models.NewPhaseError(models.PhaseFetch, err))
		return out
	}

	slog.Debug("static fetch", "url", pageURL, "engine", res.EngineName,
		"status", res.StatusCode, "final_url", res.FinalURL, "bytes", len(res.HTML))

	// Relative references resolve against the document's own address.
	opts.BaseURL = res.FinalURL
	ext := o.extractor.Extract(res.HTML, pageURL, opts)
	out.Meta = ext.Meta
	out.Sections = ext.Sections
	out.Markup = res.HTML
	return out
}

// render invokes the renderer, converting a panic into a render error so
// the static outcome survives.
func (o *Orchestrator) render(ctx context.Context, pageURL string, opts extractor.Options) (res *scraper.RenderResult) {
	fallback := func(err error) *scraper.RenderResult {
		return &scraper.RenderResult{
			Sections:     []models.Section{},
			Interactions: models.NewInteractions(pageURL),
			Errors:       []models.PhaseError{models.NewPhaseError(models.PhaseRender, err)},
		}
	}

	if o.renderer == nil {
		return fallback(ErrRenderDisabled)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("renderer panic recovered", "url", pageURL, "panic", r)
			res = fallback(fmt.Errorf("JS rendering failed: %v", r))
		}
	}()

	res = o.renderer.Render(ctx, pageURL, opts)
	if res == nil {
		return fallback(errors.New("JS rendering failed: no result"))
	}
	return res
}

func (o *Orchestrator) publish(result *models.ScrapeResult, domFingerprint string) {
	if o.recorder == nil && o.notifier == nil {
		return
	}
	summary := Summarize(result, domFingerprint)
	if o.recorder != nil {
		o.recorder.Record(summary)
	}
	if o.notifier != nil {
		o.notifier.Notify(summary)
	}
}

func (o *Orchestrator) logState(pageURL string, state State, args ...any) {
	slog.Debug("pipeline state", append([]any{"url", pageURL, "state", string(state)}, args...)...)
}

// logDOMDistance reports how far the rendered DOM drifted from the static
// one.
func logDOMDistance(pageURL, staticMarkup, renderedMarkup string) {
	if staticMarkup == "" || renderedMarkup == "" {
		return
	}
	a := simhash.FingerprintDOM(staticMarkup)
	b := simhash.FingerprintDOM(renderedMarkup)
	slog.Debug("static vs rendered DOM", "url", pageURL, "distance", simhash.Distance(a, b))
}
