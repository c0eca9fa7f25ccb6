package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/sectionscope/models"
	"github.com/ysmood/gson"
)

// domStableWindow is how long the DOM must stay unchanged to count as
// quiescent.
const domStableWindow = 500 * time.Millisecond

// rodSession is a Session on one page of an incognito context.
//
// Teardown order on Close: stop the hijack router, close the page, dispose
// the incognito context, release the slot. Errors past the first step are
// logged and do not stop the remaining steps.
type rodSession struct {
	incognito *rod.Browser
	page      *rod.Page
	router    *rod.HijackRouter
	release   func()
	closed    closeOnce
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	if err := s.page.Context(ctx).Navigate(url); err != nil {
		return categorizeError(err, "navigation to target URL failed")
	}
	return nil
}

// WaitQuiescent waits for window.onload, then for the DOM to settle. The
// request-idle waiter conflicts with the hijack router's Fetch domain on
// recent Chromium, so DOM stability stands in for network idle.
func (s *rodSession) WaitQuiescent(ctx context.Context) error {
	p := s.page.Context(ctx)
	if err := p.WaitLoad(); err != nil {
		return categorizeError(err, "page did not finish loading")
	}
	if err := p.WaitDOMStable(domStableWindow, 0.1); err != nil {
		if ctx.Err() != nil {
			return categorizeError(err, "page did not become idle")
		}
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
	return nil
}

func (s *rodSession) ScrollViewport(ctx context.Context) error {
	_, err := s.page.Context(ctx).Eval(`() => window.scrollBy(0, window.innerHeight)`)
	return err
}

func (s *rodSession) Find(ctx context.Context, loc Locator) ([]Element, error) {
	els, err := s.page.Context(ctx).Elements(loc.CSS)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", loc.CSS, err)
	}

	needle := strings.ToLower(loc.Text)
	out := make([]Element, 0, len(els))
	for _, el := range els {
		if needle != "" {
			text, err := el.Context(ctx).Text()
			if err != nil || !strings.Contains(strings.ToLower(text), needle) {
				continue
			}
		}
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (s *rodSession) Markup(ctx context.Context) (string, error) {
	markup, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", categorizeError(err, "failed to extract page HTML")
	}
	return markup, nil
}

func (s *rodSession) Close() error {
	return s.closed.do(func() error {
		defer s.release()

		if s.router != nil {
			if err := s.router.Stop(); err != nil {
				slog.Debug("hijack router stop failed", "error", err)
			}
		}
		if err := s.page.Close(); err != nil {
			slog.Warn("cleanup: failed to close page", "error", err)
		}
		return s.incognito.Close()
	})
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Visible(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed render-phase ScrapeErrors.
func categorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, models.PhaseRender, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, models.PhaseRender, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, models.PhaseRender, msg, err)
	}
}
