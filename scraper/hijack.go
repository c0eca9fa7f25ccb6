package scraper

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to CDP resource types.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// adDomains lists ad and tracking hosts. Subdomains are matched too.
var adDomains = map[string]struct{}{
	"doubleclick.net":       {},
	"googlesyndication.com": {},
	"googleadservices.com":  {},
	"google-analytics.com":  {},
	"googletagmanager.com":  {},
	"googletagservices.com": {},
	"facebook.net":          {},
	"adnxs.com":             {},
	"adsrvr.org":            {},
	"amazon-adsystem.com":   {},
	"criteo.com":            {},
	"criteo.net":            {},
	"outbrain.com":          {},
	"taboola.com":           {},
	"moatads.com":           {},
	"pubmatic.com":          {},
	"rubiconproject.com":    {},
	"scorecardresearch.com": {},
	"quantserve.com":        {},
	"hotjar.com":            {},
	"mixpanel.com":          {},
	"segment.io":            {},
	"ads-twitter.com":       {},
	"chartbeat.com":         {},
	"openx.net":             {},
	"casalemedia.com":       {},
	"demdex.net":            {},
	"bluekai.com":           {},
	"serving-sys.com":       {},
	"consensu.org":          {},
}

// blocker decides which subresource requests a rendering session drops.
// Document, script and XHR requests are never blocked unless configured,
// since rendering depends on them.
type blocker struct {
	types    map[proto.NetworkResourceType]struct{}
	blockAds bool
}

// newBlocker returns nil when there is nothing to block. Unknown type
// names are ignored.
func newBlocker(typeNames []string, blockAds bool) *blocker {
	types := make(map[proto.NetworkResourceType]struct{}, len(typeNames))
	for _, name := range typeNames {
		if rt, ok := resourceTypes[strings.TrimSpace(name)]; ok {
			types[rt] = struct{}{}
		}
	}
	if len(types) == 0 && !blockAds {
		return nil
	}
	return &blocker{types: types, blockAds: blockAds}
}

func (b *blocker) shouldBlock(rt proto.NetworkResourceType, rawURL string) bool {
	if b == nil {
		return false
	}
	if _, ok := b.types[rt]; ok {
		return true
	}
	if !b.blockAds {
		return false
	}
	u, err := url.Parse(rawURL)
	return err == nil && isAdDomain(u.Hostname())
}

// mount installs the interceptor on page and starts it. The caller stops
// the returned router; nil means nothing was mounted.
func (b *blocker) mount(page *rod.Page) *rod.HijackRouter {
	if b == nil {
		return nil
	}
	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if b.shouldBlock(h.Request.Type(), h.Request.URL().String()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}

// isAdDomain reports whether host or one of its parent domains is listed.
func isAdDomain(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := adDomains[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			return false
		}
		host = host[i+1:]
	}
	return false
}
