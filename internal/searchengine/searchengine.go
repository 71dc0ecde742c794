// Package searchengine builds search-result URLs for the market-
// discovery loop to navigate a browser to (spec §4.9 Phase 1: "navigate
// to a search-engine URL"). It is grounded on the teacher's SearxngProvider
// (internal/services/search.go), adapted from an HTTP JSON API client into
// a GET-URL builder since the discovery loop drives a real browser page
// rather than calling the provider over HTTP directly.
package searchengine

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"scraperdev/internal/config"
)

// Engine builds search-engine URLs for one configured provider.
type Engine struct {
	baseURL      string
	defaultLimit int
}

// NewEngine constructs an Engine from SearchConfig, defaulting to a
// SearxNG instance the way the teacher's NewSearxngProvider does.
func NewEngine(cfg config.SearchConfig) *Engine {
	base := strings.TrimRight(cfg.Searxng.BaseURL, "/")
	if base == "" {
		base = "https://searx.be"
	}
	limit := cfg.Searxng.DefaultLimit
	if limit <= 0 {
		limit = 10
	}
	return &Engine{baseURL: base, defaultLimit: limit}
}

// QueryURL builds the navigable search-results URL for query.
func (e *Engine) QueryURL(query string) string {
	values := url.Values{}
	values.Set("q", query)
	values.Set("categories", "general")
	values.Set("language", "en")
	if e.defaultLimit > 0 {
		values.Set("pageno", "1")
		values.Set("results_on_new_tab", strconv.Itoa(0))
	}
	return e.baseURL + "/search?" + values.Encode()
}

// ComboQuery builds the quoted combination query for Phase 2 (spec
// §4.9: "construct 2 quoted-name combination queries").
func ComboQuery(a, b string) string {
	return `"` + a + `" "` + b + `"`
}

var interstitialTitlePattern = regexp.MustCompile(`(?i)captcha|consent|before you continue`)

// IsInterstitial reports whether a page title looks like a consent or
// captcha wall (spec §4.9 Phase 1).
func IsInterstitial(title string) bool {
	return interstitialTitlePattern.MatchString(title)
}

// AcceptButtonSelectors is a broad selector list for dismissing a
// consent interstitial; callers try each in turn and continue
// regardless of success (spec §4.9: "attempt to click an accept button
// via a broad selector; continue regardless").
var AcceptButtonSelectors = []string{
	`button#onetrust-accept-btn-handler`,
	`button[aria-label*="Accept" i]`,
	`button[id*="accept" i]`,
	`button[class*="accept" i]`,
	`form[action*="consent"] button`,
	`button:has-text("I agree")`,
	`button:has-text("Accept all")`,
}

var denyListPattern = regexp.MustCompile(`(?i)\.(gov|mil)$|wikipedia\.org$|reddit\.com$`)

// socialOrAggregatorDomains excludes social/search/aggregator domains
// from both the query-sweep results (Phase 1) and the directory-crawl
// outbound links (Phase 3), per spec §4.9.
var socialOrAggregatorDomains = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com", "pinterest.com",
	"linkedin.com", "yelp.com", "tripadvisor.com", "youtube.com", "tiktok.com",
	"google.com", "bing.com",
}

// IsDenied reports whether host should be skipped as a non-camp or
// social/aggregator domain (spec §4.9 Phase 1: "skip non-camp domains
// using a deny-list regex"; Phase 3: "excluding social/search/
// aggregator domains").
func IsDenied(host string) bool {
	host = strings.ToLower(host)
	if denyListPattern.MatchString(host) {
		return true
	}
	for _, d := range socialOrAggregatorDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// knownDirectories is the fixed allowlist of known camp-listing
// directories (spec §4.9 Phase 1/3).
var knownDirectories = map[string]bool{
	"activityhero.com":         true,
	"campnavigator.com":        true,
	"mysummercamps.com":        true,
	"kidscamps.com":            true,
	"trekaroo.com":             true,
	"care.com":                 true,
	"activekids.com":           true,
	"summercampspecialist.com": true,
}

// IsKnownDirectory reports whether host is in the fixed known-
// directories allowlist (or a subdomain of one).
func IsKnownDirectory(host string) bool {
	host = strings.ToLower(host)
	if knownDirectories[host] {
		return true
	}
	for domain := range knownDirectories {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

var listiclePattern = regexp.MustCompile(`(?i)/camps|/summer|best|guide|list`)

// LooksLikeListicle reports whether a URL or title suggests a listicle
// page worth crawling in Phase 3, per spec §4.9.
func LooksLikeListicle(rawURL, title string) bool {
	return listiclePattern.MatchString(rawURL) || listiclePattern.MatchString(title)
}
