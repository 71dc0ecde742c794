// Package directoryloop implements the directory loop (spec §4.7):
// fetch listing pages, HTTP first with a browser fallback on 403 or
// network error, extract outbound organization links, and report them to
// the backend via CompleteQueueItem, which creates the per-site
// scraper-development requests.
package directoryloop

import (
	"net/url"
	"regexp"
	"strings"
)

var excludedExtPattern = regexp.MustCompile(`(?i)\.(pdf|jpe?g|png|gif|svg|css|js|ico|zip|docx?|xlsx?)$`)

var socialDomains = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com", "pinterest.com",
	"linkedin.com", "yelp.com", "tripadvisor.com", "wikipedia.org", "google.com",
	"youtube.com", "tiktok.com",
}

// rawLink is one <a href>TEXT</a> occurrence before resolution/filtering.
type rawLink struct {
	href string
	text string
}

var anchorPattern = regexp.MustCompile(`(?is)<a\s+[^>]*href\s*=\s*["']([^"']*)["'][^>]*>(.*?)</a>`)
var tagStripPattern = regexp.MustCompile(`<[^>]*>`)

// ExtractAnchors parses `<a href=...>TEXT</a>` occurrences out of raw
// HTML (spec §4.7: "parse <a href ...>TEXT</a> occurrences" — no full
// DOM parse, matching the spec's own description of the extractor).
func ExtractAnchors(html string) []rawLink {
	matches := anchorPattern.FindAllStringSubmatch(html, -1)
	out := make([]rawLink, 0, len(matches))
	for _, m := range matches {
		text := strings.TrimSpace(tagStripPattern.ReplaceAllString(m[2], ""))
		out = append(out, rawLink{href: m[1], text: text})
	}
	return out
}

// ExtractedLink is one outbound link surfaced by the directory loop.
type ExtractedLink struct {
	URL  string
	Name string
}

// ExtractLinks applies spec §4.7's link-extraction rules to the raw
// anchors found on pageURL: resolve relative hrefs, skip empty/#/
// javascript:/mailto:/tel: targets and the source's own host, apply the
// optional baseUrlFilter/linkPattern, reject excluded extensions and
// social/aggregator domains, and dedupe by external domain (one URL per
// domain).
func ExtractLinks(pageURL, html string, baseURLFilter, linkPattern string) []ExtractedLink {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	baseHost := strings.ToLower(base.Hostname())

	var pattern *regexp.Regexp
	if linkPattern != "" {
		pattern = regexp.MustCompile(linkPattern)
	}

	seenDomain := make(map[string]bool)
	var out []ExtractedLink

	for _, a := range ExtractAnchors(html) {
		href := strings.TrimSpace(a.href)
		if href == "" || href == "#" {
			continue
		}
		lower := strings.ToLower(href)
		if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
			continue
		}

		resolved, err := base.Parse(href)
		if err != nil {
			continue
		}
		host := strings.ToLower(resolved.Hostname())
		if host == "" || host == baseHost {
			continue
		}
		if isSocialOrAggregator(host) {
			continue
		}
		if excludedExtPattern.MatchString(resolved.Path) {
			continue
		}
		if baseURLFilter != "" && !strings.Contains(host, baseURLFilter) {
			continue
		}
		if pattern != nil && !pattern.MatchString(resolved.String()) && !pattern.MatchString(a.text) {
			continue
		}
		if seenDomain[host] {
			continue
		}
		seenDomain[host] = true

		out = append(out, ExtractedLink{URL: resolved.String(), Name: a.text})
	}
	return out
}

func isSocialOrAggregator(host string) bool {
	for _, d := range socialDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
