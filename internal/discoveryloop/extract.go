package discoveryloop

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"scraperdev/internal/browser"
	"scraperdev/internal/llmextract"
	"scraperdev/internal/searchengine"
)

var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
var tagStrip = regexp.MustCompile(`<[^>]*>`)

func pageTitle(html string) string {
	m := titlePattern.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(tagStrip.ReplaceAllString(m[1], ""))
}

// found is one normalized search-result or crawl-result URL.
type found struct {
	URL   string
	Title string
}

var organicResultFields = []llmextract.FieldSpec{
	{Name: "results", Type: "array", Description: "every distinct organic search result on the page, as {url, title} objects; ignore ads and the search box"},
}

// extractResults runs the AI-extraction-first, DOM-fallback protocol
// spec §4.9 Phase 1 describes for a rendered search-results page.
func extractResults(ctx context.Context, page browser.Page) ([]found, error) {
	fields, err := page.Extract(ctx, "List every organic search result (url and title) on this search results page.", organicResultFields)
	if err == nil {
		if results, ok := fields["results"].([]any); ok && len(results) > 0 {
			return normalizeAIResults(results), nil
		}
	}
	return domFallbackResults(page)
}

func normalizeAIResults(raw []any) []found {
	out := make([]found, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		u, _ := m["url"].(string)
		title, _ := m["title"].(string)
		if strings.TrimSpace(u) == "" {
			continue
		}
		out = append(out, found{URL: u, Title: title})
	}
	return out
}

// organicResultPattern is the DOM-side extractor's approximation of a
// generic search engine's organic result container: an anchor whose
// href is an external http(s) URL, paired with its link text as title.
var organicResultPattern = regexp.MustCompile(`(?is)<a[^>]+href\s*=\s*["'](https?://[^"']+)["'][^>]*>(.*?)</a>`)

// domFallbackResults reads organic result containers directly out of the
// rendered HTML when AI extraction comes back empty (spec §4.9 Phase 1).
func domFallbackResults(page browser.Page) ([]found, error) {
	html, err := page.HTML()
	if err != nil {
		return nil, err
	}
	matches := organicResultPattern.FindAllStringSubmatch(html, -1)
	out := make([]found, 0, len(matches))
	for _, m := range matches {
		title := strings.TrimSpace(tagStrip.ReplaceAllString(m[2], ""))
		out = append(out, found{URL: m[1], Title: title})
	}
	return out, nil
}

// normalizeAndFilter resolves each result to a bare external URL,
// drops denied/non-camp domains, and dedupes by domain.
func normalizeAndFilter(results []found, seenDomain map[string]bool) []found {
	out := make([]found, 0, len(results))
	for _, r := range results {
		parsed, err := url.Parse(r.URL)
		if err != nil || parsed.Host == "" {
			continue
		}
		host := strings.ToLower(parsed.Hostname())
		if searchengine.IsDenied(host) {
			continue
		}
		if seenDomain[host] {
			continue
		}
		seenDomain[host] = true
		out = append(out, found{URL: r.URL, Title: r.Title})
	}
	return out
}

var outboundLinkFields = []llmextract.FieldSpec{
	{Name: "links", Type: "array", Description: "every distinct outbound link to another organization's website found on this directory page"},
}

// externalLinks reads every outbound link on a directory page, deduped,
// excluding social/search/aggregator domains and the page's own host
// (spec §4.9 Phase 3).
func externalLinks(page browser.Page, ownHost string) ([]string, error) {
	links, err := page.Links()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, l := range links {
		parsed, err := url.Parse(l.URL)
		if err != nil || parsed.Host == "" {
			continue
		}
		host := strings.ToLower(parsed.Hostname())
		if host == strings.ToLower(ownHost) {
			continue
		}
		if searchengine.IsDenied(host) {
			continue
		}
		if seen[host] {
			continue
		}
		seen[host] = true
		out = append(out, l.URL)
	}
	return out, nil
}
