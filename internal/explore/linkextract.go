package explore

import (
	"net/url"
	"strings"

	"scraperdev/internal/browser"
	"scraperdev/internal/model"
)

const (
	maxExternalLinks = 30
	maxInternalLinks = 50
)

// ExtractDirectoryLinks applies the directory-heuristic link extractor
// from spec §4.2: dedupe internal links by full URL and external links
// by domain, drop excluded paths/extensions and social/aggregator
// domains, and keep internal links only when they look like a camp
// detail page (path pattern or link text). The result is deterministic
// given the same links slice — running it twice yields the same
// (domain -> url) pairs (spec §8 invariant 4).
func ExtractDirectoryLinks(pageURL string, links []browser.Link) []model.DirectoryLink {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	baseHost := strings.ToLower(base.Hostname())

	seenInternal := make(map[string]bool)
	seenExternalDomain := make(map[string]bool)
	var out []model.DirectoryLink

	for _, l := range links {
		u, err := url.Parse(l.URL)
		if err != nil {
			continue
		}
		if isExcludedAsset(u) {
			continue
		}
		host := strings.ToLower(u.Hostname())
		if isSocialOrAggregator(host) {
			continue
		}

		internal := host == baseHost
		if internal {
			if !isCampDetailLink(u, l.Text) {
				continue
			}
			key := u.String()
			if seenInternal[key] {
				continue
			}
			seenInternal[key] = true
			out = append(out, model.DirectoryLink{URL: u.String(), Name: l.Text, IsInternal: true})
		} else {
			if seenExternalDomain[host] {
				continue
			}
			seenExternalDomain[host] = true
			out = append(out, model.DirectoryLink{URL: u.String(), Name: l.Text, IsInternal: false})
		}
	}
	return out
}

// SplitCapped partitions links into internal/external, each capped at
// the spec's 50/30 limits (spec §4.2 step 4).
func SplitCapped(links []model.DirectoryLink) (internal, external []model.DirectoryLink) {
	for _, l := range links {
		if l.IsInternal {
			if len(internal) < maxInternalLinks {
				internal = append(internal, l)
			}
		} else {
			if len(external) < maxExternalLinks {
				external = append(external, l)
			}
		}
	}
	return
}
