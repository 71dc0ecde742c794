package explore

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// directoryAllowlist are hosts known in advance to be camp directories
// rather than individual sources (spec §4.2).
var directoryAllowlist = []string{
	"kidsoutandabout.com", "parentmap.com", "activityhero.com",
	"sawyer.com", "acacamps.org", "macaronikid.com", "redtri.com",
}

var directoryPathPattern = regexp.MustCompile(`/guide|/list|/directory|/best-|/top-`)

// IsLikelyDirectory applies the directory heuristic from spec §4.2: a
// fixed host allowlist, OR a path hinting at a guide/list/directory, OR
// an AI-estimated camp count parsing as a number > 20.
func IsLikelyDirectory(pageURL, estimatedCampCount string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range directoryAllowlist {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	if directoryPathPattern.MatchString(strings.ToLower(u.Path)) {
		return true
	}
	if n, err := strconv.Atoi(strings.TrimSpace(estimatedCampCount)); err == nil && n > 20 {
		return true
	}
	return false
}

var excludedPathPattern = regexp.MustCompile(`/search|/login|/cart|/page/\d+|/category/|/tag/`)
var nonHTMLExtPattern = regexp.MustCompile(`(?i)\.(pdf|jpe?g|png|gif|svg|css|js|ico|zip|docx?|xlsx?)$`)
var socialDomains = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com", "pinterest.com",
	"linkedin.com", "yelp.com", "tripadvisor.com", "wikipedia.org", "google.com",
	"youtube.com", "tiktok.com",
}

var campDetailPattern = regexp.MustCompile(`(?i)/content/.*camp|/camps/[\w-]+|/programs/[\w-]+|/activities/[\w-]+|/classes/[\w-]+|/listings/[\w-]+|/providers/[\w-]+|-\d{4}$`)
var campTextPattern = regexp.MustCompile(`(?i)camp|program|class|activity|workshop|lesson`)

func isSocialOrAggregator(host string) bool {
	host = strings.ToLower(host)
	for _, d := range socialDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func isExcludedAsset(u *url.URL) bool {
	return excludedPathPattern.MatchString(u.Path) || nonHTMLExtPattern.MatchString(u.Path)
}

func isCampDetailLink(u *url.URL, linkText string) bool {
	return campDetailPattern.MatchString(u.Path) || campTextPattern.MatchString(linkText)
}
