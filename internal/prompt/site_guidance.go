package prompt

import (
	"net/url"
	"strings"
)

// siteFamily is a host-matched group of known pitfalls worth warning the
// agent about up front (spec §4.3).
type siteFamily struct {
	match    func(host string) bool
	guidance string
}

var siteFamilies = []siteFamily{
	{
		match: func(host string) bool { return strings.Contains(host, "activecommunities.com") },
		guidance: "This is an ActiveCommunities-powered site. Registration data is served through " +
			"predictable URL parameters (center, activity, and date-range query params) rather than " +
			"rendered HTML. Prefer constructing those URLs directly over scraping the DOM.",
	},
	{
		match: func(host string) bool {
			return hasAnyPrefix(host, "secure.", "portal.", "app.")
		},
		guidance: "The subdomain suggests a React or similar single-page application. Content is " +
			"rendered client-side after an XHR/fetch call completes; a plain page.goto() will race the " +
			"hydration. Wait for network idle and add an explicit settle delay, or better, intercept the " +
			"underlying API call directly.",
	},
	{
		match: func(host string) bool {
			return strings.Contains(host, "campbrain") || strings.Contains(host, "campminder") ||
				strings.Contains(host, "ultracamp") || strings.Contains(host, "regpacks")
		},
		guidance: "This host is a third-party camp registration/ticketing portal. The parent organization " +
			"site itself usually only links out to it; session data lives on the portal, not the landing page.",
	},
	{
		match: func(host string) bool {
			return strings.HasSuffix(host, ".edu")
		},
		guidance: "University/college sites often publish summer session catalogs late (May-June) and may " +
			"show no current-year data outside that window; a legitimate zero-session result is possible here.",
	},
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// SiteGuidance synthesizes a SITE_GUIDANCE paragraph from the source
// URL's host against the fixed site-family list.
func SiteGuidance(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())

	var paras []string
	for _, f := range siteFamilies {
		if f.match(host) {
			paras = append(paras, f.guidance)
		}
	}
	return strings.Join(paras, "\n\n")
}
