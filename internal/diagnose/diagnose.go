// Package diagnose implements the rule-based auto-feedback engine from
// spec §4.6: given a failed or invalid test result, produce a
// human-readable feedback string to attach to the request and feed
// into the next prompt iteration.
package diagnose

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// SiteType is the coarse classification diagnose uses to pick a
// directive prologue.
type SiteType string

const (
	SiteActiveCommunities SiteType = "active_communities"
	SiteReactSPA          SiteType = "react_spa"
	SiteUnknown           SiteType = "unknown"
)

// ClassifySite applies spec §4.6's host-based rules.
func ClassifySite(sourceURL string) SiteType {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return SiteUnknown
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "activecommunities.com"):
		return SiteActiveCommunities
	case strings.HasPrefix(host, "secure.") || strings.HasPrefix(host, "portal.") || strings.HasPrefix(host, "app."):
		return SiteReactSPA
	default:
		return SiteUnknown
	}
}

var (
	domSelectorNoExtract = regexp.MustCompile(`document\.querySelector|querySelectorAll`)
	aiExtractCall        = regexp.MustCompile(`page\.extract\(`)
	nonIdleGoto          = regexp.MustCompile(`page\.goto\([^)]*["']domcontentloaded["']`)
	sleepCall            = regexp.MustCompile(`waitForTimeout\(|setTimeout\(|sleep\(`)
	paginationParam      = regexp.MustCompile(`(?i)[?&](page|offset|pageNum)=`)
	paginationLogic      = regexp.MustCompile(`(?i)hasNextPage|nextPage|while\s*\(\s*has|page\+\+|offset\s*\+=`)
)

// smell is one code-level issue detected by pure string inspection.
type smell struct {
	issue string
	fix   string
}

func detectSmells(code string) []smell {
	var smells []smell

	if domSelectorNoExtract.MatchString(code) && !aiExtractCall.MatchString(code) {
		smells = append(smells, smell{
			issue: "Uses DOM selectors (querySelector/querySelectorAll) without the AI-extraction primitive.",
			fix:   "Replace manual DOM traversal with page.extract(instruction, schema) so the extraction survives markup changes.",
		})
	}

	if nonIdleGoto.MatchString(code) && !sleepCall.MatchString(code) {
		smells = append(smells, smell{
			issue: "Navigates with a non-idle wait condition and no explicit post-load sleep.",
			fix:   "Use a network-idle wait condition, or add an explicit settle delay after goto() for client-rendered content.",
		})
	}

	if paginationParam.MatchString(code) && !paginationLogic.MatchString(code) {
		smells = append(smells, smell{
			issue: "Reads a pagination parameter from the URL but has no loop advancing through subsequent pages.",
			fix:   "Add a loop that follows the next page until the source signals it has no more results.",
		})
	}

	return smells
}

const activeCommunitiesPrologue = "⚠️ CRITICAL: This is an ActiveCommunities site. These sites expose " +
	"predictable URL query parameters for center, activity, and date range; registration data should be " +
	"fetched via those parameters. Do NOT use DOM selectors on this site — the rendered markup is " +
	"minified and unstable across deployments."

const maxTestErrorLen = 500

// Feedback renders the full auto-feedback string for submitFeedback
// (spec §4.6). testErr is the test-stage error, if any; pass "" when
// diagnosing a zero-sessions-invalid result instead.
func Feedback(sourceURL, code, testErr string) string {
	var b strings.Builder

	siteType := ClassifySite(sourceURL)
	if siteType == SiteActiveCommunities {
		b.WriteString(activeCommunitiesPrologue)
		b.WriteString("\n\n")
	}

	smells := detectSmells(code)
	if len(smells) > 0 {
		b.WriteString("Possible issues:\n")
		for _, s := range smells {
			fmt.Fprintf(&b, "- %s\n", s.issue)
		}
		b.WriteString("\nSuggested fixes:\n")
		for _, s := range smells {
			fmt.Fprintf(&b, "- %s\n", s.fix)
		}
	}

	if testErr != "" {
		b.WriteString("\nTest error:\n")
		b.WriteString(truncate(testErr, maxTestErrorLen))
	}

	return strings.TrimSpace(b.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "… (truncated)"
}
