package diagnose

import (
	"strings"
	"testing"
)

// TestFeedback_S2_ActiveCommunitiesPrologue directly encodes scenario
// S2's auto-feedback half.
func TestFeedback_S2_ActiveCommunitiesPrologue(t *testing.T) {
	sourceURL := "https://anc.apm.activecommunities.com/portlandparks/activity/search"
	code := `const cards = document.querySelectorAll(".activity-card");`

	fb := Feedback(sourceURL, code, "")
	if !strings.HasPrefix(fb, "⚠️ CRITICAL: This is an ActiveCommunities site") {
		t.Fatalf("expected feedback to begin with the ActiveCommunities directive, got:\n%s", fb)
	}
	if !strings.Contains(fb, "AI-extraction primitive") {
		t.Fatalf("expected a DOM-selector smell bullet, got:\n%s", fb)
	}
}

func TestClassifySite(t *testing.T) {
	cases := []struct {
		url  string
		want SiteType
	}{
		{"https://anc.apm.activecommunities.com/x", SiteActiveCommunities},
		{"https://secure.example.com/portal", SiteReactSPA},
		{"https://portal.example.com/x", SiteReactSPA},
		{"https://www.example.com/camps", SiteUnknown},
	}
	for _, c := range cases {
		if got := ClassifySite(c.url); got != c.want {
			t.Fatalf("ClassifySite(%q) = %v, want %v", c.url, got, c.want)
		}
	}
}

func TestFeedback_TruncatesTestError(t *testing.T) {
	longErr := strings.Repeat("x", 1000)
	fb := Feedback("https://example.com", "export function scrape() {}", longErr)
	if strings.Contains(fb, strings.Repeat("x", 600)) {
		t.Fatalf("expected test error to be truncated to 500 chars")
	}
	if !strings.Contains(fb, "truncated") {
		t.Fatalf("expected truncation marker")
	}
}

func TestFeedback_NoSmellsNoSiteType_IsEmptyOrJustError(t *testing.T) {
	fb := Feedback("https://example.com", "export async function scrape(page) { return page.extract('x', []); }", "")
	if strings.Contains(fb, "CRITICAL") {
		t.Fatalf("expected no directive prologue for an unknown site type")
	}
}
