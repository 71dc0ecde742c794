package searchengine

import (
	"strings"
	"testing"

	"scraperdev/internal/config"
)

func TestQueryURL_EncodesQuery(t *testing.T) {
	e := NewEngine(config.SearchConfig{Searxng: config.SearxngConfig{BaseURL: "https://searx.example"}})
	got := e.QueryURL("kids summer camp Denver")
	if !strings.HasPrefix(got, "https://searx.example/search?") {
		t.Fatalf("unexpected base: %s", got)
	}
	if !strings.Contains(got, "q=kids+summer+camp+Denver") {
		t.Fatalf("expected encoded query, got %s", got)
	}
}

func TestComboQuery_QuotesBothNames(t *testing.T) {
	got := ComboQuery("Camp Wildwood", "Pine Lake Day Camp")
	want := `"Camp Wildwood" "Pine Lake Day Camp"`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestIsInterstitial(t *testing.T) {
	cases := map[string]bool{
		"Please verify you are human - captcha":  true,
		"Before you continue to Google Search":   true,
		"Cookie Consent Required":                true,
		"Kids Summer Camps Near Denver, CO":       false,
	}
	for title, want := range cases {
		if got := IsInterstitial(title); got != want {
			t.Errorf("IsInterstitial(%q) = %v, want %v", title, got, want)
		}
	}
}

func TestIsDenied(t *testing.T) {
	if !IsDenied("en.wikipedia.org") {
		t.Fatalf("expected wikipedia.org to be denied")
	}
	if IsDenied("campwildwood.com") {
		t.Fatalf("expected a plain camp domain to not be denied")
	}
}

func TestIsKnownDirectory(t *testing.T) {
	if !IsKnownDirectory("www.ActivityHero.com") {
		t.Fatalf("expected case-insensitive match against the allowlist")
	}
	if IsKnownDirectory("campwildwood.com") {
		t.Fatalf("expected a non-directory camp site to not match")
	}
}

func TestLooksLikeListicle(t *testing.T) {
	if !LooksLikeListicle("https://example.com/best-summer-camps", "") {
		t.Fatalf("expected URL match")
	}
	if !LooksLikeListicle("https://example.com/x", "The Ultimate Guide to Summer Camps") {
		t.Fatalf("expected title match")
	}
	if LooksLikeListicle("https://campwildwood.com/register", "Register Now") {
		t.Fatalf("expected no match for an ordinary registration page")
	}
}
