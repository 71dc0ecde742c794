package explore

import (
	"reflect"
	"testing"

	"scraperdev/internal/browser"
)

func TestExtractDirectoryLinks_IdempotentModuloDedup(t *testing.T) {
	links := []browser.Link{
		{URL: "https://www.kidsoutandabout.com/content/portland-camps/art-camp-2026", Text: "Art Camp"},
		{URL: "https://otherhost.example/camps/science-camp", Text: "Science Camp"},
		{URL: "https://otherhost.example/camps/another-camp", Text: "Another camp listing"},
		{URL: "https://facebook.com/someorg", Text: "Follow us"},
		{URL: "https://www.kidsoutandabout.com/search?q=camps", Text: "search"},
	}
	base := "https://www.kidsoutandabout.com/content/portland-summer-camps-guide"

	first := ExtractDirectoryLinks(base, links)
	second := ExtractDirectoryLinks(base, links)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected idempotent extraction, got %v vs %v", first, second)
	}

	// otherhost.example should appear once (domain-deduped as external).
	externalCount := 0
	for _, l := range first {
		if !l.IsInternal {
			externalCount++
		}
	}
	if externalCount != 1 {
		t.Fatalf("expected 1 deduped external domain, got %d", externalCount)
	}
}

func TestIsLikelyDirectory_Allowlist(t *testing.T) {
	if !IsLikelyDirectory("https://www.kidsoutandabout.com/content/portland-summer-camps-guide", "") {
		t.Fatalf("expected allowlisted host to be flagged as directory")
	}
}

func TestIsLikelyDirectory_EstimatedCount(t *testing.T) {
	if !IsLikelyDirectory("https://example.com/camps", "45") {
		t.Fatalf("expected estimated count > 20 to flag directory")
	}
	if IsLikelyDirectory("https://example.com/camps", "5") {
		t.Fatalf("expected estimated count <= 20 to not flag directory")
	}
}
