package prompt

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"scraperdev/internal/model"
)

func TestBuild_StripsAbsentSections(t *testing.T) {
	req := &model.DevelopmentRequest{
		ID:         uuid.New(),
		SourceName: "Example Camps",
		SourceURL:  "https://example.com",
	}
	out, err := Build(Inputs{Request: req, OutputFile: "/tmp/out.ts"})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if strings.Contains(out, "Feedback from the previous attempt") {
		t.Fatalf("expected feedback section to be stripped when there is no feedback history")
	}
	if strings.Contains(out, "Previous version of the scraper") {
		t.Fatalf("expected previous-code section to be stripped when there is no prior code")
	}
	if !strings.Contains(out, "Example Camps") || !strings.Contains(out, "https://example.com") {
		t.Fatalf("expected source name/url substituted, got:\n%s", out)
	}
}

func TestBuild_IncludesFeedbackAndPreviousCode(t *testing.T) {
	req := &model.DevelopmentRequest{
		ID:                   uuid.New(),
		SourceName:           "Example Camps",
		SourceURL:            "https://example.com",
		GeneratedScraperCode: "export function scrape() {}",
		FeedbackHistory: []model.FeedbackEntry{
			{Feedback: "zero sessions returned, selector likely stale", ScraperVersionBefore: 1},
		},
	}
	out, err := Build(Inputs{Request: req, OutputFile: "/tmp/out.ts"})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if !strings.Contains(out, "attempt #2") {
		t.Fatalf("expected feedback version incremented, got:\n%s", out)
	}
	if !strings.Contains(out, "selector likely stale") {
		t.Fatalf("expected feedback text included")
	}
	if !strings.Contains(out, "export function scrape() {}") {
		t.Fatalf("expected previous code included")
	}
}

func TestSiteGuidance_ActiveCommunities(t *testing.T) {
	g := SiteGuidance("https://anc.apm.activecommunities.com/somecity/activity/search")
	if !strings.Contains(g, "ActiveCommunities") {
		t.Fatalf("expected ActiveCommunities guidance, got %q", g)
	}
}

func TestSiteGuidance_NoMatchIsEmpty(t *testing.T) {
	g := SiteGuidance("https://www.somecamp.example/programs")
	if g != "" {
		t.Fatalf("expected no guidance for an unmatched host, got %q", g)
	}
}

func TestExplorationSummary_IncludesDiscoveredAPISkeleton(t *testing.T) {
	exp := &model.SiteExploration{
		SiteType: "by_category",
		DiscoveredApis: []model.DiscoveredApi{
			{URL: "https://api.example.com/v2/programs", Method: "GET", StructureHint: "Object with keys: programs", MatchCount: 6, URLPattern: "https://api.example.com/v2/programs"},
		},
	}
	out := ExplorationSummary(exp)
	if !strings.Contains(out, "fetch(") {
		t.Fatalf("expected a fetch() skeleton in exploration summary, got:\n%s", out)
	}
	if !strings.Contains(out, "Strongly prefer calling these directly") {
		t.Fatalf("expected strong API preference directive")
	}
}

func TestExplorationSummary_NilIsEmpty(t *testing.T) {
	if ExplorationSummary(nil) != "" {
		t.Fatalf("expected empty summary for nil exploration")
	}
}
