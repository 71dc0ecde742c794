package explore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"scraperdev/internal/backend"
	"scraperdev/internal/browser"
	"scraperdev/internal/llmextract"
	"scraperdev/internal/model"
)

// TestExplore_DirectorySite covers scenario S3: a directory page yields
// capped internal/external links, a requestScraperDevelopment call per
// link, and a terminal markDirectoryProcessed — with no code generation.
func TestExplore_DirectorySite(t *testing.T) {
	fake := backend.NewFakeClient()
	links := make([]browser.Link, 0, 70)
	for i := 0; i < 23; i++ {
		links = append(links, browser.Link{URL: "https://external-" + itoa(i) + ".example/camps/x", Text: "Camp"})
	}
	for i := 0; i < 40; i++ {
		links = append(links, browser.Link{URL: "https://www.kidsoutandabout.com/camps/site-" + itoa(i), Text: "Camp listing"})
	}

	page := &browser.FakePage{
		ExtractFields: map[string]any{
			"organizationType":   "single_list",
			"estimatedCampCount": "63",
		},
		LinkList: links,
	}
	driver := &browser.FakeDriver{Pages: []*browser.FakePage{page}}
	llm := &llmextract.FakeClient{}

	explorer := &Explorer{Backend: fake, Driver: driver, LLM: llm}

	req := &model.DevelopmentRequest{
		ID:         uuid.New(),
		SourceName: "Portland Summer Camps Guide",
		SourceURL:  "https://www.kidsoutandabout.com/content/portland-summer-camps-guide",
	}

	outcome, err := explorer.Explore(context.Background(), req)
	if err != nil {
		t.Fatalf("Explore returned error: %v", err)
	}
	if !outcome.IsDirectory {
		t.Fatalf("expected directory outcome")
	}
	if len(fake.CreatedRequests) != 63 {
		t.Fatalf("expected 63 created requests, got %d", len(fake.CreatedRequests))
	}

	found := false
	for _, c := range fake.Calls {
		if c == "markDirectoryProcessed" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected markDirectoryProcessed to be called")
	}
	for _, c := range fake.Calls {
		if c == "updateScraperCode" {
			t.Fatalf("directory requests must not reach code generation")
		}
	}
}

// TestExplore_APIDiscoveryFeedsExploration covers scenario S4.
func TestExplore_APIDiscoveryFeedsExploration(t *testing.T) {
	fake := backend.NewFakeClient()
	page := &browser.FakePage{
		ExtractFields: map[string]any{"organizationType": "by_category"},
		Responses: []browser.ResponseEvent{
			{
				URL:         "https://api.example.com/v2/programs?season=2026",
				Status:      200,
				ContentType: "application/json",
				Body:        []byte(`{"programs":[{"name":"Art Camp","startDate":"2026-06-15","registration":"open","price":250,"age":8,"enroll":true}]}`),
			},
		},
	}
	driver := &browser.FakeDriver{Pages: []*browser.FakePage{page}}
	llm := &llmextract.FakeClient{}

	explorer := &Explorer{Backend: fake, Driver: driver, LLM: llm}
	req := &model.DevelopmentRequest{
		ID:         uuid.New(),
		SourceName: "Example Camps",
		SourceURL:  "https://example.com/programs",
	}

	outcome, err := explorer.Explore(context.Background(), req)
	if err != nil {
		t.Fatalf("Explore returned error: %v", err)
	}
	if len(outcome.Exploration.DiscoveredApis) != 1 {
		t.Fatalf("expected 1 discovered api, got %d", len(outcome.Exploration.DiscoveredApis))
	}
	api := outcome.Exploration.DiscoveredApis[0]
	if api.Method != "GET" || api.ContentType != "application/json" {
		t.Fatalf("unexpected api record: %+v", api)
	}
	if api.MatchCount < 5 {
		t.Fatalf("expected matchCount >= 5, got %d", api.MatchCount)
	}
}

// TestExplore_ReusesExistingExploration covers spec §4.2 step 1.
func TestExplore_ReusesExistingExploration(t *testing.T) {
	fake := backend.NewFakeClient()
	driver := &browser.FakeDriver{} // must never be called
	req := &model.DevelopmentRequest{
		ID:              uuid.New(),
		SourceURL:       "https://example.com",
		SiteExploration: &model.SiteExploration{SiteType: "by_location", ExploredAt: time.Now()},
	}
	explorer := &Explorer{Backend: fake, Driver: driver}

	outcome, err := explorer.Explore(context.Background(), req)
	if err != nil {
		t.Fatalf("Explore returned error: %v", err)
	}
	if outcome.Exploration.SiteType != "by_location" {
		t.Fatalf("expected cached exploration reused verbatim")
	}
	if driver.PagesOpened() != 0 {
		t.Fatalf("expected no browser page to be opened")
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := ""
	for i > 0 {
		digits = string(rune('0'+i%10)) + digits
		i /= 10
	}
	return digits
}
