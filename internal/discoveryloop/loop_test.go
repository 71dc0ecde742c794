package discoveryloop

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"scraperdev/internal/backend"
	"scraperdev/internal/browser"
	"scraperdev/internal/config"
	"scraperdev/internal/model"
	"scraperdev/internal/searchengine"
)

// scriptedPage replays a fixed list of (title, html, extractFields) per
// Goto call, so one FakePage can stand in for an entire multi-navigation
// session without a real browser.
type scriptedPage struct {
	*browser.FakePage
	steps []step
	step  int
}

type step struct {
	title         string
	html          string
	extractFields map[string]any
	links         []browser.Link
}

func (p *scriptedPage) Goto(ctx context.Context, url string, opts browser.GotoOptions) error {
	if p.step < len(p.steps) {
		s := p.steps[p.step]
		p.PageTitle = s.title
		p.HTMLContent = s.html
		p.ExtractFields = s.extractFields
		p.LinkList = s.links
		p.step++
	}
	return p.FakePage.Goto(ctx, url, opts)
}

func TestLoop_FullThreePhaseRun(t *testing.T) {
	page := &scriptedPage{FakePage: &browser.FakePage{}}
	page.steps = []step{
		// Phase 1, query 1: one known directory, two non-directory camps.
		{title: "camps denver - search", extractFields: map[string]any{"results": []any{
			map[string]any{"url": "https://www.activityhero.com/listing/1", "title": "ActivityHero Denver Camps"},
			map[string]any{"url": "https://campwildwood.example.com", "title": "Camp Wildwood"},
			map[string]any{"url": "https://pinelakeday.example.com", "title": "Pine Lake Day Camp"},
		}}},
		// Phase 1, query 2: a third non-directory camp, pushing the
		// combo-search threshold to 3.
		{title: "summer camps denver - search", extractFields: map[string]any{"results": []any{
			map[string]any{"url": "https://sunnyacres.example.com", "title": "Sunny Acres Camp"},
		}}},
		// Phase 2 combo searches: no new results.
		{title: "combo - search", extractFields: map[string]any{"results": []any{}}},
		{title: "combo - search", extractFields: map[string]any{"results": []any{}}},
		// Phase 3 directory crawl of the ActivityHero result.
		{title: "ActivityHero Denver Camps", links: []browser.Link{
			{URL: "https://orga.example.com", Text: "Org A"},
			{URL: "https://orgb.example.com", Text: "Org B"},
			{URL: "https://facebook.com/activityhero", Text: "Follow us"},
		}},
	}

	driver := &browser.FakeDriver{Pages: []*browser.FakePage{page.FakePage}}
	fake := backend.NewFakeClient()
	task := model.DiscoveryTask{ID: uuid.New(), SearchQueries: []string{"camps denver", "summer camps denver"}}
	fake.DiscoveryTasks = []model.DiscoveryTask{task}

	engine := searchengine.NewEngine(config.SearchConfig{Searxng: config.SearxngConfig{BaseURL: "https://searx.example"}})
	loop := &Loop{Backend: fake, Driver: scriptedDriver{driver, page}, Engine: engine, SessionID: "worker-1"}

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	foundCall := false
	for _, c := range fake.Calls {
		if c == "processDiscoveryResults" {
			foundCall = true
		}
	}
	if !foundCall {
		t.Fatalf("expected processDiscoveryResults to be called")
	}

	want := map[string]bool{
		"https://www.activityhero.com/listing/1": true,
		"https://campwildwood.example.com":       true,
		"https://pinelakeday.example.com":         true,
		"https://sunnyacres.example.com":          true,
		"https://orga.example.com":                true,
		"https://orgb.example.com":                true,
	}
	got := make(map[string]bool)
	for _, u := range fake.ProcessedDiscoveryURLs {
		got[u] = true
	}
	for u := range want {
		if !got[u] {
			t.Errorf("expected discovered URL %s, got set %+v", u, got)
		}
	}
	if got["https://facebook.com/activityhero"] {
		t.Errorf("expected the social-media link to be excluded from discovered URLs")
	}
}

func TestLoop_NoPendingTasksIsNoop(t *testing.T) {
	fake := backend.NewFakeClient()
	driver := &browser.FakeDriver{}
	engine := searchengine.NewEngine(config.SearchConfig{})
	loop := &Loop{Backend: fake, Driver: driver, Engine: engine}

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if driver.PagesOpened() != 0 {
		t.Fatalf("expected no browser page to be opened when nothing is pending")
	}
}

func TestLoop_FailureReportsFailDiscoveryTask(t *testing.T) {
	page := &browser.FakePage{GotoErr: context.DeadlineExceeded}
	driver := &browser.FakeDriver{Pages: []*browser.FakePage{page}}
	fake := backend.NewFakeClient()
	task := model.DiscoveryTask{ID: uuid.New(), SearchQueries: []string{"camps denver"}}
	fake.DiscoveryTasks = []model.DiscoveryTask{task}

	engine := searchengine.NewEngine(config.SearchConfig{Searxng: config.SearxngConfig{BaseURL: "https://searx.example"}})
	loop := &Loop{Backend: fake, Driver: driver, Engine: engine}

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	found := false
	for _, c := range fake.Calls {
		if c == "failDiscoveryTask" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected failDiscoveryTask to be called on navigation failure")
	}
}

// scriptedDriver always hands back the same scriptedPage regardless of
// how many times NewPage is called, since the loop opens exactly one
// page per Run and drives every phase's navigation through it.
type scriptedDriver struct {
	*browser.FakeDriver
	page *scriptedPage
}

func (d scriptedDriver) NewPage(ctx context.Context) (browser.Page, error) {
	return d.page, nil
}
