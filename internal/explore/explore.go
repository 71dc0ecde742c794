// Package explore implements the exploration stage (spec §4.2): before
// any code generation, classify the site and collect hints (locations,
// categories, discovered APIs, directory links) that shape the prompt.
// Grounded on the teacher's internal/crawler/map.go for link-walking
// idiom and internal/scraper/rod_scraper.go for the browser-session
// lifecycle.
package explore

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"scraperdev/internal/backend"
	"scraperdev/internal/browser"
	"scraperdev/internal/llmextract"
	"scraperdev/internal/model"
)

// Outcome is what Explore hands back to the worker pipeline.
type Outcome struct {
	Exploration *model.SiteExploration
	// IsDirectory, when true, tells the caller to stop the pipeline here:
	// the request has already been marked directory-processed and no
	// code generation should be attempted (spec §4.2 step 4).
	IsDirectory bool
}

// Explorer drives the browser-based classification. One Explorer is
// constructed per daemon process and reused across requests; each call
// to Explore opens and closes its own browser session (spec §9 Design
// Notes: scope-bound session ownership).
type Explorer struct {
	Backend     backend.Client
	Driver      browser.Driver
	LLM         llmextract.Client
	LLMProvider llmextract.Provider
	LLMModel    string
	NavTimeout  time.Duration
	PostLoadSleep time.Duration
	Logger      *slog.Logger

	// RobotsClient performs the robots.txt courtesy check (spec §4.2). A
	// nil client (the default; production wiring sets one via
	// cmd/scraperdev) skips the check entirely.
	RobotsClient *http.Client
}

var classificationFields = []llmextract.FieldSpec{
	{Name: "organizationType", Type: "string", Description: "one of by_location, by_category, single_list, or unknown"},
	{Name: "locations", Type: "array", Description: "locations/sites this organization operates, if any"},
	{Name: "categories", Type: "array", Description: "program categories offered, if any"},
	{Name: "externalRegistration", Type: "object", Description: "third-party registration platform, if the site defers to one"},
	{Name: "navigationInstructions", Type: "array", Description: "notes on how to navigate to program listings"},
	{Name: "estimatedCampCount", Type: "string", Description: "a rough estimate of the number of distinct camp offerings"},
}

var locationFields = []llmextract.FieldSpec{
	{Name: "locations", Type: "array", Description: "array of {locationName, url, siteIdOrParam} triples, one per site/location"},
}

// Explore runs the full exploration protocol for req and, when the site
// turns out to be a directory, creates the follow-on per-site requests
// and marks req directory-processed (spec §4.2 steps 3-4).
func (e *Explorer) Explore(ctx context.Context, req *model.DevelopmentRequest) (*Outcome, error) {
	if req.SiteExploration != nil {
		return &Outcome{Exploration: req.SiteExploration, IsDirectory: req.SiteExploration.IsDirectory}, nil
	}
	if req.GeneratedScraperCode != "" {
		// A prior attempt already exists with no cached exploration;
		// spec §4.2 step 2 only drives the browser when there is no
		// prior code either, so we proceed with an empty exploration.
		return &Outcome{Exploration: &model.SiteExploration{SiteType: "unknown", ExploredAt: time.Now()}}, nil
	}

	exploration, err := e.driveBrowser(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := e.Backend.SaveExploration(ctx, req.ID, *exploration); err != nil {
		return nil, fmt.Errorf("explore: save exploration: %w", err)
	}

	if !exploration.IsDirectory || len(exploration.DirectoryLinks) == 0 {
		return &Outcome{Exploration: exploration}, nil
	}

	internal, external := SplitCapped(exploration.DirectoryLinks)
	created := 0
	for _, l := range append(append([]model.DirectoryLink(nil), external...), internal...) {
		note := fmt.Sprintf("discovered via parent directory %s", req.SourceURL)
		if _, err := e.Backend.RequestScraperDevelopment(ctx, directorySourceName(l), l.URL, req.CityID, note, "directory-loop"); err != nil {
			if e.Logger != nil {
				e.Logger.Warn("explore: failed to create sub-request for directory link", "url", l.URL, "error", err)
			}
			continue
		}
		created++
	}

	linksFound := len(internal) + len(external)
	notes := fmt.Sprintf("directory with %d links (%d internal, %d external)", linksFound, len(internal), len(external))
	if err := e.Backend.MarkDirectoryProcessed(ctx, req.ID, notes, linksFound, created); err != nil {
		return nil, fmt.Errorf("explore: mark directory processed: %w", err)
	}

	return &Outcome{Exploration: exploration, IsDirectory: true}, nil
}

func directorySourceName(l model.DirectoryLink) string {
	if l.Name != "" {
		return l.Name
	}
	return l.URL
}

func (e *Explorer) driveBrowser(ctx context.Context, req *model.DevelopmentRequest) (*model.SiteExploration, error) {
	page, err := e.Driver.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("explore: open page: %w", err)
	}
	defer page.Close()

	browser.WithLLM(page, e.LLM, e.LLMProvider, e.LLMModel)

	searchTerms := DeriveSearchTerms(req.SourceName, req.SourceURL)
	watcher := newAPIWatcher(searchTerms)
	page.OnRequest(func(browser.RequestEvent) {}) // best-effort; installation failures are silent (spec §4.2)
	page.OnResponse(watcher.observe)

	if !robotsAllows(ctx, e.RobotsClient, req.SourceURL) {
		return nil, fmt.Errorf("explore: %s: %w", req.SourceURL, errRobotsDisallowed)
	}

	navTimeout := e.NavTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	if err := page.Goto(ctx, req.SourceURL, browser.GotoOptions{WaitUntil: "networkidle", Timeout: navTimeout}); err != nil {
		return nil, fmt.Errorf("explore: navigate to %s: %w", req.SourceURL, err)
	}

	sleep := e.PostLoadSleep
	if sleep <= 0 {
		sleep = 3 * time.Second
	}
	page.WaitForTimeout(sleep)

	classification, err := page.Extract(ctx, classificationInstruction, classificationFields)
	if err != nil {
		return nil, fmt.Errorf("explore: classify page: %w", err)
	}

	exploration := &model.SiteExploration{
		SiteType:           stringField(classification, "organizationType", "unknown"),
		Categories:         stringSliceField(classification, "categories"),
		EstimatedCampCount: stringField(classification, "estimatedCampCount", ""),
		APISearchTerm:      joinTerms(searchTerms),
		DiscoveredApis:     watcher.Sorted(),
		ExploredAt:         time.Now(),
	}
	exploration.Locations = locationsFromField(classification["locations"])
	exploration.HasMultipleLocations = len(exploration.Locations) > 1
	exploration.HasCategories = len(exploration.Categories) > 0
	exploration.RegistrationSystem = registrationFromField(classification["externalRegistration"])
	exploration.NavigationNotes = stringSliceField(classification, "navigationInstructions")

	if exploration.HasMultipleLocations {
		locResult, err := page.Extract(ctx, locationInstruction, locationFields)
		if err == nil {
			if locs := locationsFromField(locResult["locations"]); len(locs) > 0 {
				exploration.Locations = locs
			}
		}
	}

	if IsLikelyDirectory(req.SourceURL, exploration.EstimatedCampCount) {
		exploration.IsDirectory = true
		links, err := page.Links()
		if err == nil {
			exploration.DirectoryLinks = ExtractDirectoryLinks(req.SourceURL, links)
		}
	}

	return exploration, nil
}

const classificationInstruction = "Classify this camp/program website's navigation topology: what " +
	"kind of organization is it, does it serve multiple locations or categories, does it defer " +
	"registration to a third-party platform, and roughly how many distinct camp offerings does it have?"

const locationInstruction = "List every location or site this organization operates, each with its " +
	"name, a URL if one is specific to that location, and any site id or URL parameter that " +
	"identifies it."

func stringField(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func stringSliceField(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func locationsFromField(raw any) []model.Location {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var out []model.Location
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		loc := model.Location{Name: stringField(m, "name", stringField(m, "locationName", ""))}
		if u, ok := m["url"].(string); ok && u != "" {
			loc.URL = &u
		}
		if id, ok := m["siteId"].(string); ok && id != "" {
			loc.SiteID = &id
		} else if id, ok := m["siteIdOrParam"].(string); ok && id != "" {
			loc.SiteID = &id
		}
		out = append(out, loc)
	}
	return out
}

func registrationFromField(raw any) *model.ExternalRegistration {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	reg := &model.ExternalRegistration{
		Platform: stringField(m, "platform", ""),
		BaseURL:  stringField(m, "baseUrl", ""),
	}
	if reg.Platform == "" && reg.BaseURL == "" {
		return nil
	}
	reg.URLParameters = stringSliceField(m, "urlParameters")
	return reg
}

func joinTerms(terms []string) string {
	out := ""
	for i, t := range terms {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}
