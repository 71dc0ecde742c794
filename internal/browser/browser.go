// Package browser is the daemon's binding to a headless browser. The
// wire-level driver (goto/waitForTimeout/evaluate/extract, per-page
// request/response hooks) is the opaque collaborator spec §1/§6 treats
// as out of scope; RodDriver below is a concrete local implementation
// grounded on the teacher's internal/scraper/rod_scraper.go, in the same
// way the teacher itself launches a local headless Chromium rather than
// talking to a separate browser microservice.
package browser

import (
	"context"
	"time"

	"scraperdev/internal/llmextract"
)

// RequestEvent is delivered to an installed request hook (spec §4.2).
type RequestEvent struct {
	URL          string
	ResourceType string // "xhr", "fetch", "document", ...
}

// ResponseEvent is delivered to an installed response hook.
type ResponseEvent struct {
	URL         string
	Status      int
	ContentType string
	Body        []byte
}

// GotoOptions mirrors the opaque driver's goto(url, {waitUntil, timeout}).
type GotoOptions struct {
	WaitUntil string // "load", "networkidle"
	Timeout   time.Duration
}

// Page is one browser tab/page.
type Page interface {
	URL() string
	Goto(ctx context.Context, url string, opts GotoOptions) error
	WaitForTimeout(d time.Duration)
	HTML() (string, error)
	Markdown() (string, error)
	Links() ([]Link, error)

	// Title reports the current document title, used by the market-
	// discovery loop to detect consent/captcha interstitials (spec §4.9).
	Title() (string, error)

	// TryClick attempts to click the first element matching selector,
	// returning false on any error (no such element, not clickable,
	// timeout). Callers are expected to try a broad list of selectors and
	// continue regardless (spec §4.9 Phase 1).
	TryClick(selector string) bool

	// OnRequest/OnResponse install best-effort network hooks used by the
	// exploration stage's API-discovery phase (spec §4.2). Implementations
	// that cannot support hooks must be no-ops, never errors ("skip API
	// discovery silently").
	OnRequest(cb func(RequestEvent))
	OnResponse(cb func(ResponseEvent))

	// Extract is the AI-extraction facility: it renders the page to
	// markdown and asks the configured LLM to fill the requested fields.
	Extract(ctx context.Context, instruction string, fields []llmextract.FieldSpec) (map[string]any, error)

	Close() error
}

// Link is one <a> extracted from rendered HTML.
type Link struct {
	URL  string
	Text string
}

// Driver opens pages against a single browser instance.
type Driver interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}
