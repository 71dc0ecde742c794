package directoryloop

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"scraperdev/internal/backend"
	"scraperdev/internal/browser"
	"scraperdev/internal/model"
)

// TestLoop_S6_403Fallback directly encodes scenario S6: an HTTP 403
// triggers the browser fallback, which renders a page with 12 unique
// external domains.
func TestLoop_S6_403Fallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	var anchors string
	for i := 0; i < 12; i++ {
		anchors += fmt.Sprintf(`<a href="https://org-%d.example.com/camps">Camp %d</a>`, i, i)
	}
	anchors += `<a href="https://facebook.com/someorg">Follow us</a>`
	anchors += `<a href="#">skip</a>`
	anchors += `<a href="mailto:hi@example.com">email</a>`

	page := &browser.FakePage{HTMLContent: "<html><body>" + anchors + "</body></html>"}
	driver := &browser.FakeDriver{Pages: []*browser.FakePage{page}}

	fake := backend.NewFakeClient()
	item := model.DirectoryQueueItem{ID: uuid.New(), URL: srv.URL + "/list"}
	fake.Directories = []model.DirectoryQueueItem{item}

	loop := &Loop{Backend: fake, Driver: driver, HTTPClient: srv.Client()}

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if !page.Closed {
		t.Fatalf("expected the fallback browser page to be closed")
	}

	found := false
	for _, c := range fake.Calls {
		if c == "completeQueueItem" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected completeQueueItem to be called")
	}

	links := ExtractLinks(item.URL, page.HTMLContent, "", "")
	if len(links) != 12 {
		t.Fatalf("expected 12 unique external domains, got %d: %+v", len(links), links)
	}
}

func TestExtractLinks_DedupesByDomainAndSkipsExcluded(t *testing.T) {
	html := `
		<a href="https://camps.example.com/a">A</a>
		<a href="https://camps.example.com/b">B</a>
		<a href="https://other.example.com/c">C</a>
		<a href="https://yelp.com/biz/123">Reviews</a>
		<a href="https://sourcehost.com/about">About</a>
		<a href="/relative">relative</a>
	`
	links := ExtractLinks("https://sourcehost.com/list", html, "", "")
	if len(links) != 2 {
		t.Fatalf("expected 2 deduped external domains, got %d: %+v", len(links), links)
	}
}
