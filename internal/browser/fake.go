package browser

import (
	"context"
	"sync"
	"time"

	"scraperdev/internal/llmextract"
)

// FakePage and FakeDriver let the explore/contactloop/discoveryloop
// packages test against canned page content instead of a real browser,
// following the teacher's fakeScraper pattern in crawl_worker_test.go.
type FakePage struct {
	PageURL       string
	HTMLContent   string
	MarkdownText  string
	LinkList      []Link
	ExtractFields map[string]any
	ExtractErr    error
	GotoErr       error
	Requests      []RequestEvent
	Responses     []ResponseEvent
	Closed        bool

	PageTitle        string
	ClickSelectors   map[string]bool
	ClickedSelectors []string

	onRequest  func(RequestEvent)
	onResponse func(ResponseEvent)
}

func (f *FakePage) URL() string { return f.PageURL }

func (f *FakePage) Goto(ctx context.Context, url string, opts GotoOptions) error {
	f.PageURL = url
	for _, r := range f.Requests {
		if f.onRequest != nil {
			f.onRequest(r)
		}
	}
	for _, r := range f.Responses {
		if f.onResponse != nil {
			f.onResponse(r)
		}
	}
	return f.GotoErr
}

func (f *FakePage) WaitForTimeout(d time.Duration) {}

func (f *FakePage) HTML() (string, error) { return f.HTMLContent, nil }

func (f *FakePage) Markdown() (string, error) { return f.MarkdownText, nil }

func (f *FakePage) Links() ([]Link, error) { return f.LinkList, nil }

func (f *FakePage) Title() (string, error) { return f.PageTitle, nil }

func (f *FakePage) TryClick(selector string) bool {
	f.ClickedSelectors = append(f.ClickedSelectors, selector)
	return f.ClickSelectors[selector]
}

func (f *FakePage) OnRequest(cb func(RequestEvent))  { f.onRequest = cb }
func (f *FakePage) OnResponse(cb func(ResponseEvent)) { f.onResponse = cb }

func (f *FakePage) Extract(ctx context.Context, instruction string, fields []llmextract.FieldSpec) (map[string]any, error) {
	if f.ExtractErr != nil {
		return nil, f.ExtractErr
	}
	return f.ExtractFields, nil
}

func (f *FakePage) Close() error {
	f.Closed = true
	return nil
}

type FakeDriver struct {
	Pages  []*FakePage
	Closed bool

	mu   sync.Mutex
	next int
}

func (d *FakeDriver) NewPage(ctx context.Context) (Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.next >= len(d.Pages) {
		return &FakePage{}, nil
	}
	p := d.Pages[d.next]
	d.next++
	return p, nil
}

func (d *FakeDriver) Close() error {
	d.Closed = true
	return nil
}

// PagesOpened reports how many times NewPage has been called, letting
// tests assert a browser session was (or wasn't) opened.
func (d *FakeDriver) PagesOpened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.next
}

var (
	_ Page   = (*FakePage)(nil)
	_ Driver = (*FakeDriver)(nil)
)
