package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"scraperdev/internal/llmextract"
)

// RodDriver launches and owns one local headless Chromium instance,
// exactly as the teacher's newLocalRodBrowser does. cmd/scraperdev opens
// one RodDriver for the worker pool and one for each auxiliary loop (or
// one-shot run), and closes it when that component returns; each loop
// iteration opens and closes its own page on that driver (spec §5, §9
// Design Notes: scope-bound session ownership).
type RodDriver struct {
	headless bool
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewRodDriver launches a local Chromium instance and connects to it.
func NewRodDriver(ctx context.Context, headless bool) (*RodDriver, error) {
	var l *launcher.Launcher
	if path, has := launcher.LookPath(); has {
		l = launcher.New().Bin(path)
	} else {
		l = launcher.New()
	}
	l = l.Headless(headless).NoSandbox(true)

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch chromium: %w", err)
	}

	b := rod.New().ControlURL(u).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("browser: connect to chromium: %w", err)
	}

	return &RodDriver{headless: headless, browser: b, launcher: l}, nil
}

func (d *RodDriver) NewPage(ctx context.Context) (Page, error) {
	p, err := d.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("browser: open page: %w", err)
	}
	return &rodPage{page: p}, nil
}

func (d *RodDriver) Close() error {
	err := d.browser.Close()
	if d.launcher != nil {
		d.launcher.Kill()
	}
	return err
}

type rodPage struct {
	page        *rod.Page
	url         string
	onRequest   func(RequestEvent)
	onResponse  func(ResponseEvent)
	hijackStop  func()
	llmClient   llmextract.Client
	llmProvider llmextract.Provider
	llmModel    string
}

func (p *rodPage) URL() string { return p.url }

func (p *rodPage) Goto(ctx context.Context, target string, opts GotoOptions) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("browser: parse url %q: %w", target, err)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	p.url = u.String()

	if p.onRequest != nil || p.onResponse != nil {
		p.installHooks()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	page := p.page.Timeout(timeout).Context(ctx)

	if err := page.Navigate(p.url); err != nil {
		return fmt.Errorf("browser: navigate to %s: %w", p.url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait for load on %s: %w", p.url, err)
	}
	if opts.WaitUntil == "networkidle" {
		_ = page.WaitIdle(5 * time.Second)
	}
	return nil
}

// installHooks wires a best-effort rod.HijackRequests watcher. Per spec
// §4.2, hook installation failures must never fail the caller — they
// just mean API discovery is skipped for this page.
func (p *rodPage) installHooks() {
	router, err := p.page.HijackRequests()
	if err != nil {
		return
	}

	router.MustAdd("*", func(h *rod.Hijack) {
		reqURL := h.Request.URL().String()
		resourceType := string(h.Request.Type())

		if p.onRequest != nil {
			if resourceType == "XHR" || resourceType == "Fetch" || strings.Contains(reqURL, "/api/") {
				p.onRequest(RequestEvent{URL: reqURL, ResourceType: resourceType})
			}
		}

		if err := h.LoadResponse(nil, true); err != nil {
			return
		}

		if p.onResponse == nil {
			return
		}
		status := h.Response.Payload().ResponseCode
		contentType := h.Response.Headers().Get("Content-Type")
		if status != 200 || !strings.Contains(strings.ToLower(contentType), "application/json") {
			return
		}
		body := []byte(h.Response.Body())
		const maxBody = 10 << 20 // 10MB hard ceiling beyond the spec's 2KB sample (SPEC_FULL.md §11, open question 2)
		if len(body) > maxBody {
			body = body[:maxBody]
		}
		p.onResponse(ResponseEvent{URL: reqURL, Status: status, ContentType: contentType, Body: body})
	})

	go router.Run()
	p.hijackStop = func() { _ = router.Stop() }
}

func (p *rodPage) WaitForTimeout(d time.Duration) {
	time.Sleep(d)
}

func (p *rodPage) HTML() (string, error) {
	html, err := p.page.HTML()
	if err != nil {
		return "", fmt.Errorf("browser: read html: %w", err)
	}
	return html, nil
}

func (p *rodPage) Markdown() (string, error) {
	html, err := p.HTML()
	if err != nil {
		return "", err
	}
	host := ""
	if u, err := url.Parse(p.url); err == nil {
		host = u.Hostname()
	}
	converter := htmlmd.NewConverter(host, true, nil)
	md, err := converter.ConvertString(html)
	if err != nil {
		doc, derr := goquery.NewDocumentFromReader(strings.NewReader(html))
		if derr != nil {
			return "", fmt.Errorf("browser: convert html to markdown: %w", err)
		}
		return doc.Text(), nil
	}
	return md, nil
}

func (p *rodPage) Links() ([]Link, error) {
	html, err := p.HTML()
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("browser: parse html for links: %w", err)
	}

	base, _ := url.Parse(p.url)
	var links []Link
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		linkURL, err := url.Parse(href)
		if err != nil {
			return
		}
		if base != nil && !linkURL.IsAbs() {
			linkURL = base.ResolveReference(linkURL)
		}
		if linkURL.Scheme != "http" && linkURL.Scheme != "https" {
			return
		}
		linkURL.Fragment = ""
		links = append(links, Link{URL: linkURL.String(), Text: strings.TrimSpace(sel.Text())})
	})
	return links, nil
}

func (p *rodPage) Title() (string, error) {
	info, err := p.page.Info()
	if err != nil {
		return "", fmt.Errorf("browser: read page info: %w", err)
	}
	return info.Title, nil
}

func (p *rodPage) TryClick(selector string) bool {
	el, err := p.page.Timeout(500 * time.Millisecond).Element(selector)
	if err != nil {
		return false
	}
	return el.Click(proto.InputMouseButtonLeft, 1) == nil
}

func (p *rodPage) OnRequest(cb func(RequestEvent))   { p.onRequest = cb }
func (p *rodPage) OnResponse(cb func(ResponseEvent)) { p.onResponse = cb }

func (p *rodPage) Extract(ctx context.Context, instruction string, fields []llmextract.FieldSpec) (map[string]any, error) {
	if p.llmClient == nil {
		return nil, fmt.Errorf("browser: no llm client configured for extraction")
	}
	md, err := p.Markdown()
	if err != nil {
		return nil, err
	}
	result, err := p.llmClient.ExtractFields(ctx, llmextract.ExtractRequest{
		URL:      p.url,
		Markdown: md,
		Fields:   fields,
		Prompt:   instruction,
		Provider: p.llmProvider,
		Model:    p.llmModel,
		Timeout:  30 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return result.Fields, nil
}

// WithLLM attaches the AI-extraction facility's backing client to a page.
// Called by internal/explore right after NewPage, since Driver.NewPage
// has no config dependency of its own.
func WithLLM(p Page, client llmextract.Client, provider llmextract.Provider, model string) {
	rp, ok := p.(*rodPage)
	if !ok {
		return
	}
	rp.llmClient = client
	rp.llmProvider = provider
	rp.llmModel = model
}

func (p *rodPage) Close() error {
	if p.hijackStop != nil {
		p.hijackStop()
	}
	return p.page.Close()
}
