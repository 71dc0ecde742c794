package explore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	robotstxt "github.com/temoto/robotstxt"
)

// robotsUserAgent identifies the daemon to sites whose robots.txt it
// consults before driving a browser at them (spec §4.2/§4.7).
const robotsUserAgent = "scraperdev"

// robotsAllows reports whether rawURL may be fetched, per that host's
// robots.txt. A nil client (the Explorer field defaults to nil; tests
// leave it unset) opts out of the check entirely, and a missing or
// unreachable robots.txt is treated as allow-all, matching the teacher's
// fetchRobots/FindGroup usage in internal/crawler/map.go: best-effort
// courtesy, not a hard gate, since spec.md names no robots.txt invariant
// to fail a request over.
func robotsAllows(ctx context.Context, client *http.Client, rawURL string) bool {
	if client == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	robotsURL := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return true
	}
	req.Header.Set("User-Agent", robotsUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return true
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return true
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil || data == nil {
		return true
	}
	return data.FindGroup(robotsUserAgent).Test(u.Path)
}

var errRobotsDisallowed = errors.New("explore: robots.txt disallows this path")
