// Package discoveryloop implements the market-discovery loop (spec
// §4.9): claim a DiscoveryTask, run a search query sweep and combo
// searches, crawl a handful of directory pages, then hand the union of
// discovered organization URLs to the backend.
package discoveryloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"scraperdev/internal/backend"
	"scraperdev/internal/browser"
	"scraperdev/internal/searchengine"
)

const (
	maxTaskErrorLen    = 500
	maxDirectoryCrawls = 5
	comboThreshold     = 3
	defaultQueryDelay  = 2 * time.Second
)

// Loop drives one pass of the market-discovery loop. At most one
// DiscoveryTask is claimed and processed per Run call (spec §4.9).
type Loop struct {
	Backend    backend.Client
	Driver     browser.Driver
	Engine     *searchengine.Engine
	SessionID  string
	QueryDelay time.Duration
	NavTimeout time.Duration
	PostLoad   time.Duration
	Logger     *slog.Logger
}

func (l *Loop) Run(ctx context.Context) error {
	tasks, err := l.Backend.GetPendingDiscoveryTasks(ctx, 1)
	if err != nil {
		return fmt.Errorf("discoveryloop: get pending tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil
	}
	task := tasks[0]

	if err := l.Backend.ClaimDiscoveryTask(ctx, task.ID, l.SessionID); err != nil {
		if errors.Is(err, backend.ErrAlreadyClaimed) {
			return nil
		}
		return fmt.Errorf("discoveryloop: claim task %s: %w", task.ID, err)
	}

	page, err := l.Driver.NewPage(ctx)
	if err != nil {
		l.fail(ctx, task.ID, err)
		return nil
	}
	defer page.Close()

	session := &session{
		loop:       l,
		page:       page,
		seenDomain: make(map[string]bool),
	}

	directoriesFound, nonDirectory, err := session.phase1(ctx, task.SearchQueries)
	if err != nil {
		l.fail(ctx, task.ID, err)
		return nil
	}

	if err := l.Backend.UpdateDiscoveryProgress(ctx, task.ID, directoriesFound, len(nonDirectory)); err != nil {
		l.logf("update progress failed", "task", task.ID, "error", err)
	}

	if len(nonDirectory) >= comboThreshold {
		if err := session.phase2(ctx, nonDirectory); err != nil {
			l.fail(ctx, task.ID, err)
			return nil
		}
	}

	if err := session.phase3(ctx); err != nil {
		l.fail(ctx, task.ID, err)
		return nil
	}

	discovered := make([]string, 0, len(session.results))
	for _, r := range session.results {
		discovered = append(discovered, r.URL)
	}

	if err := l.Backend.ProcessDiscoveryResults(ctx, task.ID, discovered); err != nil {
		return fmt.Errorf("discoveryloop: process discovery results for %s: %w", task.ID, err)
	}
	return nil
}

func (l *Loop) fail(ctx context.Context, taskID uuid.UUID, cause error) {
	msg := cause.Error()
	if len(msg) > maxTaskErrorLen {
		msg = msg[:maxTaskErrorLen]
	}
	if err := l.Backend.FailDiscoveryTask(ctx, taskID, msg); err != nil {
		l.logf("fail discovery task failed", "task", taskID, "error", err)
	}
}

func (l *Loop) logf(msg string, args ...any) {
	if l.Logger != nil {
		l.Logger.Warn(msg, args...)
	}
}

// session carries per-run accumulator state across the three phases.
type session struct {
	loop       *Loop
	page       browser.Page
	seenDomain map[string]bool
	results    []found
}

func (s *session) navigate(ctx context.Context, target string) error {
	navTimeout := s.loop.NavTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	if err := s.page.Goto(ctx, target, browser.GotoOptions{WaitUntil: "networkidle", Timeout: navTimeout}); err != nil {
		return err
	}
	postLoad := s.loop.PostLoad
	if postLoad <= 0 {
		postLoad = 2 * time.Second
	}
	s.page.WaitForTimeout(postLoad)
	return s.dismissInterstitial()
}

func (s *session) dismissInterstitial() error {
	title, err := s.page.Title()
	if err != nil {
		return nil
	}
	if !searchengine.IsInterstitial(title) {
		return nil
	}
	for _, sel := range searchengine.AcceptButtonSelectors {
		if s.page.TryClick(sel) {
			break
		}
	}
	return nil
}

// phase1 runs the query sweep: search-engine navigation, AI/DOM
// extraction, normalization, classification, and progress tallying
// (spec §4.9 Phase 1).
func (s *session) phase1(ctx context.Context, queries []string) (directoriesFound int, nonDirectory []found, err error) {
	for i, q := range queries {
		if err := s.navigate(ctx, s.loop.Engine.QueryURL(q)); err != nil {
			return directoriesFound, nonDirectory, fmt.Errorf("query %q: %w", q, err)
		}
		results, err := extractResults(ctx, s.page)
		if err != nil {
			return directoriesFound, nonDirectory, fmt.Errorf("extract results for %q: %w", q, err)
		}
		fresh := normalizeAndFilter(results, s.seenDomain)
		for _, r := range fresh {
			host := hostOf(r.URL)
			if searchengine.IsKnownDirectory(host) {
				directoriesFound++
			} else {
				nonDirectory = append(nonDirectory, r)
			}
		}
		s.results = append(s.results, fresh...)

		if i < len(queries)-1 {
			delay := s.loop.QueryDelay
			if delay <= 0 {
				delay = defaultQueryDelay
			}
			if delay > 0 {
				s.page.WaitForTimeout(delay)
			}
		}
	}
	return directoriesFound, nonDirectory, nil
}

// phase2 runs the 2 combo-name searches (spec §4.9 Phase 2).
func (s *session) phase2(ctx context.Context, nonDirectory []found) error {
	if len(nonDirectory) < 2 {
		return nil
	}
	pairs := [][2]string{{nonDirectory[0].Title, nonDirectory[1].Title}}
	if len(nonDirectory) >= 3 {
		pairs = append(pairs, [2]string{nonDirectory[1].Title, nonDirectory[2].Title})
	} else {
		pairs = append(pairs, pairs[0])
	}

	for _, pair := range pairs {
		query := searchengine.ComboQuery(pair[0], pair[1])
		if err := s.navigate(ctx, s.loop.Engine.QueryURL(query)); err != nil {
			return fmt.Errorf("combo query %q: %w", query, err)
		}
		results, err := extractResults(ctx, s.page)
		if err != nil {
			return fmt.Errorf("extract combo results: %w", err)
		}
		s.results = append(s.results, normalizeAndFilter(results, s.seenDomain)...)
	}
	return nil
}

// phase3 crawls up to 5 directory/listicle candidates for external
// outbound organization links (spec §4.9 Phase 3).
func (s *session) phase3(ctx context.Context) error {
	var candidates []found
	for _, r := range s.results {
		host := hostOf(r.URL)
		if searchengine.IsKnownDirectory(host) || searchengine.LooksLikeListicle(r.URL, r.Title) {
			candidates = append(candidates, r)
		}
		if len(candidates) >= maxDirectoryCrawls {
			break
		}
	}

	for _, c := range candidates {
		if err := s.navigate(ctx, c.URL); err != nil {
			s.loop.logf("directory crawl navigation failed", "url", c.URL, "error", err)
			continue
		}
		links, err := externalLinks(s.page, hostOf(c.URL))
		if err != nil {
			s.loop.logf("directory crawl link extraction failed", "url", c.URL, "error", err)
			continue
		}
		for _, link := range links {
			host := hostOf(link)
			if host == "" || s.seenDomain[host] {
				continue
			}
			s.seenDomain[host] = true
			s.results = append(s.results, found{URL: link})
		}
	}
	return nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
