package directoryloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"scraperdev/internal/backend"
	"scraperdev/internal/browser"
	"scraperdev/internal/model"
)

const itemLimit = 3

// Loop drives one pass of the directory loop (spec §4.7).
type Loop struct {
	Backend       backend.Client
	Driver        browser.Driver
	HTTPClient    *http.Client
	NavTimeout    time.Duration
	PostLoadSleep time.Duration
	Logger        *slog.Logger
}

// Run fetches up to 3 pending directory items and processes each in
// turn. It is non-reentrant by construction: callers are expected to
// skip a tick if the previous Run call is still in flight (spec §5).
func (l *Loop) Run(ctx context.Context) error {
	items, err := l.Backend.GetPendingDirectories(ctx, itemLimit)
	if err != nil {
		return fmt.Errorf("directoryloop: get pending directories: %w", err)
	}

	for _, item := range items {
		if err := l.Backend.ClaimQueueItem(ctx, item.ID); err != nil {
			if errors.Is(err, backend.ErrAlreadyClaimed) {
				continue
			}
			l.logf("claim failed", "id", item.ID, "error", err)
			continue
		}
		l.processItem(ctx, item)
	}
	return nil
}

func (l *Loop) processItem(ctx context.Context, item model.DirectoryQueueItem) {
	client := l.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	fetched, err := Fetch(ctx, client, l.Driver, item.URL, l.NavTimeout, l.PostLoadSleep)
	if err != nil {
		l.complete(ctx, item.ID, model.DirectoryCompletion{Success: false, Error: err.Error()})
		return
	}

	var baseFilter, pattern string
	if item.BaseURLFilter != nil {
		baseFilter = *item.BaseURLFilter
	}
	if item.LinkPattern != nil {
		pattern = *item.LinkPattern
	}

	links := ExtractLinks(item.URL, fetched.HTML, baseFilter, pattern)
	urls := make([]string, 0, len(links))
	for _, link := range links {
		urls = append(urls, link.URL)
	}

	l.complete(ctx, item.ID, model.DirectoryCompletion{Success: true, LinksFound: len(urls), ExtractedURLs: urls})
}

func (l *Loop) complete(ctx context.Context, id uuid.UUID, completion model.DirectoryCompletion) {
	if err := l.Backend.CompleteQueueItem(ctx, id, completion); err != nil {
		l.logf("complete queue item failed", "id", id, "error", err)
	}
}

func (l *Loop) logf(msg string, args ...any) {
	if l.Logger != nil {
		l.Logger.Warn(msg, args...)
	}
}
