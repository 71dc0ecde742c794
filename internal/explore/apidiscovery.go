package explore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"scraperdev/internal/browser"
	"scraperdev/internal/model"
)

// indicatorPattern is the generic camp-indicator regex from spec §4.2.
var indicatorPattern = regexp.MustCompile(`(?i)camp|session|program|registration|enroll|price|cost|age|grade`)

const sampleDataCap = 2 * 1024 // 2KB, per spec §3/§4.2

// apiWatcher accumulates DiscoveredApi records from response hook
// events during one exploration navigation.
type apiWatcher struct {
	searchTerms []string
	apis        []model.DiscoveredApi
}

func newAPIWatcher(searchTerms []string) *apiWatcher {
	return &apiWatcher{searchTerms: searchTerms}
}

// observe is wired as the page's OnResponse hook.
func (w *apiWatcher) observe(evt browser.ResponseEvent) {
	searchTermHits := 0
	for _, term := range w.searchTerms {
		searchTermHits += strings.Count(strings.ToLower(string(evt.Body)), term)
	}
	indicatorHits := len(indicatorPattern.FindAllIndex(evt.Body, -1))

	if searchTermHits == 0 && indicatorHits < 5 {
		return
	}

	w.apis = append(w.apis, model.DiscoveredApi{
		URL:           evt.URL,
		Method:        "GET",
		ContentType:   evt.ContentType,
		ResponseSize:  len(evt.Body),
		MatchCount:    searchTermHits + indicatorHits,
		StructureHint: structureHint(evt.Body),
		URLPattern:    urlPattern(evt.URL),
		SampleData:    sampleData(evt.Body),
	})
}

// Sorted returns the watcher's discovered APIs ordered by matchCount
// descending, a stable display order per spec §8 boundary behavior.
func (w *apiWatcher) Sorted() []model.DiscoveredApi {
	out := append([]model.DiscoveredApi(nil), w.apis...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchCount > out[j].MatchCount })
	return out
}

func structureHint(body []byte) string {
	var arr []json.RawMessage
	if err := json.Unmarshal(body, &arr); err == nil {
		return fmt.Sprintf("Array[%d]", len(arr))
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "Object with keys: " + strings.Join(keys, ", ")
	}
	return ""
}

var (
	numericIDPattern = regexp.MustCompile(`/\d+(/|$|\?)`)
	uuidPattern       = regexp.MustCompile(`(?i)/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(/|$|\?)`)
	objectIDPattern   = regexp.MustCompile(`(?i)/[0-9a-f]{24}(/|$|\?)`)
)

// urlPattern generalizes a URL by replacing numeric ids, UUIDs, and
// 24-hex Mongo-style object ids with placeholders (spec §3).
func urlPattern(rawURL string) string {
	out := uuidPattern.ReplaceAllString(rawURL, "/{uuid}$1")
	out = objectIDPattern.ReplaceAllString(out, "/{objectId}$1")
	out = numericIDPattern.ReplaceAllString(out, "/{id}$1")
	return out
}

// sampleData returns the first 2KB of pretty-printed JSON, truncated
// with a marker if longer (spec §3).
func sampleData(body []byte) string {
	var pretty bytes.Buffer
	src := body
	if err := json.Indent(&pretty, body, "", "  "); err == nil {
		src = pretty.Bytes()
	}
	if len(src) <= sampleDataCap {
		return string(src)
	}
	return string(src[:sampleDataCap]) + "\n… (truncated, " + strconv.Itoa(len(src)-sampleDataCap) + " more bytes)"
}
