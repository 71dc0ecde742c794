package explore

import (
	"net/url"
	"regexp"
	"strings"
)

var stopWords = map[string]bool{
	"the": true, "and": true, "of": true, "for": true, "summer": true,
	"camp": true, "camps": true, "kids": true, "kid": true, "youth": true,
	"program": true, "programs": true, "with": true, "your": true,
	"www": true, "com": true, "org": true, "net": true, "http": true,
	"https": true, "a": true, "an": true, "in": true, "at": true,
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// DeriveSearchTerms returns a deterministic set of up to 5 search terms
// from the source name and URL, tokenized, lowercased, stripped of
// non-alphanumerics, and stopword-filtered (spec §4.2, testable property
// 5: a pure function of (sourceName, sourceURL)).
func DeriveSearchTerms(sourceName, sourceURL string) []string {
	var tokens []string
	tokens = append(tokens, tokenize(sourceName)...)

	if u, err := url.Parse(sourceURL); err == nil {
		tokens = append(tokens, tokenize(u.Path)...)
	}

	seen := make(map[string]bool)
	var terms []string
	for _, t := range tokens {
		if len(terms) >= 5 {
			break
		}
		if len(t) < 3 || stopWords[t] || seen[t] {
			continue
		}
		seen[t] = true
		terms = append(terms, t)
	}
	return terms
}

func tokenize(s string) []string {
	lower := strings.ToLower(s)
	parts := nonAlnum.Split(lower, -1)
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
