// Package prompt builds the code-generation prompt handed to the agent
// subprocess (spec §4.3). It loads a template file with {{PLACEHOLDER}}
// and {{#SECTION}}...{{/SECTION}} markers, falling back to a minimal
// embedded template, and fills it from the request, its exploration
// result, and its feedback history.
package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"scraperdev/internal/model"
)

//go:embed default_template.md
var defaultTemplate string

// Inputs bundles everything prompt construction needs (spec §4.3).
type Inputs struct {
	Request      *model.DevelopmentRequest
	Exploration  *model.SiteExploration
	OutputFile   string
	TemplatePath string // optional; falls back to the embedded template
}

// Build renders the final prompt text.
func Build(in Inputs) (string, error) {
	tmpl := defaultTemplate
	if in.TemplatePath != "" {
		b, err := os.ReadFile(in.TemplatePath)
		if err == nil {
			tmpl = string(b)
		}
	}

	values := placeholderValues(in)
	out := stripAbsentSections(tmpl, values)
	out = substitutePlaceholders(out, values)
	return out, nil
}

var sectionPattern = regexp.MustCompile(`(?s)\{\{#(\w+)\}\}(.*?)\{\{/\w+\}\}`)

// stripAbsentSections removes {{#NAME}}...{{/NAME}} blocks whose
// placeholder value is empty, and unwraps the markers (keeping the
// inner text) otherwise.
func stripAbsentSections(tmpl string, values map[string]string) string {
	return sectionPattern.ReplaceAllStringFunc(tmpl, func(block string) string {
		m := sectionPattern.FindStringSubmatch(block)
		name, body := m[1], m[2]
		if strings.TrimSpace(values[name]) == "" {
			return ""
		}
		return body
	})
}

func substitutePlaceholders(tmpl string, values map[string]string) string {
	for name, v := range values {
		tmpl = strings.ReplaceAll(tmpl, "{{"+name+"}}", v)
	}
	return tmpl
}

func placeholderValues(in Inputs) map[string]string {
	req := in.Request
	values := map[string]string{
		"SOURCE_NAME": req.SourceName,
		"SOURCE_URL":  req.SourceURL,
		"OUTPUT_FILE": in.OutputFile,
		"NOTES":       req.Notes,
	}

	if n := len(req.FeedbackHistory); n > 0 {
		latest := req.FeedbackHistory[n-1]
		values["FEEDBACK_VERSION"] = fmt.Sprintf("%d", latest.ScraperVersionBefore+1)
		values["FEEDBACK_TEXT"] = latest.Feedback
	} else {
		values["FEEDBACK_VERSION"] = ""
		values["FEEDBACK_TEXT"] = ""
	}

	values["PREVIOUS_CODE"] = req.GeneratedScraperCode
	values["SITE_GUIDANCE"] = SiteGuidance(req.SourceURL)
	values["EXPLORATION_RESULTS"] = ExplorationSummary(in.Exploration)

	return values
}
