package prompt

import (
	"fmt"
	"strings"

	"scraperdev/internal/model"
)

const sampleSliceCap = 1536 // 1.5KB, per spec §4.3

// ExplorationSummary renders the EXPLORATION_RESULTS placeholder: prose
// plus fenced code blocks describing discovered locations and APIs.
func ExplorationSummary(exp *model.SiteExploration) string {
	if exp == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Site classified as **%s**.", orDefault(exp.SiteType, "unknown"))
	if exp.HasCategories {
		fmt.Fprintf(&b, " Categories found: %s.", strings.Join(exp.Categories, ", "))
	}
	if exp.EstimatedCampCount != "" {
		fmt.Fprintf(&b, " Estimated camp count: %s.", exp.EstimatedCampCount)
	}
	if exp.RegistrationSystem != nil {
		fmt.Fprintf(&b, " Registration is handled by a third-party platform (%s).", exp.RegistrationSystem.Platform)
	}
	for _, n := range exp.NavigationNotes {
		fmt.Fprintf(&b, "\n- %s", n)
	}

	if exp.HasMultipleLocations && len(exp.Locations) > 0 {
		b.WriteString("\n\nDiscovered locations:\n```json\n")
		b.WriteString(locationsBlock(exp.Locations))
		b.WriteString("\n```")
	}

	if len(exp.DiscoveredApis) > 0 {
		b.WriteString("\n\nDiscovered back-end APIs. **Strongly prefer calling these directly over " +
			"scraping the rendered HTML.** Example skeleton:\n```typescript\n" +
			apiSkeleton(exp.DiscoveredApis[0]) + "\n```\n")
		for _, api := range exp.DiscoveredApis {
			fmt.Fprintf(&b, "\n- `%s %s` (%s, %d matches)\n```json\n%s\n```\n",
				api.Method, api.URLPattern, api.StructureHint, api.MatchCount, capSample(api.SampleData))
		}
	}

	return b.String()
}

func locationsBlock(locs []model.Location) string {
	var b strings.Builder
	b.WriteString("[\n")
	for i, l := range locs {
		url := ""
		if l.URL != nil {
			url = *l.URL
		}
		fmt.Fprintf(&b, "  {\"name\": %q, \"url\": %q}", l.Name, url)
		if i < len(locs)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("]")
	return b.String()
}

func apiSkeleton(api model.DiscoveredApi) string {
	return fmt.Sprintf("const res = await fetch(%q);\nconst data = await res.json();\n// data shape: %s",
		api.URL, orDefault(api.StructureHint, "unknown"))
}

func capSample(s string) string {
	if len(s) <= sampleSliceCap {
		return s
	}
	return s[:sampleSliceCap] + "\n… (truncated for prompt)"
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
