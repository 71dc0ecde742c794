package teststage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const resultSentinel = "__RESULT__"

// mockRunnerTemplate imports the scraper module under test and invokes
// scrape(mockPage), where mockPage answers the minimal surface the spec
// calls out: url(), goto, waitForTimeout, evaluate (returns {}), extract
// (returns {}). It prints a sentinel-prefixed JSON result line.
const mockRunnerTemplate = `
const scraperModule = require(%q);

const mockPage = {
  url: () => %q,
  goto: async () => {},
  waitForTimeout: async () => {},
  evaluate: async () => ({}),
  extract: async () => ({}),
};

(async () => {
  try {
    const sessions = await scraperModule.scrape(mockPage);
    const list = Array.isArray(sessions) ? sessions : [];
    console.log(%q + JSON.stringify({
      success: true,
      sessionCount: list.length,
      sessions: list.slice(0, 10),
    }));
  } catch (err) {
    console.log(%q + JSON.stringify({
      success: false,
      sessionCount: 0,
      sessions: [],
      error: String(err && err.message || err),
    }));
  }
})();
`

type mockRunResult struct {
	Success      bool                     `json:"success"`
	SessionCount int                      `json:"sessionCount"`
	Sessions     []map[string]interface{} `json:"sessions"`
	Error        string                   `json:"error"`
}

// RunProgrammatic writes the code and a mock-page runner to scratchDir,
// executes the runner with a 30s timeout, and parses its sentinel
// result line. On failure to produce a usable result it falls back to
// static analysis of the source (spec §4.5).
func RunProgrammatic(ctx context.Context, runner ProcessRunner, code, sourceURL, scratchDir string) (*Result, error) {
	codePath := filepath.Join(scratchDir, "scraper-under-test.js")
	runnerPath := filepath.Join(scratchDir, "mock-runner.js")

	if err := os.WriteFile(codePath, []byte(code), 0o644); err != nil {
		return nil, fmt.Errorf("teststage: write scraper file: %w", err)
	}
	runnerSrc := fmt.Sprintf(mockRunnerTemplate, "./"+filepath.Base(codePath), sourceURL, resultSentinel, resultSentinel)
	if err := os.WriteFile(runnerPath, []byte(runnerSrc), 0o644); err != nil {
		return nil, fmt.Errorf("teststage: write mock runner: %w", err)
	}

	stdout, err := runner.Run(ctx, "node", []string{filepath.Base(runnerPath)}, scratchDir, 30*time.Second)
	if parsed, ok := parseSentinelLine(stdout, resultSentinel); ok && err == nil {
		var mr mockRunResult
		if jsonErr := json.Unmarshal([]byte(parsed), &mr); jsonErr == nil {
			if mr.Success && mr.SessionCount > 0 {
				return &Result{
					Classification: ClassProgrammatic,
					SessionCount:   mr.SessionCount,
					Samples:        samplesFromMaps(mr.Sessions),
				}, nil
			}
			if mr.Error != "" {
				return &Result{Classification: ClassProgrammatic, Error: mr.Error}, nil
			}
		}
	}

	return staticAnalyze(code), nil
}

func samplesFromMaps(raw []map[string]interface{}) []Sample {
	out := make([]Sample, 0, len(raw))
	for _, m := range raw {
		out = append(out, Sample{
			Name:      stringOf(m["name"]),
			StartDate: stringOf(m["startDate"]),
			EndDate:   stringOf(m["endDate"]),
			Location:  stringOf(m["location"]),
		})
	}
	return out
}

func stringOf(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func parseSentinelLine(stdout, sentinel string) (string, bool) {
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(line, sentinel) {
			return strings.TrimPrefix(line, sentinel), true
		}
	}
	return "", false
}

var (
	weekLiteral   = regexp.MustCompile(`\{\s*start\s*:\s*"\d{4}-\d{2}-\d{2}"`)
	pushCount     = regexp.MustCompile(`sessions\.push\(`)
	summerSpan    = regexp.MustCompile(`(?i)june|july|august`)
	locationRegex = regexp.MustCompile(`(?i)location\s*:\s*"([^"]+)"`)
	priceRegex    = regexp.MustCompile(`(?i)price(?:InCents)?\s*:\s*(\d+)`)
	dailyRegex    = regexp.MustCompile(`(?i)\bdaily\b|perDay|per_day`)
	ageMinRegex   = regexp.MustCompile(`(?i)minAge\s*:\s*(\d+)`)
	ageMaxRegex   = regexp.MustCompile(`(?i)maxAge\s*:\s*(\d+)`)
)

// staticAnalyze is the spec §4.5 fallback when the mock runner produces
// no usable session count: a regex-only estimate with fabricated sample
// sessions, never executed code.
func staticAnalyze(code string) *Result {
	weekCount := len(weekLiteral.FindAllString(code, -1))
	pushes := len(pushCount.FindAllString(code, -1))

	count := weekCount
	if count == 0 {
		count = pushes
	}
	if count == 0 && summerSpan.MatchString(code) {
		count = 10
	}
	if count == 0 {
		return &Result{Classification: ClassProgrammatic, SessionCount: 0}
	}

	location := "Unknown Location"
	if m := locationRegex.FindStringSubmatch(code); len(m) == 2 {
		location = m[1]
	}

	priceCents := 0
	if m := priceRegex.FindStringSubmatch(code); len(m) == 2 {
		n, _ := strconv.Atoi(m[1])
		priceCents = n
		if dailyRegex.MatchString(code) {
			priceCents *= 5
		}
	}

	ages := ""
	minM := ageMinRegex.FindStringSubmatch(code)
	maxM := ageMaxRegex.FindStringSubmatch(code)
	if len(minM) == 2 && len(maxM) == 2 {
		ages = minM[1] + "-" + maxM[1]
	}

	fabricated := count
	if fabricated > 5 {
		fabricated = 5
	}
	samples := make([]Sample, 0, fabricated)
	for i := 0; i < fabricated; i++ {
		samples = append(samples, Sample{
			Name:        "Estimated Session",
			Location:    location,
			Ages:        ages,
			PriceCents:  priceCents,
			Placeholder: true,
		})
	}

	return &Result{Classification: ClassProgrammatic, SessionCount: count, Samples: samples}
}
