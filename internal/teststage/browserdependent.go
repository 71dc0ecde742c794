package teststage

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	jsonStartSentinel = "__JSON_START__"
	jsonEndSentinel   = "__JSON_END__"
)

type harnessPayload struct {
	Samples []harnessSample `json:"samples"`
	Error   string          `json:"error"`
}

type harnessSample struct {
	Name      string      `json:"name"`
	Dates     string      `json:"dates"`
	Location  string      `json:"location"`
	Ages      string      `json:"ages"`
	Price     interface{} `json:"price"`
	Available bool        `json:"available"`
}

var successPattern = regexp.MustCompile(`SUCCESS: Found (\d+) sessions?`)

// RunBrowserDependent invokes the external test-scraper.ts harness
// against a live browser (spec §4.5). harnessBinary/harnessScript are
// configurable since the harness itself is an opaque external tool, not
// part of this daemon (spec §1 non-goals).
func RunBrowserDependent(ctx context.Context, runner ProcessRunner, harnessBinary, harnessScript, scraperFile, sourceURL, workDir string) (*Result, error) {
	stdout, runErr := runner.Run(ctx, harnessBinary, []string{harnessScript, scraperFile, sourceURL}, workDir, 3*time.Minute)

	if payload, ok := extractJSONPayload(stdout); ok {
		var p harnessPayload
		if err := json.Unmarshal([]byte(payload), &p); err == nil {
			if p.Error != "" {
				return &Result{Classification: ClassBrowserDependent, Error: p.Error}, nil
			}
			samples := make([]Sample, 0, len(p.Samples))
			for _, s := range p.Samples {
				samples = append(samples, Sample{
					Name:       s.Name,
					Dates:      s.Dates,
					Location:   s.Location,
					Ages:       s.Ages,
					PriceCents: priceToCents(s.Price),
					Available:  s.Available,
				})
			}
			return &Result{Classification: ClassBrowserDependent, SessionCount: len(samples), Samples: samples}, nil
		}
	}

	if m := successPattern.FindStringSubmatch(stdout); len(m) == 2 {
		n, _ := strconv.Atoi(m[1])
		samples := make([]Sample, 0, min(n, 5))
		for i := 0; i < n && i < 5; i++ {
			samples = append(samples, Sample{Name: "Session", Placeholder: true})
		}
		return &Result{Classification: ClassBrowserDependent, SessionCount: n, Samples: samples}, nil
	}

	if runErr != nil {
		return &Result{Classification: ClassBrowserDependent, Error: runErr.Error()}, nil
	}
	return &Result{Classification: ClassBrowserDependent, SessionCount: 0}, nil
}

func extractJSONPayload(stdout string) (string, bool) {
	start := strings.Index(stdout, jsonStartSentinel)
	if start < 0 {
		return "", false
	}
	start += len(jsonStartSentinel)
	end := strings.Index(stdout[start:], jsonEndSentinel)
	if end < 0 {
		return "", false
	}
	return stdout[start : start+end], true
}

func priceToCents(v interface{}) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(t)
		return n
	default:
		return 0
	}
}
