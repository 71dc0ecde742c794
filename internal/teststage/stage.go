package teststage

import (
	"context"
	"fmt"
)

// Config configures the external tools the test stage shells out to.
// The harness itself is opaque external tooling (spec §1 non-goals);
// only its invocation contract is owned here.
type Config struct {
	Runner        ProcessRunner
	HarnessBinary string // e.g. "node" or "bun"
	HarnessScript string // path to test-scraper.ts
	ScratchDir    string
}

// Stage runs the full three-tier test harness for one generated scraper
// (spec §4.5): classify, execute (mock page or live browser), then, for a
// zero-session result with no error, apply the zero-sessions validity
// check. Diagnosis and feedback are left to the caller.
type Stage struct {
	Config
}

func New(cfg Config) *Stage {
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	return &Stage{Config: cfg}
}

// Run classifies code and drives the matching execution path.
// scraperFile is only needed for the browser-dependent path (the
// external harness takes a file path, not inline source).
func (s *Stage) Run(ctx context.Context, code, scraperFile, sourceURL string) (*Result, error) {
	class := Classify(code)

	var (
		result *Result
		err    error
	)
	switch class {
	case ClassProgrammatic:
		result, err = RunProgrammatic(ctx, s.Runner, code, sourceURL, s.ScratchDir)
	default:
		result, err = RunBrowserDependent(ctx, s.Runner, s.HarnessBinary, s.HarnessScript, scraperFile, sourceURL, s.ScratchDir)
	}
	if err != nil {
		return nil, fmt.Errorf("teststage: run: %w", err)
	}
	result.Classification = class

	if result.Error == "" && result.SessionCount == 0 {
		valid, note := ZeroSessionsValid(code, sourceURL)
		result.ZeroSessionValid = valid
		result.ZeroSessionNote = note
	}

	return result, nil
}
