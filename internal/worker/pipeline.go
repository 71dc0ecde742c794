// Package worker implements the scraper-development worker pool: the
// Supervisor's main scheduling loop (spec §4.1) and the per-request
// pipeline each worker drives to completion (spec §5: claim → explore →
// prompt → generate → test → record|feedback).
package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"scraperdev/internal/agent"
	"scraperdev/internal/backend"
	"scraperdev/internal/browser"
	"scraperdev/internal/diagnose"
	"scraperdev/internal/explore"
	"scraperdev/internal/llmextract"
	"scraperdev/internal/model"
	"scraperdev/internal/prompt"
	"scraperdev/internal/scratch"
	"scraperdev/internal/teststage"
)

// AgentRunner is the subset of agent.Runner the pipeline depends on;
// narrowed to an interface so tests can substitute a fake without
// spawning a real subprocess.
type AgentRunner interface {
	Run(ctx context.Context, req agent.RunRequest) (*agent.RunResult, error)
}

// Dependencies bundles everything the pipeline needs to drive one
// request. One Dependencies is shared read-only across all workers;
// the only per-worker state is the WorkerState record the Supervisor
// owns.
type Dependencies struct {
	Backend backend.Client
	Driver  browser.Driver
	LLM     llmextract.Client

	LLMProvider llmextract.Provider
	LLMModel    string

	AgentRunner  AgentRunner
	AgentBinary  string
	AgentTimeout time.Duration
	KillGrace    time.Duration
	OutputEnvVar string
	TemplatePath string

	TestStage *teststage.Stage

	Scratch *scratch.Layout
	Logger  *slog.Logger

	NavTimeout    time.Duration
	PostLoadSleep time.Duration

	// RobotsClient is forwarded to explore.Explorer's courtesy robots.txt
	// check; nil (the default in tests) skips the check.
	RobotsClient *http.Client
}

// Pipeline processes one claimed request at a time, strictly
// sequentially within a call to Process (spec §5 ordering guarantees).
type Pipeline struct {
	Deps Dependencies
}

// Process runs the full claim→explore→prompt→generate→test→(record|
// feedback) sequence for req. It never returns an error for ordinary
// scrape failures — those are recorded via SubmitFeedback — only for
// infrastructure failures (backend unreachable, browser launch failed)
// that leave the request in an indeterminate state for the backend to
// reap.
func (p *Pipeline) Process(ctx context.Context, req *model.DevelopmentRequest) error {
	log := p.Deps.Logger
	if log == nil {
		log = slog.Default()
	}

	explorer := &explore.Explorer{
		Backend:       p.Deps.Backend,
		Driver:        p.Deps.Driver,
		LLM:           p.Deps.LLM,
		LLMProvider:   p.Deps.LLMProvider,
		LLMModel:      p.Deps.LLMModel,
		NavTimeout:    p.Deps.NavTimeout,
		PostLoadSleep: p.Deps.PostLoadSleep,
		Logger:        log,
		RobotsClient:  p.Deps.RobotsClient,
	}

	outcome, err := explorer.Explore(ctx, req)
	if err != nil {
		return fmt.Errorf("worker: explore %s: %w", req.ID, err)
	}
	if outcome.IsDirectory {
		log.Info("request resolved as a directory; no code generation", "requestId", req.ID)
		return nil
	}
	req.SiteExploration = outcome.Exploration

	outputFile := p.Deps.Scratch.ScraperFile(req.ID)
	promptText, err := prompt.Build(prompt.Inputs{
		Request:      req,
		Exploration:  outcome.Exploration,
		OutputFile:   outputFile,
		TemplatePath: p.Deps.TemplatePath,
	})
	if err != nil {
		return fmt.Errorf("worker: build prompt %s: %w", req.ID, err)
	}
	promptFile := p.Deps.Scratch.PromptFile(req.ID)
	if err := writeFile(promptFile, promptText); err != nil {
		return fmt.Errorf("worker: write prompt file %s: %w", req.ID, err)
	}

	transcriptFile := p.Deps.Scratch.TranscriptFile(req.ID)
	transcript, err := openAppend(transcriptFile)
	if err != nil {
		return fmt.Errorf("worker: open transcript %s: %w", req.ID, err)
	}
	defer transcript.Close()

	genCtx, cancel := context.WithTimeout(ctx, p.Deps.AgentTimeout)
	defer cancel()

	var stdoutCapture strings.Builder
	runResult, runErr := p.Deps.AgentRunner.Run(genCtx, agent.RunRequest{
		Binary:           p.Deps.AgentBinary,
		Prompt:           promptText,
		WorkDir:          p.Deps.Scratch.Root,
		OutputFile:       outputFile,
		OutputEnvVar:     p.Deps.OutputEnvVar,
		KillGrace:        p.Deps.KillGrace,
		TranscriptWriter: io.MultiWriter(transcript, &stdoutCapture),
		OnEvent: func(evt agent.Event) {
			if text := agent.AssistantText(evt); text != "" {
				log.Debug("agent", "requestId", req.ID, "text", text)
			}
		},
	})
	if ctx.Err() != nil {
		// Shutdown in progress: leave the request claimed for the backend
		// to reap rather than recording a result for an aborted attempt
		// (spec §8 scenario S5).
		return ctx.Err()
	}
	if runErr != nil && (runResult == nil || !runResult.GotResult) {
		return fmt.Errorf("worker: agent run %s: %w", req.ID, runErr)
	}

	code, found := agent.ExtractCode(outputFile, stdoutCapture.String())
	if !found {
		return p.recordFailureWithFeedback(ctx, req, "", "agent produced no scraper code")
	}

	if err := p.Deps.Backend.UpdateScraperCode(ctx, req.ID, code); err != nil {
		return fmt.Errorf("worker: update scraper code %s: %w", req.ID, err)
	}

	result, err := p.Deps.TestStage.Run(ctx, code, outputFile, req.SourceURL)
	if err != nil {
		return fmt.Errorf("worker: test stage %s: %w", req.ID, err)
	}

	return p.recordResult(ctx, req, code, result)
}

func (p *Pipeline) recordResult(ctx context.Context, req *model.DevelopmentRequest, code string, result *teststage.Result) error {
	if result.SessionCount > 0 {
		return p.Deps.Backend.RecordTestResults(ctx, req.ID, result.SessionCount, result.VisibleSamples(), "")
	}

	if result.Error == "" && result.ZeroSessionValid {
		return p.Deps.Backend.RecordTestResults(ctx, req.ID, 0, nil, result.ZeroSessionNote)
	}

	return p.recordFailureWithFeedback(ctx, req, code, result.Error)
}

func (p *Pipeline) recordFailureWithFeedback(ctx context.Context, req *model.DevelopmentRequest, code, testErr string) error {
	feedback := diagnose.Feedback(req.SourceURL, code, testErr)
	if err := p.Deps.Backend.SubmitFeedback(ctx, req.ID, feedback, "auto-diagnosis"); err != nil {
		return fmt.Errorf("worker: submit feedback %s: %w", req.ID, err)
	}
	return nil
}
