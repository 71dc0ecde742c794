package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"scraperdev/internal/agent"
	"scraperdev/internal/backend"
	"scraperdev/internal/browser"
	"scraperdev/internal/llmextract"
	"scraperdev/internal/model"
	"scraperdev/internal/scratch"
	"scraperdev/internal/teststage"
)

// blockingAgentRunner simulates a long-running code-generation
// subprocess that only returns once its context is canceled, modeling
// the child process the Supervisor must signal on shutdown.
type blockingAgentRunner struct {
	started chan struct{}
	once    bool
}

func (b *blockingAgentRunner) Run(ctx context.Context, req agent.RunRequest) (*agent.RunResult, error) {
	if b.started != nil {
		select {
		case b.started <- struct{}{}:
		default:
		}
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

// TestSupervisor_S5_GracefulShutdownMidGeneration directly encodes
// scenario S5.
func TestSupervisor_S5_GracefulShutdownMidGeneration(t *testing.T) {
	fake := backend.NewFakeClient()
	fake.Pending = []model.DevelopmentRequest{
		{ID: uuid.New(), SourceName: "Camp A", SourceURL: "https://a.example/camps"},
		{ID: uuid.New(), SourceName: "Camp B", SourceURL: "https://b.example/camps"},
	}

	layout, err := scratch.New(t.TempDir())
	if err != nil {
		t.Fatalf("scratch.New: %v", err)
	}

	started := make(chan struct{}, 2)
	deps := Dependencies{
		Backend: fake,
		Driver: &browser.FakeDriver{Pages: []*browser.FakePage{
			{ExtractFields: map[string]any{"organizationType": "unknown"}},
			{ExtractFields: map[string]any{"organizationType": "unknown"}},
		}},
		LLM:          &llmextract.FakeClient{},
		AgentRunner:  &blockingAgentRunner{started: started},
		AgentBinary:  "claude",
		AgentTimeout: time.Minute,
		TestStage:    teststage.New(teststage.Config{Runner: &teststage.FakeRunner{}, ScratchDir: t.TempDir()}),
		Scratch:      layout,
	}

	sup := NewSupervisor(deps, 2, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	// Wait for both workers to have claimed a request and entered the
	// blocking agent-generation stage.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for worker %d to start generation", i)
		}
	}

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Supervisor.Run did not return promptly after shutdown")
	}

	if !sup.ShutdownRequested() {
		t.Fatalf("expected ShutdownRequested to be true")
	}
	for _, c := range fake.Calls {
		if c == "recordTestResults" {
			t.Fatalf("expected no recordTestResults call for an in-flight request aborted by shutdown")
		}
	}
}
