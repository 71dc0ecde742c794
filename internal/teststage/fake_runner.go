package teststage

import (
	"context"
	"time"
)

// FakeRunner is a canned ProcessRunner for tests, following the
// project's small-hand-written-fake convention over a mocking
// framework.
type FakeRunner struct {
	Stdout string
	Err    error
	Calls  []FakeCall
}

type FakeCall struct {
	Binary  string
	Args    []string
	WorkDir string
}

func (f *FakeRunner) Run(ctx context.Context, binary string, args []string, workDir string, timeout time.Duration) (string, error) {
	f.Calls = append(f.Calls, FakeCall{Binary: binary, Args: args, WorkDir: workDir})
	return f.Stdout, f.Err
}

var _ ProcessRunner = (*FakeRunner)(nil)
