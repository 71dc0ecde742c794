// Package scratch manages the daemon's on-disk scratchpad (spec §5,
// §6): a directory partitioned by request id so concurrent workers
// never touch each other's files, plus a shared append-only daemon log
// and an overwritten status file.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Layout resolves the per-request and shared file paths under one
// scratchpad root.
type Layout struct {
	Root string
}

// New ensures dir exists (creating it, and its parent, if needed) and
// returns a Layout rooted there.
func New(dir string) (*Layout, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("scratch: create scratchpad dir %s: %w", dir, err)
	}
	return &Layout{Root: dir}, nil
}

func (l *Layout) PromptFile(requestID uuid.UUID) string {
	return filepath.Join(l.Root, fmt.Sprintf("prompt-%s.md", requestID))
}

func (l *Layout) ScraperFile(requestID uuid.UUID) string {
	return filepath.Join(l.Root, fmt.Sprintf("scraper-%s.ts", requestID))
}

func (l *Layout) TranscriptFile(requestID uuid.UUID) string {
	return filepath.Join(l.Root, fmt.Sprintf("transcript-%s.txt", requestID))
}

func (l *Layout) DaemonLogFile() string {
	return filepath.Join(l.Root, "daemon.log")
}

func (l *Layout) StatusFile() string {
	return filepath.Join(l.Root, "current-status.txt")
}

// AppendLog appends a line to the shared daemon log. Appends at line
// granularity are the only cross-worker write to a shared file (spec
// §5); small interleaving between concurrent workers is tolerated.
func (l *Layout) AppendLog(line string) error {
	f, err := os.OpenFile(l.DaemonLogFile(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("scratch: open daemon log: %w", err)
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

// WriteStatus overwrites the status file with the current line, used
// for a quick operator glance at daemon health (spec §6 AMBIENT STACK
// extension — no named status RPC exists on the backend).
func (l *Layout) WriteStatus(status string) error {
	return os.WriteFile(l.StatusFile(), []byte(status), 0o644)
}
