package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractCode_PrefersOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scraper.ts")
	code := "export function scrape(page) { return []; } // padding to exceed 50 bytes of content"
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, ok := ExtractCode(path, "stdout irrelevant here")
	if !ok {
		t.Fatalf("expected code to be found")
	}
	if got != code {
		t.Fatalf("expected file contents verbatim, got %q", got)
	}
}

func TestExtractCode_FallsBackToRawFence(t *testing.T) {
	dir := t.TempDir()
	emptyFile := filepath.Join(dir, "scraper.ts")
	_ = os.WriteFile(emptyFile, []byte("  \n"), 0o644)

	stdout := "preamble\n```typescript\nexport function scrape(page) {}\n```\ntrailer"
	got, ok := ExtractCode(emptyFile, stdout)
	if !ok {
		t.Fatalf("expected fallback extraction to succeed")
	}
	if !strings.Contains(got, "export function scrape") {
		t.Fatalf("expected extracted code to contain function, got %q", got)
	}
}

func TestExtractCode_NoneFound(t *testing.T) {
	_, ok := ExtractCode("", "no code here")
	if ok {
		t.Fatalf("expected no code found")
	}
}
