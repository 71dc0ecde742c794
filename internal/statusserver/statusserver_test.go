package statusserver

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeSnapshotter struct {
	workers  []WorkerView
	shutdown bool
}

func (f *fakeSnapshotter) Snapshot() []WorkerView  { return f.workers }
func (f *fakeSnapshotter) ShutdownRequested() bool { return f.shutdown }

func TestHealthz_ReportsOKWhenRunning(t *testing.T) {
	srv := New(&fakeSnapshotter{}, nil)
	req := httptest.NewRequest("GET", "/healthz", nil)
	resp, err := srv.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHealthz_Reports503DuringShutdown(t *testing.T) {
	srv := New(&fakeSnapshotter{shutdown: true}, nil)
	req := httptest.NewRequest("GET", "/healthz", nil)
	resp, err := srv.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestWorkers_ReportsSnapshot(t *testing.T) {
	fake := &fakeSnapshotter{workers: []WorkerView{{ID: 0, Busy: true, RequestID: "r1", SourceURL: "https://example.com"}}}
	srv := New(fake, nil)
	req := httptest.NewRequest("GET", "/workers", nil)
	resp, err := srv.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "https://example.com") {
		t.Fatalf("expected snapshot in response body, got %s", body)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
