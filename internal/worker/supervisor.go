package worker

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"scraperdev/internal/backend"
	"scraperdev/internal/model"
	"scraperdev/internal/workerlease"
)

// Supervisor owns the fixed worker pool and the main scheduling loop
// (spec §4.1): every PollInterval, for each idle worker, attempt an
// atomic claim and spawn a bound task on success.
type Supervisor struct {
	Deps         Dependencies
	PollInterval time.Duration
	CityID       *uuid.UUID

	// Lease is nil in single-instance deployments. When set, each worker
	// slot ID must hold the cross-instance lease before polling the
	// backend, so two scraperdev processes sharing one city never run
	// the same slot ID concurrently (SPEC_FULL.md §9).
	Lease *workerlease.Lease

	workers []*model.WorkerState
	mu      sync.Mutex
	wg      sync.WaitGroup

	shutdownRequested atomic.Bool
}

// NewSupervisor allocates n worker slots (already clamped to [1,10] by
// config.ClampWorkers).
func NewSupervisor(deps Dependencies, n int, cityID *uuid.UUID, pollInterval time.Duration) *Supervisor {
	workers := make([]*model.WorkerState, n)
	for i := range workers {
		workers[i] = &model.WorkerState{ID: i}
	}
	return &Supervisor{Deps: deps, PollInterval: pollInterval, CityID: cityID, workers: workers}
}

// ShutdownRequested reports whether Shutdown has been called.
func (s *Supervisor) ShutdownRequested() bool {
	return s.shutdownRequested.Load()
}

// WorkerSnapshot is a read-only view of one worker slot, safe to render
// from another goroutine (the status server).
type WorkerSnapshot struct {
	ID          int
	Busy        bool
	RequestID   string
	SourceURL   string
}

// Snapshot returns the current state of every worker slot, for the
// optional read-only status endpoint (SPEC_FULL.md §9).
func (s *Supervisor) Snapshot() []WorkerSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]WorkerSnapshot, len(s.workers))
	for i, w := range s.workers {
		out[i] = WorkerSnapshot{ID: w.ID, Busy: w.Busy}
		if w.CurrentRequest != nil {
			out[i].RequestID = w.CurrentRequest.ID.String()
			out[i].SourceURL = w.CurrentRequest.SourceURL
		}
	}
	return out
}

// Run drives the main scheduling loop until ctx is canceled, then waits
// for in-flight tasks to observe the cancellation and return (spec §5:
// on interrupt, shutdownRequested is set, live children are signaled,
// and the process exits once outstanding tasks unwind).
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdownRequested.Store(true)
			s.wg.Wait()
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Supervisor) pollOnce(ctx context.Context) {
	if s.shutdownRequested.Load() {
		return
	}
	for _, w := range s.workers {
		if s.shutdownRequested.Load() {
			return
		}
		s.mu.Lock()
		busy := w.Busy
		s.mu.Unlock()
		if busy {
			continue
		}

		if s.Lease != nil {
			ok, err := s.Lease.TryAcquire(ctx, w.ID)
			if err != nil {
				if s.Deps.Logger != nil {
					s.Deps.Logger.Warn("worker lease acquire failed", "worker", w.ID, "error", err)
				}
				continue
			}
			if !ok {
				continue
			}
		}

		req, err := s.Deps.Backend.GetNextAndClaim(ctx, workerID(w.ID), s.CityID)
		if err != nil {
			if !errors.Is(err, backend.ErrNoWork) && s.Deps.Logger != nil {
				s.Deps.Logger.Warn("getNextAndClaim failed", "worker", w.ID, "error", err)
			}
			continue
		}

		s.mu.Lock()
		w.Busy = true
		w.CurrentRequest = req
		s.mu.Unlock()

		s.wg.Add(1)
		go s.runTask(ctx, w, req)
	}
}

// runTask drives one claimed request to completion, guaranteeing on
// every exit path (including panics from deeper layers, which the
// caller is expected to avoid) that the worker returns to idle.
func (s *Supervisor) runTask(ctx context.Context, w *model.WorkerState, req *model.DevelopmentRequest) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		w.Busy = false
		w.CurrentRequest = nil
		w.ChildPID = 0
		s.mu.Unlock()
		if s.Lease != nil {
			if err := s.Lease.Release(ctx, w.ID); err != nil && s.Deps.Logger != nil {
				s.Deps.Logger.Warn("worker lease release failed", "worker", w.ID, "error", err)
			}
		}
	}()

	pipeline := &Pipeline{Deps: s.Deps}
	if err := pipeline.Process(ctx, req); err != nil {
		log := s.Deps.Logger
		if log == nil {
			log = slog.Default()
		}
		log.Error("pipeline failed", "requestId", req.ID, "worker", w.ID, "error", err)
	}
}

func workerID(n int) string {
	return "worker-" + strconv.Itoa(n)
}
