// Package backend models the document-database-backed RPC surface the
// daemon treats as an external collaborator (spec §1, §6). Concrete
// transport is out of scope per the spec; HTTPClient below is one
// reasonable binding, built in the same hand-rolled net/http + encoding/json
// style the teacher uses for its own external API clients (internal/llm,
// internal/search).
package backend

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"scraperdev/internal/model"
)

// ErrNoWork is returned by claim-style operations when the backend has
// nothing pending. Callers treat this as ordinary "no work this tick",
// never as an error worth logging at default verbosity (spec §7).
var ErrNoWork = errors.New("backend: no work available")

// ErrAlreadyClaimed is returned when a directory/discovery item lost a
// claim race to another process.
var ErrAlreadyClaimed = errors.New("backend: item already claimed")

// City is the daemon's view of listAllCities(), used only to resolve
// --city at startup.
type City struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
	Name string    `json:"name"`
}

// Client is the typed RPC surface from spec §6. Every method here is one
// named backend operation; there is no generic query/mutation escape
// hatch, mirroring the spec's insistence on a typed, enumerated surface.
type Client interface {
	ListAllCities(ctx context.Context) ([]City, error)
	GetPendingRequests(ctx context.Context) (int, error)

	// GetNextAndClaim is the sole serialization point across workers
	// (spec §3, §5, invariant 1). Returns ErrNoWork when nothing is
	// pending for the given worker/city. Reaping claims left behind by a
	// daemon that died mid-request is the backend's job; the daemon holds
	// no heartbeat on a claim.
	GetNextAndClaim(ctx context.Context, workerID string, cityID *uuid.UUID) (*model.DevelopmentRequest, error)

	SaveExploration(ctx context.Context, requestID uuid.UUID, exploration model.SiteExploration) error
	UpdateScraperCode(ctx context.Context, requestID uuid.UUID, code string) error
	RecordTestResults(ctx context.Context, requestID uuid.UUID, sessionsFound int, sampleData any, testErr string) error
	SubmitFeedback(ctx context.Context, requestID uuid.UUID, feedback, feedbackBy string) error
	MarkDirectoryProcessed(ctx context.Context, requestID uuid.UUID, notes string, linksFound, requestsCreated int) error
	RequestScraperDevelopment(ctx context.Context, sourceName, sourceURL string, cityID *uuid.UUID, notes, requestedBy string) (uuid.UUID, error)

	GetPendingDirectories(ctx context.Context, limit int) ([]model.DirectoryQueueItem, error)
	ClaimQueueItem(ctx context.Context, id uuid.UUID) error
	CompleteQueueItem(ctx context.Context, id uuid.UUID, completion model.DirectoryCompletion) error

	GetOrgsNeedingContactInfo(ctx context.Context, limit int) ([]model.ContactExtractionTarget, error)
	SaveOrgContactInfo(ctx context.Context, orgID uuid.UUID, info model.ContactInfo) error

	GetPendingDiscoveryTasks(ctx context.Context, limit int) ([]model.DiscoveryTask, error)
	ClaimDiscoveryTask(ctx context.Context, taskID uuid.UUID, sessionID string) error
	UpdateDiscoveryProgress(ctx context.Context, taskID uuid.UUID, directoriesFound, nonDirectoryCampsFound int) error
	CompleteDiscoveryTask(ctx context.Context, taskID uuid.UUID, completion model.DiscoveryCompletion) error
	FailDiscoveryTask(ctx context.Context, taskID uuid.UUID, errMsg string) error
	ProcessDiscoveryResults(ctx context.Context, taskID uuid.UUID, discoveredURLs []string) error
}
