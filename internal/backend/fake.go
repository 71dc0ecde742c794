package backend

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"scraperdev/internal/model"
)

// FakeClient is an in-memory Client used by the worker/loop package
// tests, following the teacher's preference for small hand-written fakes
// over a mocking framework (see crawl_worker_test.go's fakeJobStore).
type FakeClient struct {
	mu sync.Mutex

	Cities   []City
	Pending  []model.DevelopmentRequest
	Claimed  map[uuid.UUID]string

	Directories []model.DirectoryQueueItem
	ClaimedDirs map[uuid.UUID]bool

	ContactTargets   []model.ContactExtractionTarget
	SavedContactInfo map[uuid.UUID]model.ContactInfo

	DiscoveryTasks []model.DiscoveryTask
	ClaimedTasks   map[uuid.UUID]string

	// Calls records, in order, the name of every mutation invoked, so
	// tests can assert on call sequence (spec §8 invariant 3: causality).
	Calls []string

	ProcessedDiscoveryURLs []string
	CreatedRequests        []model.DevelopmentRequest
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		Claimed:          make(map[uuid.UUID]string),
		ClaimedDirs:      make(map[uuid.UUID]bool),
		ClaimedTasks:     make(map[uuid.UUID]string),
		SavedContactInfo: make(map[uuid.UUID]model.ContactInfo),
	}
}

func (f *FakeClient) record(name string) {
	f.Calls = append(f.Calls, name)
}

func (f *FakeClient) ListAllCities(ctx context.Context) ([]City, error) {
	return f.Cities, nil
}

func (f *FakeClient) GetPendingRequests(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Pending), nil
}

func (f *FakeClient) GetNextAndClaim(ctx context.Context, workerID string, cityID *uuid.UUID) (*model.DevelopmentRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.Pending {
		if cityID != nil && (r.CityID == nil || *r.CityID != *cityID) {
			continue
		}
		f.Pending = append(f.Pending[:i], f.Pending[i+1:]...)
		r.ClaimantID = workerID
		f.Claimed[r.ID] = workerID
		f.record("getNextAndClaim")
		return &r, nil
	}
	return nil, ErrNoWork
}

func (f *FakeClient) SaveExploration(ctx context.Context, requestID uuid.UUID, exploration model.SiteExploration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("saveExploration")
	return nil
}

func (f *FakeClient) UpdateScraperCode(ctx context.Context, requestID uuid.UUID, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("updateScraperCode")
	return nil
}

func (f *FakeClient) RecordTestResults(ctx context.Context, requestID uuid.UUID, sessionsFound int, sampleData any, testErr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("recordTestResults")
	delete(f.Claimed, requestID)
	return nil
}

func (f *FakeClient) SubmitFeedback(ctx context.Context, requestID uuid.UUID, feedback, feedbackBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("submitFeedback")
	delete(f.Claimed, requestID)
	return nil
}

func (f *FakeClient) MarkDirectoryProcessed(ctx context.Context, requestID uuid.UUID, notes string, linksFound, requestsCreated int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("markDirectoryProcessed")
	delete(f.Claimed, requestID)
	return nil
}

func (f *FakeClient) RequestScraperDevelopment(ctx context.Context, sourceName, sourceURL string, cityID *uuid.UUID, notes, requestedBy string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.CreatedRequests = append(f.CreatedRequests, model.DevelopmentRequest{
		ID: id, SourceName: sourceName, SourceURL: sourceURL, CityID: cityID, Notes: notes,
	})
	f.record("requestScraperDevelopment")
	return id, nil
}

func (f *FakeClient) GetPendingDirectories(ctx context.Context, limit int) ([]model.DirectoryQueueItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.Directories) {
		limit = len(f.Directories)
	}
	return append([]model.DirectoryQueueItem(nil), f.Directories[:limit]...), nil
}

func (f *FakeClient) ClaimQueueItem(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ClaimedDirs[id] {
		return ErrAlreadyClaimed
	}
	f.ClaimedDirs[id] = true
	return nil
}

func (f *FakeClient) CompleteQueueItem(ctx context.Context, id uuid.UUID, completion model.DirectoryCompletion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("completeQueueItem")
	return nil
}

func (f *FakeClient) GetOrgsNeedingContactInfo(ctx context.Context, limit int) ([]model.ContactExtractionTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.ContactTargets) {
		limit = len(f.ContactTargets)
	}
	return append([]model.ContactExtractionTarget(nil), f.ContactTargets[:limit]...), nil
}

func (f *FakeClient) SaveOrgContactInfo(ctx context.Context, orgID uuid.UUID, info model.ContactInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("saveOrgContactInfo")
	f.SavedContactInfo[orgID] = info
	return nil
}

func (f *FakeClient) GetPendingDiscoveryTasks(ctx context.Context, limit int) ([]model.DiscoveryTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.DiscoveryTasks) {
		limit = len(f.DiscoveryTasks)
	}
	return append([]model.DiscoveryTask(nil), f.DiscoveryTasks[:limit]...), nil
}

func (f *FakeClient) ClaimDiscoveryTask(ctx context.Context, taskID uuid.UUID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ClaimedTasks[taskID]; ok {
		return ErrAlreadyClaimed
	}
	f.ClaimedTasks[taskID] = sessionID
	return nil
}

func (f *FakeClient) UpdateDiscoveryProgress(ctx context.Context, taskID uuid.UUID, directoriesFound, nonDirectoryCampsFound int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("updateDiscoveryProgress")
	return nil
}

func (f *FakeClient) CompleteDiscoveryTask(ctx context.Context, taskID uuid.UUID, completion model.DiscoveryCompletion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("completeDiscoveryTask")
	return nil
}

func (f *FakeClient) FailDiscoveryTask(ctx context.Context, taskID uuid.UUID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("failDiscoveryTask")
	return nil
}

func (f *FakeClient) ProcessDiscoveryResults(ctx context.Context, taskID uuid.UUID, discoveredURLs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ProcessedDiscoveryURLs = append(f.ProcessedDiscoveryURLs, discoveredURLs...)
	f.record("processDiscoveryResults")
	return nil
}

var _ Client = (*FakeClient)(nil)
