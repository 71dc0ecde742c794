package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"scraperdev/internal/model"
)

// HTTPClient is a JSON-over-HTTP binding of Client, built the same way
// the teacher hand-rolls its OpenAI/Anthropic/Google clients in
// internal/llm: a thin struct around *http.Client, one small method per
// named RPC, no generic query builder.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient constructs an HTTPClient. timeout applies per-request.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode == http.StatusConflict {
		return ErrAlreadyClaimed
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNoWork
	}
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("backend: %s %s returned status %d: %s", method, path, resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode response from %s %s: %w", method, path, err)
	}
	return nil
}

func (c *HTTPClient) ListAllCities(ctx context.Context) ([]City, error) {
	var out []City
	if err := c.do(ctx, http.MethodGet, "/v1/cities", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetPendingRequests(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/requests/pending", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *HTTPClient) GetNextAndClaim(ctx context.Context, workerID string, cityID *uuid.UUID) (*model.DevelopmentRequest, error) {
	req := struct {
		WorkerID string  `json:"workerId"`
		CityID   *string `json:"cityId,omitempty"`
	}{WorkerID: workerID}
	if cityID != nil {
		s := cityID.String()
		req.CityID = &s
	}

	var out model.DevelopmentRequest
	err := c.do(ctx, http.MethodPost, "/v1/requests/claim", req, &out)
	if err != nil {
		if err == ErrNoWork {
			return nil, ErrNoWork
		}
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, ErrNoWork
	}
	return &out, nil
}

func (c *HTTPClient) SaveExploration(ctx context.Context, requestID uuid.UUID, exploration model.SiteExploration) error {
	body := struct {
		RequestID   uuid.UUID              `json:"requestId"`
		Exploration model.SiteExploration  `json:"exploration"`
	}{requestID, exploration}
	return c.do(ctx, http.MethodPost, "/v1/requests/"+requestID.String()+"/exploration", body, nil)
}

func (c *HTTPClient) UpdateScraperCode(ctx context.Context, requestID uuid.UUID, code string) error {
	body := struct {
		ScraperCode string `json:"scraperCode"`
	}{code}
	return c.do(ctx, http.MethodPost, "/v1/requests/"+requestID.String()+"/code", body, nil)
}

func (c *HTTPClient) RecordTestResults(ctx context.Context, requestID uuid.UUID, sessionsFound int, sampleData any, testErr string) error {
	body := struct {
		SessionsFound int         `json:"sessionsFound"`
		SampleData    any         `json:"sampleData,omitempty"`
		Error         nullString  `json:"error,omitempty"`
	}{SessionsFound: sessionsFound, SampleData: sampleData, Error: nullStringOf(testErr)}
	return c.do(ctx, http.MethodPost, "/v1/requests/"+requestID.String()+"/test-results", body, nil)
}

func (c *HTTPClient) SubmitFeedback(ctx context.Context, requestID uuid.UUID, feedback, feedbackBy string) error {
	body := struct {
		Feedback   string `json:"feedback"`
		FeedbackBy string `json:"feedbackBy"`
	}{feedback, feedbackBy}
	return c.do(ctx, http.MethodPost, "/v1/requests/"+requestID.String()+"/feedback", body, nil)
}

func (c *HTTPClient) MarkDirectoryProcessed(ctx context.Context, requestID uuid.UUID, notes string, linksFound, requestsCreated int) error {
	body := struct {
		Notes           string `json:"notes"`
		LinksFound      int    `json:"linksFound"`
		RequestsCreated int    `json:"requestsCreated"`
	}{notes, linksFound, requestsCreated}
	return c.do(ctx, http.MethodPost, "/v1/requests/"+requestID.String()+"/directory-processed", body, nil)
}

func (c *HTTPClient) RequestScraperDevelopment(ctx context.Context, sourceName, sourceURL string, cityID *uuid.UUID, notes, requestedBy string) (uuid.UUID, error) {
	body := struct {
		SourceName  string  `json:"sourceName"`
		SourceURL   string  `json:"sourceUrl"`
		CityID      *string `json:"cityId,omitempty"`
		Notes       string  `json:"notes,omitempty"`
		RequestedBy string  `json:"requestedBy,omitempty"`
	}{SourceName: sourceName, SourceURL: sourceURL, Notes: notes, RequestedBy: requestedBy}
	if cityID != nil {
		s := cityID.String()
		body.CityID = &s
	}

	var out struct {
		ID uuid.UUID `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/requests", body, &out); err != nil {
		return uuid.Nil, err
	}
	return out.ID, nil
}

func (c *HTTPClient) GetPendingDirectories(ctx context.Context, limit int) ([]model.DirectoryQueueItem, error) {
	var out []model.DirectoryQueueItem
	path := "/v1/directories/pending?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ClaimQueueItem(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodPost, "/v1/directories/"+id.String()+"/claim", nil, nil)
}

func (c *HTTPClient) CompleteQueueItem(ctx context.Context, id uuid.UUID, completion model.DirectoryCompletion) error {
	return c.do(ctx, http.MethodPost, "/v1/directories/"+id.String()+"/complete", completion, nil)
}

func (c *HTTPClient) GetOrgsNeedingContactInfo(ctx context.Context, limit int) ([]model.ContactExtractionTarget, error) {
	var out []model.ContactExtractionTarget
	path := "/v1/orgs/needing-contact?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) SaveOrgContactInfo(ctx context.Context, orgID uuid.UUID, info model.ContactInfo) error {
	return c.do(ctx, http.MethodPost, "/v1/orgs/"+orgID.String()+"/contact-info", info, nil)
}

func (c *HTTPClient) GetPendingDiscoveryTasks(ctx context.Context, limit int) ([]model.DiscoveryTask, error) {
	var out []model.DiscoveryTask
	path := "/v1/discovery-tasks/pending?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ClaimDiscoveryTask(ctx context.Context, taskID uuid.UUID, sessionID string) error {
	body := struct {
		SessionID string `json:"sessionId"`
	}{sessionID}
	return c.do(ctx, http.MethodPost, "/v1/discovery-tasks/"+taskID.String()+"/claim", body, nil)
}

func (c *HTTPClient) UpdateDiscoveryProgress(ctx context.Context, taskID uuid.UUID, directoriesFound, nonDirectoryCampsFound int) error {
	body := struct {
		DirectoriesFound       int `json:"directoriesFound"`
		NonDirectoryCampsFound int `json:"nonDirectoryCampsFound"`
	}{directoriesFound, nonDirectoryCampsFound}
	return c.do(ctx, http.MethodPost, "/v1/discovery-tasks/"+taskID.String()+"/progress", body, nil)
}

func (c *HTTPClient) CompleteDiscoveryTask(ctx context.Context, taskID uuid.UUID, completion model.DiscoveryCompletion) error {
	return c.do(ctx, http.MethodPost, "/v1/discovery-tasks/"+taskID.String()+"/complete", completion, nil)
}

func (c *HTTPClient) FailDiscoveryTask(ctx context.Context, taskID uuid.UUID, errMsg string) error {
	body := struct {
		Error string `json:"error"`
	}{truncate(errMsg, 2000)}
	return c.do(ctx, http.MethodPost, "/v1/discovery-tasks/"+taskID.String()+"/fail", body, nil)
}

func (c *HTTPClient) ProcessDiscoveryResults(ctx context.Context, taskID uuid.UUID, discoveredURLs []string) error {
	body := struct {
		DiscoveredURLs []string `json:"discoveredUrls"`
	}{discoveredURLs}
	return c.do(ctx, http.MethodPost, "/v1/discovery-tasks/"+taskID.String()+"/process", body, nil)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ Client = (*HTTPClient)(nil)
