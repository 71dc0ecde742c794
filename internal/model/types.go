// Package model defines the daemon's in-process view of backend-owned
// records. None of these types own storage; they mirror the shapes the
// backend RPC surface sends and receives (see internal/backend).
package model

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackEntry is one round of the feedback/retry cycle attached to a
// DevelopmentRequest. History is append-only; nothing is ever rewritten.
type FeedbackEntry struct {
	FeedbackAt           time.Time `json:"feedbackAt"`
	Feedback             string    `json:"feedback"`
	ScraperVersionBefore int       `json:"scraperVersionBefore"`
}

// DevelopmentRequest is one attempt at producing a scraper for a single
// source. See spec §3.
type DevelopmentRequest struct {
	ID         uuid.UUID  `json:"id"`
	SourceName string     `json:"sourceName"`
	SourceURL  string     `json:"sourceUrl"`
	CityID     *uuid.UUID `json:"cityId,omitempty"`

	Notes      string `json:"notes,omitempty"`
	Status     string `json:"status"`
	ClaimantID string `json:"claimantId,omitempty"`

	ScraperVersion       int              `json:"scraperVersion"`
	GeneratedScraperCode string           `json:"generatedScraperCode,omitempty"`
	FeedbackHistory      []FeedbackEntry  `json:"feedbackHistory,omitempty"`
	SiteExploration      *SiteExploration `json:"siteExploration,omitempty"`
}

// Location is one entry in SiteExploration.Locations.
type Location struct {
	Name   string  `json:"name"`
	URL    *string `json:"url,omitempty"`
	SiteID *string `json:"siteId,omitempty"`
}

// DirectoryLink is one link extracted from a directory page during
// exploration, classified internal or external.
type DirectoryLink struct {
	URL        string `json:"url"`
	Name       string `json:"name"`
	IsInternal bool   `json:"isInternal"`
}

// DiscoveredApi is a JSON endpoint observed during exploration whose
// response body carries camp-related signal above a threshold.
type DiscoveredApi struct {
	URL           string `json:"url"`
	Method        string `json:"method"`
	ContentType   string `json:"contentType"`
	ResponseSize  int    `json:"responseSize"`
	MatchCount    int    `json:"matchCount"`
	StructureHint string `json:"structureHint,omitempty"`
	URLPattern    string `json:"urlPattern,omitempty"`
	SampleData    string `json:"sampleData,omitempty"`
}

// ExternalRegistration describes a third-party registration/ticketing
// platform a site defers to, surfaced by the AI-extraction classification.
type ExternalRegistration struct {
	Platform      string   `json:"platform,omitempty"`
	BaseURL       string   `json:"baseUrl,omitempty"`
	URLParameters []string `json:"urlParameters,omitempty"`
}

// SiteExploration is the cached result of the exploration stage, keyed
// per request. Written once on the first attempt, reused verbatim on
// retries (see spec §4.2 step 1).
type SiteExploration struct {
	SiteType             string                `json:"siteType"`
	HasMultipleLocations bool                  `json:"hasMultipleLocations"`
	Locations            []Location            `json:"locations,omitempty"`
	HasCategories        bool                  `json:"hasCategories"`
	Categories           []string              `json:"categories,omitempty"`
	RegistrationSystem   *ExternalRegistration `json:"registrationSystem,omitempty"`
	URLPatterns          []string              `json:"urlPatterns,omitempty"`
	NavigationNotes      []string              `json:"navigationNotes,omitempty"`
	EstimatedCampCount   string                `json:"estimatedCampCount,omitempty"`

	IsDirectory    bool            `json:"isDirectory,omitempty"`
	DirectoryLinks []DirectoryLink `json:"directoryLinks,omitempty"`

	DiscoveredApis []DiscoveredApi `json:"discoveredApis,omitempty"`
	APISearchTerm  string          `json:"apiSearchTerm,omitempty"`

	ExploredAt time.Time `json:"exploredAt"`
}

// DirectoryQueueItem is a listing page the directory loop crawls for
// outbound organization URLs. See spec §3, §4.7.
type DirectoryQueueItem struct {
	ID            uuid.UUID `json:"id"`
	CityID        uuid.UUID `json:"cityId"`
	URL           string    `json:"url"`
	Status        string    `json:"status"`
	LinkPattern   *string   `json:"linkPattern,omitempty"`
	BaseURLFilter *string   `json:"baseUrlFilter,omitempty"`
}

// DirectoryCompletion is the payload for completeQueueItem on success.
type DirectoryCompletion struct {
	Success       bool     `json:"success"`
	LinksFound    int      `json:"linksFound,omitempty"`
	ExtractedURLs []string `json:"extractedUrls,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// DiscoveryTask is a market-level discovery job. See spec §3, §4.9.
type DiscoveryTask struct {
	ID               uuid.UUID `json:"id"`
	CityID           uuid.UUID `json:"cityId"`
	RegionName       string    `json:"regionName"`
	SearchQueries    []string  `json:"searchQueries"`
	MaxSearchResults int       `json:"maxSearchResults,omitempty"`
	Status           string    `json:"status"`
}

// DiscoveryCompletion is the payload for completeDiscoveryTask.
type DiscoveryCompletion struct {
	OrgsCreated    int `json:"orgsCreated"`
	OrgsExisted    int `json:"orgsExisted"`
	SourcesCreated int `json:"sourcesCreated"`
}

// ContactExtractionTarget is an organization record missing contact
// info, polled (not queued) by the contact-extraction loop.
type ContactExtractionTarget struct {
	OrgID uuid.UUID `json:"orgId"`
	Name  string    `json:"name"`
	URL   string    `json:"url"`
}

// ContactInfo is what the contact-extraction loop persists.
type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// WorkerState is in-process only: one scraper-development worker slot,
// owned exclusively by the Supervisor for its lifetime. See spec §3, §9
// (Design Notes: bundle into a Supervisor record rather than a module-
// level map).
type WorkerState struct {
	ID             int
	Busy           bool
	CurrentRequest *DevelopmentRequest
	ChildPID       int
}
