// Package contactloop implements the contact-extraction loop (spec
// §4.8): for organizations missing contact info, drive a browser to
// their website and persist any email/phone the AI-extraction facility
// finds.
package contactloop

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scraperdev/internal/backend"
	"scraperdev/internal/browser"
	"scraperdev/internal/llmextract"
	"scraperdev/internal/model"
)

const itemLimit = 3

var extractFields = []llmextract.FieldSpec{
	{Name: "email", Type: "string", Description: "a general contact email, preferring info@/contact@/hello@ role addresses"},
	{Name: "phone", Type: "string", Description: "a general contact phone number"},
	{Name: "contactName", Type: "string", Description: "a named contact person, if one is listed"},
	{Name: "contactTitle", Type: "string", Description: "that contact's title or role, if listed"},
	{Name: "address", Type: "string", Description: "a physical mailing address, if listed"},
}

const extractInstruction = "Find this organization's general contact information. Check the page " +
	"header, footer, and any \"Contact Us\" section first; role-based addresses (info@, contact@, " +
	"hello@, office@) are preferred over a named individual's address."

// Loop drives one pass of the contact-extraction loop.
type Loop struct {
	Backend       backend.Client
	Driver        browser.Driver
	LLM           llmextract.Client
	LLMProvider   llmextract.Provider
	LLMModel      string
	NavTimeout    time.Duration
	PostLoadSleep time.Duration
	Logger        *slog.Logger
}

func (l *Loop) Run(ctx context.Context) error {
	targets, err := l.Backend.GetOrgsNeedingContactInfo(ctx, itemLimit)
	if err != nil {
		return fmt.Errorf("contactloop: get orgs needing contact info: %w", err)
	}

	for _, target := range targets {
		info := l.extractOne(ctx, target)
		if err := l.Backend.SaveOrgContactInfo(ctx, target.OrgID, info); err != nil && l.Logger != nil {
			l.Logger.Warn("contactloop: save contact info failed", "orgId", target.OrgID, "error", err)
		}
	}
	return nil
}

// extractOne always returns a ContactInfo, even on failure: both fields
// absent, so the backend's retry backoff is honored (spec §4.8).
func (l *Loop) extractOne(ctx context.Context, target model.ContactExtractionTarget) model.ContactInfo {
	page, err := l.Driver.NewPage(ctx)
	if err != nil {
		return model.ContactInfo{}
	}
	defer page.Close()

	browser.WithLLM(page, l.LLM, l.LLMProvider, l.LLMModel)

	navTimeout := l.NavTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}
	if err := page.Goto(ctx, target.URL, browser.GotoOptions{WaitUntil: "networkidle", Timeout: navTimeout}); err != nil {
		return model.ContactInfo{}
	}

	sleep := l.PostLoadSleep
	if sleep <= 0 {
		sleep = 3 * time.Second
	}
	page.WaitForTimeout(sleep)

	fields, err := page.Extract(ctx, extractInstruction, extractFields)
	if err != nil {
		return model.ContactInfo{}
	}

	email, _ := fields["email"].(string)
	phone, _ := fields["phone"].(string)
	return model.ContactInfo{Email: email, Phone: phone}
}
