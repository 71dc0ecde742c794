package contactloop

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"scraperdev/internal/backend"
	"scraperdev/internal/browser"
	"scraperdev/internal/model"
)

func TestLoop_ExtractsAndSavesContactInfo(t *testing.T) {
	page := &browser.FakePage{
		HTMLContent: `<footer>Contact us: info@campfun.example, (555) 123-4567</footer>`,
		ExtractFields: map[string]any{
			"email": "info@campfun.example",
			"phone": "(555) 123-4567",
		},
	}
	driver := &browser.FakeDriver{Pages: []*browser.FakePage{page}}

	fake := backend.NewFakeClient()
	target := model.ContactExtractionTarget{OrgID: uuid.New(), Name: "Camp Fun", URL: "https://campfun.example"}
	fake.ContactTargets = []model.ContactExtractionTarget{target}

	loop := &Loop{Backend: fake, Driver: driver}

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if !page.Closed {
		t.Fatalf("expected page to be closed")
	}

	saved, ok := fake.SavedContactInfo[target.OrgID]
	if !ok {
		t.Fatalf("expected contact info to be saved for org %s", target.OrgID)
	}
	if saved.Email != "info@campfun.example" || saved.Phone != "(555) 123-4567" {
		t.Fatalf("unexpected saved contact info: %+v", saved)
	}
}

func TestLoop_NavigationFailureSavesEmptyInfoForRetry(t *testing.T) {
	page := &browser.FakePage{GotoErr: context.DeadlineExceeded}
	driver := &browser.FakeDriver{Pages: []*browser.FakePage{page}}

	fake := backend.NewFakeClient()
	target := model.ContactExtractionTarget{OrgID: uuid.New(), Name: "Broken Site", URL: "https://broken.example"}
	fake.ContactTargets = []model.ContactExtractionTarget{target}

	loop := &Loop{Backend: fake, Driver: driver}

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	saved, ok := fake.SavedContactInfo[target.OrgID]
	if !ok {
		t.Fatalf("expected a save call even on navigation failure, so the backend can apply retry backoff")
	}
	if saved.Email != "" || saved.Phone != "" {
		t.Fatalf("expected empty contact info on failure, got %+v", saved)
	}
}

func TestLoop_RespectsItemLimit(t *testing.T) {
	fake := backend.NewFakeClient()
	for i := 0; i < 5; i++ {
		fake.ContactTargets = append(fake.ContactTargets, model.ContactExtractionTarget{
			OrgID: uuid.New(),
			URL:   "https://example.com",
		})
	}
	driver := &browser.FakeDriver{Pages: []*browser.FakePage{{}, {}, {}, {}, {}}}
	loop := &Loop{Backend: fake, Driver: driver}

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(fake.SavedContactInfo) != itemLimit {
		t.Fatalf("expected exactly %d orgs processed, got %d", itemLimit, len(fake.SavedContactInfo))
	}
}
