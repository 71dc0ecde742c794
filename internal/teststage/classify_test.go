package teststage

import "testing"

func TestClassify_ProgrammaticWeeksArray(t *testing.T) {
	code := `const weeks = [{start:"2026-06-15", end:"2026-06-19"}, {start:"2026-06-22", end:"2026-06-26"}];
weeks.forEach(w => sessions.push({name:"Camp", startDate:w.start, endDate:w.end, priceInCents:25000}));`
	if got := Classify(code); got != ClassProgrammatic {
		t.Fatalf("expected programmatic, got %v", got)
	}
}

func TestClassify_BrowserDependentQuerySelector(t *testing.T) {
	code := `const cards = document.querySelectorAll(".activity-card"); return [];`
	if got := Classify(code); got != ClassBrowserDependent {
		t.Fatalf("expected browser-dependent, got %v", got)
	}
}

func TestClassify_GeneratorFunction(t *testing.T) {
	code := `function generateWeeklySessions(start, end) { sessions.push({name: "x"}); }`
	if got := Classify(code); got != ClassProgrammatic {
		t.Fatalf("expected programmatic via generateWeeklySessions, got %v", got)
	}
}

func TestClassify_ConservativeDefault(t *testing.T) {
	code := `export async function scrape(page) { return []; }`
	if got := Classify(code); got != ClassBrowserDependent {
		t.Fatalf("expected conservative browser-dependent default, got %v", got)
	}
}
