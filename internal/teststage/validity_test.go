package teststage

import "testing"

func TestZeroSessionsValid_NotYetPublishedPattern(t *testing.T) {
	code := `return { status: "registration opens in March" };`
	valid, note := ZeroSessionsValid(code, "https://example.com/camps")
	if !valid || note == "" {
		t.Fatalf("expected valid with a note, got valid=%v note=%q", valid, note)
	}
}

func TestZeroSessionsValid_KnownSeasonalDomain(t *testing.T) {
	valid, note := ZeroSessionsValid("", "https://www.pcc.edu/programs/summer")
	if !valid || note == "" {
		t.Fatalf("expected pcc.edu to be a known seasonal catalog, got valid=%v note=%q", valid, note)
	}
}

func TestZeroSessionsValid_EduSuffix(t *testing.T) {
	valid, _ := ZeroSessionsValid("", "https://camps.someschool.edu/summer")
	if !valid {
		t.Fatalf("expected .edu suffix to be treated as a seasonal catalog")
	}
}

func TestZeroSessionsValid_CollegeOrUniversitySubstring(t *testing.T) {
	valid, note := ZeroSessionsValid("", "https://www.somecollege.org/summer-camps")
	if !valid || note == "" {
		t.Fatalf("expected 'college' substring in the URL to be treated as a seasonal catalog, got valid=%v note=%q", valid, note)
	}

	valid, note = ZeroSessionsValid("", "https://camps.stateuniversity.com/register")
	if !valid || note == "" {
		t.Fatalf("expected 'university' substring in the URL to be treated as a seasonal catalog, got valid=%v note=%q", valid, note)
	}
}

func TestZeroSessionsValid_OrdinaryCommercialSite(t *testing.T) {
	valid, note := ZeroSessionsValid("return [];", "https://www.kidsoutandabout.com/camps")
	if valid || note != "" {
		t.Fatalf("expected an ordinary commercial site with no sessions to be invalid, got valid=%v note=%q", valid, note)
	}
}
