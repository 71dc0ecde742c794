package explore

import (
	"reflect"
	"testing"
)

func TestDeriveSearchTerms_Deterministic(t *testing.T) {
	a := DeriveSearchTerms("Kid Yoga PDX", "https://kidyoga.example/camps")
	b := DeriveSearchTerms("Kid Yoga PDX", "https://kidyoga.example/camps")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected deterministic output, got %v vs %v", a, b)
	}
}

func TestDeriveSearchTerms_FiltersStopwordsAndShortTokens(t *testing.T) {
	terms := DeriveSearchTerms("The Summer Camp of Kids", "https://example.com/for/the/camp")
	for _, term := range terms {
		if stopWords[term] {
			t.Fatalf("expected stopword %q to be filtered", term)
		}
		if len(term) < 3 {
			t.Fatalf("expected short token %q to be filtered", term)
		}
	}
}

func TestDeriveSearchTerms_CapsAtFive(t *testing.T) {
	terms := DeriveSearchTerms("Alpha Beta Gamma Delta Epsilon Zeta Eta", "https://example.com")
	if len(terms) > 5 {
		t.Fatalf("expected at most 5 terms, got %d", len(terms))
	}
}
