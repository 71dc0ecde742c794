package config

import "testing"

func TestClampWorkers(t *testing.T) {
	cases := map[int]int{
		0:   1,
		1:   1,
		5:   5,
		10:  10,
		11:  1,
		-3:  1,
		200: 1,
	}
	for in, want := range cases {
		if got := ClampWorkers(in); got != want {
			t.Fatalf("ClampWorkers(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestValidate_RequiresBackendURL(t *testing.T) {
	cfg := defaults()
	cfg.LLM.DefaultProvider = "openai"
	cfg.LLM.OpenAI.APIKey = "k"
	cfg.LLM.OpenAI.Model = "m"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing backend.baseURL")
	}
	cfg.Backend.BaseURL = "https://backend.internal"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RejectsIncompleteProvider(t *testing.T) {
	cfg := defaults()
	cfg.Backend.BaseURL = "https://backend.internal"
	cfg.LLM.DefaultProvider = "anthropic"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for incomplete anthropic config")
	}
}
