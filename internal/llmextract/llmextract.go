// Package llmextract is the daemon's AI-extraction facility: a small
// provider-agnostic client for asking a model to turn page markdown into
// structured fields. It is carried over verbatim from the teacher's
// internal/llm package (same FieldSpec/ExtractRequest/ExtractResult shape,
// same hand-rolled per-provider HTTP clients) since the exploration,
// contact-extraction, and market-discovery stages all lean on it (spec
// §4.2, §4.8, §4.9).
package llmextract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"scraperdev/internal/config"
)

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

// FieldSpec describes one field the caller wants extracted.
type FieldSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// ExtractRequest is what the exploration/contact/discovery stages send.
type ExtractRequest struct {
	URL      string
	Markdown string
	Fields   []FieldSpec
	Prompt   string
	Provider Provider
	Model    string
	Timeout  time.Duration
	Strict   bool
}

// ExtractResult holds the model's structured answer.
type ExtractResult struct {
	Fields map[string]any
}

// Client is the AI-extraction facility contract.
type Client interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (ExtractResult, error)
}

const systemPrompt = "You are a JSON-only extractor. Given page content and a list of " +
	"fields, respond with a single JSON object containing exactly those fields and no " +
	"commentary. Use null for fields you cannot find."

// NewClientFromConfig dispatches to the configured provider, optionally
// overridden per-call.
func NewClientFromConfig(cfg *config.LLMConfig, providerOverride, modelOverride string) (Client, error) {
	provider := Provider(strings.TrimSpace(providerOverride))
	if provider == "" {
		provider = Provider(cfg.DefaultProvider)
	}

	switch provider {
	case ProviderOpenAI:
		model := modelOverride
		if model == "" {
			model = cfg.OpenAI.Model
		}
		return &openAIClient{apiKey: cfg.OpenAI.APIKey, baseURL: cfg.OpenAI.BaseURL, model: model, http: &http.Client{}}, nil
	case ProviderAnthropic:
		model := modelOverride
		if model == "" {
			model = cfg.Anthropic.Model
		}
		return &anthropicClient{apiKey: cfg.Anthropic.APIKey, model: model, http: &http.Client{}}, nil
	case ProviderGoogle:
		model := modelOverride
		if model == "" {
			model = cfg.Google.Model
		}
		return &googleClient{apiKey: cfg.Google.APIKey, model: model, http: &http.Client{}}, nil
	default:
		return nil, fmt.Errorf("llmextract: unsupported provider %q", provider)
	}
}

// parseJSONFields tries a direct unmarshal, then falls back to scanning
// for the first top-level {...} object in content (models occasionally
// wrap JSON in prose despite the system prompt).
func parseJSONFields(content string) (map[string]any, error) {
	var direct map[string]any
	if err := json.Unmarshal([]byte(content), &direct); err == nil {
		return direct, nil
	}

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("llmextract: no JSON object found in response")
	}
	var nested map[string]any
	if err := json.Unmarshal([]byte(content[start:end+1]), &nested); err != nil {
		return nil, fmt.Errorf("llmextract: parse embedded JSON: %w", err)
	}
	return nested, nil
}

func buildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if req.Prompt != "" {
		b.WriteString(req.Prompt)
		b.WriteString("\n\n")
	}
	b.WriteString("Fields to extract:\n")
	for _, f := range req.Fields {
		b.WriteString(fmt.Sprintf("- %s (%s): %s\n", f.Name, f.Type, f.Description))
	}
	b.WriteString("\nPage URL: ")
	b.WriteString(req.URL)
	b.WriteString("\n\nPage content (markdown):\n")
	content := req.Markdown
	if len(content) > 12_000 {
		content = content[:12_000]
	}
	b.WriteString(content)
	return b.String()
}

func degradeOrFail(req ExtractRequest, content string, parseErr error) (ExtractResult, error) {
	if req.Strict {
		return ExtractResult{}, parseErr
	}
	return ExtractResult{Fields: map[string]any{"_raw": content}}, nil
}

type openAIClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

type openAIChatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) ExtractFields(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	baseURL := c.baseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	payload := openAIChatRequest{Model: c.model}
	payload.Messages = []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(req)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("llmextract: marshal openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return ExtractResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("llmextract: openai request: %w", err)
	}
	defer resp.Body.Close()

	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ExtractResult{}, fmt.Errorf("llmextract: decode openai response: %w", err)
	}
	if len(out.Choices) == 0 {
		return ExtractResult{}, fmt.Errorf("llmextract: openai response had no choices")
	}

	content := out.Choices[0].Message.Content
	fields, err := parseJSONFields(content)
	if err != nil {
		return degradeOrFail(req, content, err)
	}
	return ExtractResult{Fields: fields}, nil
}

type anthropicClient struct {
	apiKey string
	model  string
	http   *http.Client
}

type anthropicMessagesRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    string `json:"system"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type anthropicMessagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *anthropicClient) ExtractFields(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	payload := anthropicMessagesRequest{Model: c.model, MaxTokens: 2048, System: systemPrompt}
	payload.Messages = []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{{Role: "user", Content: buildUserPrompt(req)}}

	body, err := json.Marshal(payload)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("llmextract: marshal anthropic request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return ExtractResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("llmextract: anthropic request: %w", err)
	}
	defer resp.Body.Close()

	var out anthropicMessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ExtractResult{}, fmt.Errorf("llmextract: decode anthropic response: %w", err)
	}
	if len(out.Content) == 0 {
		return ExtractResult{}, fmt.Errorf("llmextract: anthropic response had no content")
	}

	content := out.Content[0].Text
	fields, err := parseJSONFields(content)
	if err != nil {
		return degradeOrFail(req, content, err)
	}
	return ExtractResult{Fields: fields}, nil
}

type googleClient struct {
	apiKey string
	model  string
	http   *http.Client
}

type googleGenerateContentRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

type googleGenerateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *googleClient) ExtractFields(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", c.model, c.apiKey)

	var payload googleGenerateContentRequest
	payload.Contents = []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}{{Parts: []struct {
		Text string `json:"text"`
	}{{Text: systemPrompt + "\n\n" + buildUserPrompt(req)}}}}

	body, err := json.Marshal(payload)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("llmextract: marshal google request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ExtractResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("llmextract: google request: %w", err)
	}
	defer resp.Body.Close()

	var out googleGenerateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ExtractResult{}, fmt.Errorf("llmextract: decode google response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return ExtractResult{}, fmt.Errorf("llmextract: google response had no candidates")
	}

	content := out.Candidates[0].Content.Parts[0].Text
	fields, err := parseJSONFields(content)
	if err != nil {
		return degradeOrFail(req, content, err)
	}
	return ExtractResult{Fields: fields}, nil
}
