package agent

import "testing"

func TestParseLine_UnparsedOnInvalidJSON(t *testing.T) {
	evt := ParseLine("not json at all")
	if evt.Type != EventUnparsed {
		t.Fatalf("expected EventUnparsed, got %v", evt.Type)
	}
	if evt.RawLine != "not json at all" {
		t.Fatalf("expected raw line preserved, got %q", evt.RawLine)
	}
}

func TestParseLine_SystemInit(t *testing.T) {
	evt := ParseLine(`{"type":"system","model":"claude-x"}`)
	if evt.Type != EventSystem {
		t.Fatalf("expected EventSystem, got %v", evt.Type)
	}
	if modelFromSystemInit(evt) != "claude-x" {
		t.Fatalf("expected model claude-x, got %q", modelFromSystemInit(evt))
	}
}

func TestParseLine_AssistantTextVsToolUse(t *testing.T) {
	text := ParseLine(`{"type":"assistant","content":[{"type":"text","text":"hello"}]}`)
	if text.Type != EventAssistant {
		t.Fatalf("expected EventAssistant, got %v", text.Type)
	}
	if got := AssistantText(text); got != "hello" {
		t.Fatalf("expected text 'hello', got %q", got)
	}

	toolUse := ParseLine(`{"type":"assistant","content":[{"type":"tool_use","name":"Write","input":{"path":"a.ts"}}]}`)
	if toolUse.Type != EventToolUse {
		t.Fatalf("expected EventToolUse, got %v", toolUse.Type)
	}
	if preview := ToolUsePreview(toolUse, 100); preview == "" {
		t.Fatalf("expected non-empty tool use preview")
	}
}

func TestParseLine_ResultIsError(t *testing.T) {
	evt := ParseLine(`{"type":"result","is_error":true,"duration_ms":1500,"total_cost_usd":0.05}`)
	if evt.Type != EventResult {
		t.Fatalf("expected EventResult, got %v", evt.Type)
	}
	if !IsError(evt) {
		t.Fatalf("expected IsError true")
	}
	dur, cost := resultStats(evt)
	if dur != 1500 || cost != 0.05 {
		t.Fatalf("expected duration=1500 cost=0.05, got %d %f", dur, cost)
	}
}
