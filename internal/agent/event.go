// Package agent supervises the code-generating agent CLI subprocess
// (spec §4.4, §6). The subprocess-handling idiom — exec.CommandContext
// with cmd.Cancel for graceful SIGTERM and cmd.WaitDelay for a forced
// kill, bufio.Scanner over a line-delimited JSON event stream — is
// grounded on the research-dashboard runner.go example (the teacher has
// no subprocess supervision code of its own; see SPEC_FULL.md §9).
package agent

import "encoding/json"

type EventType string

const (
	EventSystem    EventType = "system"
	EventAssistant EventType = "assistant"
	EventToolUse   EventType = "tool_use"
	EventToolResult EventType = "tool_result"
	EventResult    EventType = "result"
	EventUnparsed  EventType = "unparsed"
)

// Event is one entry in the agent's stdout stream, pulled by the caller
// rather than pushed through a callback mesh (spec §9 Design Notes).
type Event struct {
	Type    EventType
	Raw     map[string]any
	RawLine string // set only for EventUnparsed
}

// ParseLine turns one line of subprocess stdout into an Event. Lines
// that are not valid JSON become EventUnparsed and are never treated as
// code (spec §4.4).
func ParseLine(line string) Event {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Event{Type: EventUnparsed, RawLine: line}
	}

	kind, _ := raw["type"].(string)
	switch kind {
	case "system":
		return Event{Type: EventSystem, Raw: raw}
	case "assistant":
		if content, ok := raw["content"].([]any); ok {
			for _, c := range content {
				if m, ok := c.(map[string]any); ok {
					if t, _ := m["type"].(string); t == "tool_use" {
						return Event{Type: EventToolUse, Raw: raw}
					}
				}
			}
		}
		return Event{Type: EventAssistant, Raw: raw}
	case "tool_result":
		return Event{Type: EventToolResult, Raw: raw}
	case "result":
		return Event{Type: EventResult, Raw: raw}
	default:
		return Event{Type: EventUnparsed, RawLine: line}
	}
}

// AssistantText returns the incremental text of an assistant/text event,
// or "" if this event carries no text block.
func AssistantText(e Event) string {
	if e.Type != EventAssistant {
		return ""
	}
	content, ok := e.Raw["content"].([]any)
	if !ok {
		return ""
	}
	var out string
	for _, c := range content {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := m["type"].(string); t == "text" {
			if s, ok := m["text"].(string); ok {
				out += s
			}
		}
	}
	return out
}

// ToolUsePreview returns a short "name(args preview)" string for a
// tool_use event.
func ToolUsePreview(e Event, maxArgLen int) string {
	if e.Type != EventToolUse {
		return ""
	}
	content, ok := e.Raw["content"].([]any)
	if !ok {
		return ""
	}
	for _, c := range content {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := m["type"].(string); t != "tool_use" {
			continue
		}
		name, _ := m["name"].(string)
		args, _ := json.Marshal(m["input"])
		preview := string(args)
		if len(preview) > maxArgLen {
			preview = preview[:maxArgLen] + "…"
		}
		return name + "(" + preview + ")"
	}
	return ""
}

// IsError reports whether a result event signals an agent-side error.
func IsError(e Event) bool {
	if e.Type != EventResult {
		return false
	}
	if v, ok := e.Raw["is_error"].(bool); ok {
		return v
	}
	return false
}

func modelFromSystemInit(e Event) string {
	if e.Type != EventSystem {
		return ""
	}
	if v, ok := e.Raw["model"].(string); ok {
		return v
	}
	return ""
}

func resultStats(e Event) (durationMs int64, costUSD float64) {
	if e.Type != EventResult {
		return 0, 0
	}
	if v, ok := e.Raw["duration_ms"]; ok {
		durationMs = toInt64(v)
	}
	if v, ok := e.Raw["total_cost_usd"]; ok {
		costUSD = toFloat64(v)
	} else if v, ok := e.Raw["cost_usd"]; ok {
		costUSD = toFloat64(v)
	}
	return
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
