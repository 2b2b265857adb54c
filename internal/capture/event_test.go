package capture

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEvent_MarshalJSON(t *testing.T) {
	e := Event{
		Kind:      Append,
		Text:      "hello\n",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:    History,
	}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["type"] != "append" {
		t.Errorf("type = %v, want append", got["type"])
	}
	if got["text"] != "hello\n" {
		t.Errorf("text = %v, want %q", got["text"], "hello\n")
	}
	meta, ok := got["meta"].(map[string]any)
	if !ok {
		t.Fatalf("meta is not an object: %v", got["meta"])
	}
	if meta["source"] != "SCROLLBACK" {
		t.Errorf("meta.source = %v, want SCROLLBACK", meta["source"])
	}
	if _, present := meta["runId"]; present {
		t.Errorf("meta.runId should be omitted when empty, got %v", meta["runId"])
	}
}

func TestEvent_MarshalJSON_WithRunID(t *testing.T) {
	e := Event{Kind: Append, Text: "x\n", Source: ScreenStable, RunID: "abc-123"}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	meta := got["meta"].(map[string]any)
	if meta["runId"] != "abc-123" {
		t.Errorf("meta.runId = %v, want abc-123", meta["runId"])
	}
	if meta["source"] != "SCREEN_STABLE" {
		t.Errorf("meta.source = %v, want SCREEN_STABLE", meta["source"])
	}
}
