package llm

import (
	"encoding/json"
	"testing"
)

func TestExtractJSONObject_StrictPayload(t *testing.T) {
	raw, err := ExtractJSONObject(`{"next_step": "explore"}`)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	var out struct {
		NextStep string `json:"next_step"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.NextStep != "explore" {
		t.Fatalf("expected explore, got %q", out.NextStep)
	}
}

func TestExtractJSONObject_EmbeddedInProse(t *testing.T) {
	text := `Sure! Here is the analysis you asked for:

{"next_step": "clarify", "confidence": 0.7}

Let me know if you need anything else.`

	raw, err := ExtractJSONObject(text)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["next_step"] != "clarify" {
		t.Fatalf("expected clarify, got %v", out["next_step"])
	}
}

func TestExtractJSONObject_TrailingGarbage(t *testing.T) {
	raw, err := ExtractJSONObject(`{"next_step": "suggest_agent"} trailing tokens the model emitted`)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["next_step"] != "suggest_agent" {
		t.Fatalf("expected suggest_agent, got %v", out["next_step"])
	}
}

func TestExtractJSONObject_MarkdownFences(t *testing.T) {
	raw, err := ExtractJSONObject("```json\n{\"is_mature\": true}\n```")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["is_mature"] != true {
		t.Fatalf("expected is_mature true, got %v", out["is_mature"])
	}
}

func TestExtractJSONObject_NestedBraces(t *testing.T) {
	text := `analysis: {"model": {"claim": "x", "props": [{"id": "p1"}]}} done`
	raw, err := ExtractJSONObject(text)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	var out struct {
		Model struct {
			Claim string `json:"claim"`
		} `json:"model"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Model.Claim != "x" {
		t.Fatalf("nested object mangled: %+v", out)
	}
}

func TestExtractJSONObject_NoObject(t *testing.T) {
	if _, err := ExtractJSONObject("no json here at all"); err == nil {
		t.Fatal("expected error when no object present")
	}
}

func TestUnmarshalObject(t *testing.T) {
	var verdict struct {
		IsMature   bool    `json:"is_mature"`
		Confidence float64 `json:"confidence"`
	}
	err := UnmarshalObject(`The verdict: {"is_mature": false, "confidence": 0.4} as requested`, &verdict)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if verdict.IsMature || verdict.Confidence != 0.4 {
		t.Fatalf("unexpected verdict %+v", verdict)
	}
}
