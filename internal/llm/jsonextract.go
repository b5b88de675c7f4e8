package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject pulls the first JSON object out of reasoning-capability
// output. Models occasionally wrap JSON in prose or append commentary, so
// the extraction is a contract with three accepted shapes:
//
//  1. the payload is exactly the JSON object,
//  2. the object is embedded in surrounding prose (parse from the first '{'),
//  3. the object is followed by trailing non-JSON data (truncate at the
//     position where the parser stopped).
//
// Markdown code fences are stripped first.
func ExtractJSONObject(text string) (json.RawMessage, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	// Shape 1: strict parse.
	if json.Valid([]byte(cleaned)) && strings.HasPrefix(cleaned, "{") {
		return json.RawMessage(cleaned), nil
	}

	// Shapes 2 and 3: parse the first value starting at the first '{';
	// the decoder stops cleanly before any trailing data.
	start := strings.IndexByte(cleaned, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in output")
	}

	dec := json.NewDecoder(strings.NewReader(cleaned[start:]))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse JSON object: %w", err)
	}
	return raw, nil
}

// UnmarshalObject extracts and decodes a JSON object into v.
func UnmarshalObject(text string, v any) error {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode JSON object: %w", err)
	}
	return nil
}
