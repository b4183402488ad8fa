package llm

import (
	"encoding/json"
	"testing"
)

func TestFirstJSONValue_PlainObject(t *testing.T) {
	raw, ok := FirstJSONValue(`{"risks": []}`)
	if !ok {
		t.Fatal("Expected a JSON value")
	}
	if string(raw) != `{"risks": []}` {
		t.Errorf("Unexpected value: %s", raw)
	}
}

func TestFirstJSONValue_WrappedInProse(t *testing.T) {
	text := "Sure! Here is the analysis you asked for:\n```json\n" +
		`{"risks": [{"title": "Port closure"}], "opportunities": []}` +
		"\n```\nLet me know if you need anything else."

	raw, ok := FirstJSONValue(text)
	if !ok {
		t.Fatal("Expected a JSON value")
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("Extracted value does not parse: %v", err)
	}
	if _, exists := parsed["risks"]; !exists {
		t.Error("Expected risks key in extracted object")
	}
}

func TestFirstJSONValue_BracketsInsideStrings(t *testing.T) {
	text := `prefix {"title": "uses } and ] inside", "n": 1} suffix`

	raw, ok := FirstJSONValue(text)
	if !ok {
		t.Fatal("Expected a JSON value")
	}

	var parsed struct {
		Title string `json:"title"`
		N     int    `json:"n"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("Extracted value does not parse: %v", err)
	}
	if parsed.Title != "uses } and ] inside" || parsed.N != 1 {
		t.Errorf("Unexpected parse result: %+v", parsed)
	}
}

func TestFirstJSONValue_EscapedQuotes(t *testing.T) {
	text := `{"msg": "she said \"hello}\" loudly"}`

	raw, ok := FirstJSONValue(text)
	if !ok {
		t.Fatal("Expected a JSON value")
	}
	if string(raw) != text {
		t.Errorf("Expected full object, got: %s", raw)
	}
}

func TestFirstJSONValue_TopLevelArray(t *testing.T) {
	raw, ok := FirstJSONValue(`noise [1, 2, {"a": 3}] trailing`)
	if !ok {
		t.Fatal("Expected a JSON value")
	}
	if string(raw) != `[1, 2, {"a": 3}]` {
		t.Errorf("Unexpected value: %s", raw)
	}
}

func TestFirstJSONValue_SkipsUnparseableCandidate(t *testing.T) {
	// First balanced candidate {not valid json} fails to parse;
	// the scan must continue to the next candidate.
	text := `{not valid json} and later {"ok": true}`

	raw, ok := FirstJSONValue(text)
	if !ok {
		t.Fatal("Expected a JSON value")
	}
	if string(raw) != `{"ok": true}` {
		t.Errorf("Unexpected value: %s", raw)
	}
}

func TestFirstJSONValue_Malformed(t *testing.T) {
	cases := []string{
		"",
		"no json here",
		"{unclosed",
		"[1, 2",
		`"just a string"`,
		"}{",
		"]]][[[",
	}

	for _, text := range cases {
		if raw, ok := FirstJSONValue(text); ok {
			t.Errorf("Input %q: expected no value, got %s", text, raw)
		}
	}
}

func TestUnmarshalFirst_StructuralMismatch(t *testing.T) {
	var target struct {
		Risks []string `json:"risks"`
	}
	// risks is an object, not an array: must be rejected
	if UnmarshalFirst(`{"risks": {"a": 1}}`, &target) {
		t.Error("Expected mismatch to be rejected")
	}

	if !UnmarshalFirst(`{"risks": ["a", "b"]}`, &target) {
		t.Fatal("Expected valid input to unmarshal")
	}
	if len(target.Risks) != 2 {
		t.Errorf("Expected 2 risks, got %d", len(target.Risks))
	}
}

func TestFirstJSONValue_DeepNesting(t *testing.T) {
	// Build a deeply nested but balanced value
	text := ""
	for i := 0; i < 50; i++ {
		text += `{"a":`
	}
	text += "1"
	for i := 0; i < 50; i++ {
		text += "}"
	}

	if _, ok := FirstJSONValue("garbage " + text); !ok {
		t.Error("Expected deeply nested value to be extracted")
	}
}
