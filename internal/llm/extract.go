package llm

import (
	"encoding/json"
)

// FirstJSONValue locates the first balanced top-level JSON object or
// array anywhere in free-form model output and returns its raw bytes.
// Model responses routinely wrap the JSON in prose or markdown fences,
// so this is a best-effort heuristic: candidates that balance but fail
// to parse are skipped and the scan continues. Returns false when no
// parseable value exists.
func FirstJSONValue(text string) ([]byte, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		candidate, ok := scanBalanced(text[i:])
		if !ok {
			continue
		}
		if json.Valid(candidate) {
			return candidate, true
		}
	}
	return nil, false
}

// scanBalanced reads a balanced {...} or [...] prefix of s, tracking
// string literals and escapes so brackets inside strings don't count.
func scanBalanced(s string) ([]byte, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return []byte(s[:i+1]), true
			}
			if depth < 0 {
				return nil, false
			}
		}
	}

	return nil, false
}

// UnmarshalFirst extracts the first JSON value from text and unmarshals
// it into v. Returns false on any structural mismatch.
func UnmarshalFirst(text string, v interface{}) bool {
	raw, ok := FirstJSONValue(text)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}
