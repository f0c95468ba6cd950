package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject returns the first well-formed JSON object embedded in
// raw model output. Models wrap JSON in prose or markdown fences often
// enough that strict unmarshaling of the whole response is a losing game.
func ExtractJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	for start != -1 {
		if end, ok := matchBrace(raw, start); ok {
			candidate := raw[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.IndexByte(raw[start+1:], '{')
		if next == -1 {
			break
		}
		start += 1 + next
	}
	return "", false
}

// matchBrace finds the index of the brace closing the object opened at
// start, honoring strings and escapes.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// DecodeObject extracts the first JSON object from raw and unmarshals it
// into v. Returns a ParseError when no object is found or decoding fails;
// callers validate required fields themselves.
func DecodeObject(raw string, v any) error {
	obj, ok := ExtractJSONObject(raw)
	if !ok {
		return &ParseError{Reason: "no JSON object in response", Raw: raw}
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return &ParseError{Reason: err.Error(), Raw: raw}
	}
	return nil
}
