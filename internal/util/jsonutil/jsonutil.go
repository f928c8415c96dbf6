package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Tier reports which decode path produced a value.
type Tier int

const (
	// TierStrict: the raw text was valid JSON as-is.
	TierStrict Tier = iota + 1
	// TierExtracted: a JSON block was located inside surrounding prose.
	TierExtracted
)

// ErrNoJSON is returned when no decodable JSON exists anywhere in the text.
var ErrNoJSON = errors.New("jsonutil: no JSON payload found")

// DecodeLoose decodes model output into v with best effort: strict parse of
// the whole text first, then the first fenced or balanced JSON block found
// anywhere in it. The returned Tier tells the caller which path succeeded.
func DecodeLoose(raw string, v any) (Tier, error) {
	trimmed := strings.TrimSpace(raw)
	if err := UnmarshalFlex([]byte(trimmed), v); err == nil {
		return TierStrict, nil
	}
	block, ok := ExtractBlock(trimmed)
	if !ok {
		return 0, ErrNoJSON
	}
	if err := UnmarshalFlex([]byte(block), v); err != nil {
		return 0, err
	}
	return TierExtracted, nil
}

// ExtractBlock locates the first JSON object or array embedded in s.
// A ```json fenced block wins; otherwise the first balanced {...} or [...]
// (string- and escape-aware) is returned.
func ExtractBlock(s string) (string, bool) {
	for _, fence := range []string{"```json", "```JSON", "```"} {
		if i := strings.Index(s, fence); i >= 0 {
			rest := s[i+len(fence):]
			if j := strings.Index(rest, "```"); j >= 0 {
				candidate := strings.TrimSpace(rest[:j])
				if candidate != "" && (candidate[0] == '{' || candidate[0] == '[') {
					return candidate, true
				}
			}
		}
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	open := s[start]
	var closing byte = '}'
	if open == '[' {
		closing = ']'
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// structural characters inside strings do not count
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// UnmarshalFlex tries to unmarshal JSON bytes into v with best effort:
// 1) Direct unmarshal
// 2) Normalize unicode escapes and unmarshal again
// This helps when JSON contains double-escaped unicode sequences.
func UnmarshalFlex(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	norm, err := NormalizeJSONUnicode(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(norm, v)
}

// MarshalNoEscape encodes v into JSON without escaping <, >, & into <, etc.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnescapeUnicodeString converts JSON unicode escapes like ">" into
// actual characters. Handles double-escaped sequences like "\\u003e" -> ">".
func UnescapeUnicodeString(s string) (string, error) {
	// Trick: force JSON to treat the string as a quoted JSON string
	esc := strings.ReplaceAll(s, `\`, `\\`)
	esc = strings.ReplaceAll(esc, `"`, `\"`)
	var out string
	if err := json.Unmarshal([]byte(`"`+esc+`"`), &out); err != nil {
		return "", err
	}
	return out, nil
}

// NormalizeJSONUnicode parses JSON bytes and recursively unescapes any
// remaining double-escaped unicode sequences inside string values. It also
// unwraps the case where the whole payload arrived as a quoted JSON string.
func NormalizeJSONUnicode(raw []byte) ([]byte, error) {
	var anyVal any
	if err := json.Unmarshal(raw, &anyVal); err != nil {
		var s string
		if err2 := json.Unmarshal(raw, &s); err2 != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(s), &anyVal); err != nil {
			return nil, errors.New("jsonutil: cannot parse JSON payload")
		}
	}
	if s, ok := anyVal.(string); ok {
		// Whole payload was a quoted string; try one more unwrap.
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			anyVal = inner
		}
	}
	return MarshalNoEscape(deepUnescape(anyVal))
}

// deepUnescape recursively traverses maps and slices,
// unescaping unicode sequences in all string values.
func deepUnescape(v any) any {
	switch x := v.(type) {
	case string:
		if s, err := UnescapeUnicodeString(x); err == nil {
			return s
		}
		return x
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = deepUnescape(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = deepUnescape(vv)
		}
		return out
	default:
		return v
	}
}
