package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

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

// MarshalNoEscapeIndent encodes v with indentation but without HTML escaping.
func MarshalNoEscapeIndent(v any, prefix, indent string) ([]byte, error) {
	flat, err := MarshalNoEscape(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, flat, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnescapeUnicodeString converts JSON unicode escapes like ">" into actual
// characters. Handles double-escaped sequences like "\\u003e" -> ">".
func UnescapeUnicodeString(s string) (string, error) {
	// Force JSON to treat the string as a quoted JSON string.
	esc := strings.ReplaceAll(s, `\`, `\\`)
	esc = strings.ReplaceAll(esc, `"`, `\"`)
	var out string
	if err := json.Unmarshal([]byte(`"`+esc+`"`), &out); err != nil {
		return "", err
	}
	return out, nil
}

// NormalizeJSONUnicode parses JSON bytes and recursively unescapes any
// remaining double-escaped unicode sequences inside string values.
func NormalizeJSONUnicode(raw []byte) ([]byte, error) {
	var anyVal any
	if err := json.Unmarshal(raw, &anyVal); err != nil {
		// The entire payload may itself be a quoted JSON string.
		var s string
		if err2 := json.Unmarshal(raw, &s); err2 != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(s), &anyVal); err != nil {
			return nil, errors.New("jsonutil: cannot parse JSON payload")
		}
	}
	return MarshalNoEscape(deepUnescape(anyVal))
}

// UnmarshalFlex tries to unmarshal JSON bytes into v with best effort:
// 1) direct unmarshal, 2) normalize unicode escapes and retry.
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

// deepUnescape recursively traverses maps and slices, unescaping
// unicode sequences in all string values.
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
