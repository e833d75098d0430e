package jsonutil

import (
	"regexp"
	"strings"
)

// Result is the outcome of normalizing free-form model output into a
// JSON object. Exactly one of Parsed / Err is meaningful; Raw always
// holds the original text.
type Result struct {
	Parsed map[string]any
	Raw    string
	Err    string
}

func (r Result) OK() bool { return r.Parsed != nil }

// AsMap returns the parsed object, or a tagged failure map carrying the
// parse error and a truncated copy of the raw response.
func (r Result) AsMap() map[string]any {
	if r.Parsed != nil {
		return r.Parsed
	}
	raw := r.Raw
	if len(raw) > 500 {
		raw = raw[:500]
	}
	return map[string]any{
		"error":        r.Err,
		"raw_response": raw,
	}
}

var fenceRE = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// Normalize recovers a JSON object from model output. Strategies are
// applied in order: strip a markdown code fence, parse directly, then
// parse the window between the first '{' and the last '}'. No strategy
// succeeding yields a Result tagged with the parse failure; Normalize
// never panics on arbitrary input.
func Normalize(raw string) Result {
	text := strings.TrimSpace(raw)
	if m := fenceRE.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	var obj map[string]any
	err := UnmarshalFlex([]byte(text), &obj)
	if err == nil && obj != nil {
		return Result{Parsed: obj, Raw: raw}
	}

	if i, j := strings.Index(text, "{"), strings.LastIndex(text, "}"); i >= 0 && j > i {
		var windowed map[string]any
		if werr := UnmarshalFlex([]byte(text[i:j+1]), &windowed); werr == nil && windowed != nil {
			return Result{Parsed: windowed, Raw: raw}
		} else if err == nil {
			err = werr
		}
	}

	// The tagged failure carries the parser's own message so callers see
	// what actually went wrong with the response.
	if err != nil {
		return Result{Raw: raw, Err: err.Error()}
	}
	return Result{Raw: raw, Err: "no JSON object found in response"}
}
