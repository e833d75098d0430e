package jsonutil

import "strings"

// Lookup resolves a dot-separated path ("a.b.c") against nested maps.
// An empty path returns the map itself.
func Lookup(m map[string]any, path string) (any, bool) {
	if path == "" {
		return m, true
	}
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = mm[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// IsEmpty reports whether v carries no usable content: nil, empty or
// blank string, empty map or slice.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	default:
		return false
	}
}

// DeepFind searches nested maps and slices for the first value stored
// under key, up to maxDepth levels down. The bound keeps adversarial or
// degenerate payloads from recursing without limit.
func DeepFind(v any, key string, maxDepth int) (any, bool) {
	if maxDepth <= 0 {
		return nil, false
	}
	switch x := v.(type) {
	case map[string]any:
		if found, ok := x[key]; ok {
			return found, true
		}
		for _, vv := range x {
			if found, ok := DeepFind(vv, key, maxDepth-1); ok {
				return found, true
			}
		}
	case []any:
		for _, vv := range x {
			if found, ok := DeepFind(vv, key, maxDepth-1); ok {
				return found, true
			}
		}
	}
	return nil, false
}
