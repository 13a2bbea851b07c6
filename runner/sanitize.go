package runner

import "fmt"

// maxSanitizeDepth bounds the recursion in sanitize so a pathological or
// cyclic-looking container can never blow the stack on its way to an
// external poller.
const maxSanitizeDepth = 8

// sanitize coerces v into a JSON-safe shape for latest_results.results per
// §4.D: primitives pass through, maps and slices recurse, and anything
// else — or anything past maxSanitizeDepth — becomes a "<type>: repr"
// placeholder string.
func sanitize(v any, depth int) any {
	if depth <= 0 {
		return fmt.Sprintf("<%T>: %v", v, v)
	}

	switch t := v.(type) {
	case nil, bool, string, int, int32, int64, float32, float64, uint, uint32, uint64:
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = sanitize(val, depth-1)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = sanitize(val, depth-1)
		}
		return out
	default:
		return fmt.Sprintf("<%T>: %v", v, v)
	}
}
