package graph

import "encoding/json"

// deepCopyMap clones an opaque map[string]any by round-tripping it through
// JSON. The input bag has no fixed schema (literals, nested objects,
// arrays, template strings), so this is the simplest correct deep copy.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		// Not JSON-serializable; fall back to a shallow copy rather than
		// losing the input bag entirely.
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// shallowCopyMap copies only the top level; used for the input-resolution
// revert in Engine.Execute, which spec'd as a shallow copy (§4.C.4.a).
func shallowCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
