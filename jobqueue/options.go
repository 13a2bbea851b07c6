package jobqueue

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// callerID extracts the caller identity from an options bag per §4.E.2:
// user_id, falling back to client_id, falling back to "anonymous".
func callerID(options map[string]any) string {
	if v, ok := options["user_id"].(string); ok && v != "" {
		return v
	}
	if v, ok := options["client_id"].(string); ok && v != "" {
		return v
	}
	return "anonymous"
}

// contextVariables builds the engine's context.Variables bag from an
// options document per §6: client_id becomes user_id when no explicit
// user_id is set, user_query passes through unchanged, and extra_data and
// variables are merged in (variables wins on key conflict, since it's the
// more specific of the two).
//
// The scalar fields (client_id, user_id, user_query) are read through a
// gjson/sjson round trip, since the options bag arrives as arbitrary
// caller JSON; extra_data and variables are merged by direct map copies.
func contextVariables(options map[string]any) (map[string]any, error) {
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}
	raw, err := sjson.SetRawBytes(nil, "root", optionsJSON)
	if err != nil {
		return nil, err
	}

	out := map[string]any{}

	if clientID := gjson.GetBytes(raw, "root.client_id"); clientID.Exists() {
		out["user_id"] = clientID.String()
	}
	if userID := gjson.GetBytes(raw, "root.user_id"); userID.Exists() {
		out["user_id"] = userID.String()
	}
	if userQuery := gjson.GetBytes(raw, "root.user_query"); userQuery.Exists() {
		out["user_query"] = userQuery.String()
	}

	if extra, ok := options["extra_data"].(map[string]any); ok {
		for k, v := range extra {
			out[k] = v
		}
	}
	if vars, ok := options["variables"].(map[string]any); ok {
		for k, v := range vars {
			out[k] = v
		}
	}

	return out, nil
}
