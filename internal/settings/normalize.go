// Package settings normalises arbitrary host configuration payloads into
// the string-keyed maps requirement rules evaluate against.
package settings

import "encoding/json"

// Normalize converts payload into a map[string]any. String-keyed maps are
// shallow copied; structs and other map shapes go through a JSON round
// trip. Payloads that cannot be represented as an object normalise to an
// empty map rather than failing: a requirement rule over an opaque payload
// should see no bindings, not an error.
func Normalize(payload any) map[string]any {
	switch value := payload.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		out := make(map[string]any, len(value))
		for key, entry := range value {
			out[key] = entry
		}
		return out
	default:
		return viaJSON(payload)
	}
}

func viaJSON(payload any) map[string]any {
	raw, err := json.Marshal(payload)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
