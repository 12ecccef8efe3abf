// SPDX-License-Identifier: Apache-2.0
package core

import "encoding/json"

// stringifyResult renders a tool's result as text for the tool message
// the model sees next. Strings pass through; everything else is
// JSON-encoded.
func stringifyResult(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
