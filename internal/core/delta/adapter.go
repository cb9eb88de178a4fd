package delta

import (
	"encoding/json"
	"fmt"
)

// Parse decodes a raw interpreter response into a normalized,
// validated Delta. The payload must be a JSON object of the form
//
//	{"new_steps": [{"label": "...", "kind": "...", "branch_label": "..."}], "attach_to": "..."}
//
// Unknown fields are ignored so interpreter models may attach extra
// commentary without breaking the pipeline.
func Parse(data []byte) (*Delta, error) {
	var d Delta
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}
