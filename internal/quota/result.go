package quota

import (
	"encoding/json"
	"time"

	"github.com/tidwall/gjson"
)

// Result is the structured document printed by the helper.
// The document is kept verbatim; no schema is enforced here.
type Result struct {
	Raw       json.RawMessage
	FetchedAt time.Time
}

// Value decodes the document into generic Go values
// (map[string]any, []any, float64, string, bool or nil).
func (r *Result) Value() (any, error) {
	var v any
	if err := json.Unmarshal(r.Raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Get returns the value at a gjson path, e.g. "five_hour.utilization".
func (r *Result) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Raw, path)
}

// MarshalJSON returns the raw document unchanged.
func (r *Result) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}
