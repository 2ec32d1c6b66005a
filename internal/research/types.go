package research

import (
	"bytes"
	"encoding/json"

	"github.com/ca-srg/researchpanel/internal/metadata"
)

const (
	// Path is the search endpoint path relative to the configured base URL
	Path = "/api/research"

	// TopK is the fixed number of results requested per submission
	TopK = 5
)

// Request is the body posted to the search endpoint
type Request struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// NewRequest builds a request for query with the fixed result count
func NewRequest(query string) Request {
	return Request{Query: query, K: TopK}
}

// Result is a single search hit returned by the endpoint
type Result struct {
	Text     string            `json:"text"`
	Metadata metadata.Metadata `json:"metadata"`
}

// UnmarshalJSON decodes a result without enforcing a schema. Elements that
// are not objects decode to an empty result, a non-string text is kept in its
// display form and a metadata value that is not an object is ignored.
func (r *Result) UnmarshalJSON(data []byte) error {
	*r = Result{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil
	}

	if raw, ok := fields["text"]; ok {
		var v metadata.Value
		if err := json.Unmarshal(raw, &v); err == nil {
			if s, isString := v.Str(); isString {
				r.Text = s
			} else {
				r.Text = v.Display()
			}
		}
	}

	if raw, ok := fields["metadata"]; ok {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			var md metadata.Metadata
			if err := json.Unmarshal(trimmed, &md); err == nil {
				r.Metadata = md
			}
		}
	}

	return nil
}

// Response is the success body of the search endpoint
type Response struct {
	Results []Result `json:"results"`
}
