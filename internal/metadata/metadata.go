package metadata

import (
	"encoding/json"
	"fmt"
)

// Well-known keys used by the result cards
const (
	KeyName            = "Name"
	KeySector          = "Sector"
	KeyIndustry        = "Industry"
	KeyCity            = "City"
	KeyState           = "State"
	KeyCountry         = "Country"
	KeyTicker          = "Ticker"
	KeyFounded         = "Founded"
	KeyBusinessSummary = "Business Summary"
)

// Metadata is an open, schema-less mapping of result annotations
type Metadata map[string]Value

// Get returns the value stored under key, or Absent when missing.
// A nil Metadata behaves as an empty one.
func (m Metadata) Get(key string) Value {
	if m == nil {
		return Absent()
	}
	v, ok := m[key]
	if !ok {
		return Absent()
	}
	return v
}

// Text returns the display text for key, or fallback when the value
// is missing or not truthy.
func (m Metadata) Text(key, fallback string) string {
	v := m.Get(key)
	if !v.Truthy() {
		return fallback
	}
	return v.Display()
}

// UnmarshalJSON accepts an object or null. Null decodes to an empty map.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("metadata: expected object: %w", err)
	}
	if raw == nil {
		raw = Metadata{}
	}
	*m = raw
	return nil
}
