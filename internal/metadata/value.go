// Package metadata models the open key/value annotations attached to search
// results. Values are decoded into a small tagged union so that display code
// never handles untyped data directly.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds
type Kind int

const (
	KindAbsent Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindRaw
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single metadata value. The zero Value is absent.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	raw  json.RawMessage
}

// Absent returns the absent value
func Absent() Value { return Value{} }

// Null returns the JSON null value
func Null() Value { return Value{kind: KindNull} }

// String returns a string value
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean value
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind reports the variant held by v
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the key was missing
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Str returns the string payload and whether v is a string
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the numeric payload and whether v is a number
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Truthy reports whether the value displays as itself rather than a fallback.
// Absent, null, empty strings, zero, NaN and false are not truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindBool:
		return v.b
	case KindRaw:
		return true
	default:
		return false
	}
}

// Display renders the value as text. Non-truthy values and true render as "".
func (v Value) Display() string {
	if !v.Truthy() {
		return ""
	}
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return ""
	default:
		return string(v.raw)
	}
}

// UnmarshalJSON decodes any JSON value into the matching variant
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		*v = Absent()
		return nil
	}

	switch trimmed[0] {
	case 'n':
		*v = Null()
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("metadata: invalid string value: %w", err)
		}
		*v = String(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return fmt.Errorf("metadata: invalid boolean value: %w", err)
		}
		*v = Bool(b)
	case '{', '[':
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return fmt.Errorf("metadata: invalid composite value: %w", err)
		}
		*v = Value{kind: KindRaw, raw: json.RawMessage(compact.Bytes())}
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("metadata: invalid numeric value: %w", err)
		}
		*v = Number(n)
	}
	return nil
}

// MarshalJSON encodes the value back to JSON. Absent encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindRaw:
		return v.raw, nil
	default:
		return []byte("null"), nil
	}
}

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || (abs != 0 && abs < 1e-6) {
		return exponentForm(strconv.FormatFloat(n, 'e', -1, 64))
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// exponentForm rewrites Go's "1.5e-07" as "1.5e-7"
func exponentForm(s string) string {
	mantissa, exp, ok := strings.Cut(s, "e")
	if !ok || len(exp) < 2 {
		return s
	}
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + exp[:1] + digits
}
