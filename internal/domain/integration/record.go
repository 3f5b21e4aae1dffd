package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is a decoded commerce payload. Numbers are expected as json.Number
// when the record comes from DecodeRecord, but every helper also accepts
// native Go numeric types so records can be built directly in code.
type Record map[string]any

// DecodeRecord decodes a JSON object preserving numbers as json.Number.
func DecodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEventPayload, err)
	}
	if r == nil {
		r = Record{}
	}
	return r, nil
}

// Clone returns a deep copy of the record. Nested maps and slices are copied,
// scalar values are shared.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return t.Clone()
	case map[string]any:
		return map[string]any(Record(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Map returns the nested object stored under key, if any.
func (r Record) Map(key string) (Record, bool) {
	return AsRecord(r[key])
}

// Slice returns the nested array stored under key, if any.
func (r Record) Slice(key string) ([]any, bool) {
	s, ok := r[key].([]any)
	return s, ok
}

// String returns the value under key rendered as a string ("" when absent).
func (r Record) String(key string) string {
	return StringOf(r[key])
}

// AsRecord converts a decoded JSON object into a Record.
func AsRecord(v any) (Record, bool) {
	switch t := v.(type) {
	case Record:
		return t, true
	case map[string]any:
		return Record(t), true
	default:
		return nil, false
	}
}

// ---------------------------------------------------------------------------
// Presence
// ---------------------------------------------------------------------------

// Presence decides whether a looked-up value counts as present.
type Presence func(v any) bool

// Truthy treats nil, false, "", and numeric zero as absent. Objects and
// arrays are present even when empty. This is the default predicate.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0
	case int:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	case uint:
		return t != 0
	case uint64:
		return t != 0
	default:
		return true
	}
}

// NotNil treats only a missing or null value as absent, so 0, false and ""
// survive mapping.
func NotNil(v any) bool {
	return v != nil
}

// ---------------------------------------------------------------------------
// Scalar coercion
// ---------------------------------------------------------------------------

// StringOf renders a scalar as a string. Arrays are joined with newlines,
// which is how street lines are carried in commerce addresses.
func StringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, StringOf(e))
		}
		return strings.Join(parts, "\n")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// IDString returns the canonical decimal form of an identifier so that 7,
// 7.0, json.Number("7") and "7" compare equal.
func IDString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		if t == "" {
			return "", false
		}
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return strconv.FormatInt(n, 10), true
		}
		return t, true
	case json.Number:
		return IDString(t.String())
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	default:
		return fmt.Sprint(t), true
	}
}

// SameID reports whether two identifiers are both set and equal.
func SameID(a, b any) bool {
	as, ok := IDString(a)
	if !ok {
		return false
	}
	bs, ok := IDString(b)
	return ok && as == bs
}

// ToInt parses an integer with leading-digits semantics: "12abc" is 12,
// 12.9 is 12, and "abc" is not a number.
func ToInt(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case uint:
		return int64(t), true
	case uint64:
		return int64(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	case json.Number:
		return ToInt(t.String())
	case string:
		s := strings.TrimSpace(t)
		end := 0
		if end < len(s) && (s[end] == '-' || s[end] == '+') {
			end++
		}
		digits := end
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if end == digits {
			return 0, false
		}
		n, err := strconv.ParseInt(s[:end], 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
