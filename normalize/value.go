/*
Package normalize coerces single upstream field values into canonical form.

Every function here is total. Malformed or missing input produces an explicit
absent result (a nil pointer or ok=false), never a zero value and never a panic,
so callers can tell "no data" apart from "zero".

Upstream variance is classified once by KindOf into a closed set of variants.
Each normalizer is a switch over that set; supporting a newly observed variant
means adding a case, not another fallback chain.
*/
package normalize

import (
	"bytes"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Kind is the closed set of shapes an upstream value can take.
type Kind int

const (
	KindAbsent Kind = iota
	KindNumber
	KindNumericString
	KindString
	KindBool
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindNumericString:
		return "numeric_string"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "absent"
	}
}

// KindOf classifies v. Blank strings and unknown Go types are absent.
func KindOf(v any) Kind {
	switch x := v.(type) {
	case nil:
		return KindAbsent
	case json.Number, float64, float32, int, int32, int64:
		return KindNumber
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return KindAbsent
		}
		if _, err := decimal.NewFromString(s); err == nil {
			return KindNumericString
		}
		return KindString
	case bool:
		return KindBool
	case map[string]any:
		return KindObject
	case []any:
		return KindArray
	default:
		return KindAbsent
	}
}

// Decode parses an upstream payload, keeping numbers as json.Number so that
// integer and fractional literals stay distinguishable.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// numberText renders a number-like value as its decimal literal.
func numberText(v any) (string, bool) {
	switch x := v.(type) {
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case string:
		if KindOf(x) == KindNumericString {
			return strings.TrimSpace(x), true
		}
	}
	return "", false
}

// =============================================================================
// ACCESSORS
// =============================================================================

func String(v any) (string, bool) {
	switch KindOf(v) {
	case KindString, KindNumericString:
		return strings.TrimSpace(v.(string)), true
	case KindNumber:
		return numberText(v)
	default:
		return "", false
	}
}

func Bool(v any) (bool, bool) {
	switch KindOf(v) {
	case KindBool:
		return v.(bool), true
	case KindString:
		b, err := strconv.ParseBool(strings.TrimSpace(v.(string)))
		return b, err == nil
	default:
		return false, false
	}
}

func Decimal(v any) (decimal.Decimal, bool) {
	switch KindOf(v) {
	case KindNumber, KindNumericString:
		text, _ := numberText(v)
		d, err := decimal.NewFromString(text)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

func Int(v any) (int64, bool) {
	d, ok := Decimal(v)
	if !ok || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	return d.IntPart(), true
}

func Object(v any) (map[string]any, bool) {
	if KindOf(v) != KindObject {
		return nil, false
	}
	return v.(map[string]any), true
}

func Array(v any) ([]any, bool) {
	if KindOf(v) != KindArray {
		return nil, false
	}
	return v.([]any), true
}

// Lookup returns the value of the first key that is present in obj.
func Lookup(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && KindOf(v) != KindAbsent {
			return v
		}
	}
	return nil
}

// LookupString is Lookup restricted to string-like values.
func LookupString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := String(obj[k]); ok && s != "" {
			return s
		}
	}
	return ""
}

// Path walks nested objects; a missing step yields nil.
func Path(obj map[string]any, keys ...string) any {
	var cur any = obj
	for _, k := range keys {
		m, ok := Object(cur)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}
