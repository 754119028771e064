package normalize

import (
	"strings"

	"github.com/warp/workforce-engine/canonical"
)

// NormalizeDepartment accepts a bare name or an object carrying one.
func NormalizeDepartment(v any) (string, bool) {
	switch KindOf(v) {
	case KindString, KindNumericString:
		return String(v)
	case KindObject:
		name := LookupString(v.(map[string]any), "name")
		return name, name != ""
	default:
		return "", false
	}
}

// NormalizeLocation builds the structured record and its display line,
// e.g. "200 Financial Plaza, Floor 15, New York, NY 10001, USA".
func NormalizeLocation(v any) *canonical.Location {
	switch KindOf(v) {
	case KindString:
		s, _ := String(v)
		return &canonical.Location{Display: s}
	case KindObject:
		obj := v.(map[string]any)
		loc := canonical.Location{
			Line1:      LookupString(obj, "line1", "address_line1"),
			Line2:      LookupString(obj, "line2", "address_line2"),
			City:       LookupString(obj, "city"),
			State:      LookupString(obj, "state"),
			PostalCode: LookupString(obj, "postal_code", "zip"),
			Country:    LookupString(obj, "country"),
		}
		loc.Display = joinNonEmpty(", ", loc.Line1, loc.Line2, cityLine(loc), loc.Country)
		if loc.Display == "" {
			return nil
		}
		return &loc
	default:
		return nil
	}
}

func cityLine(loc canonical.Location) string {
	return joinNonEmpty(", ", loc.City, joinNonEmpty(" ", loc.State, loc.PostalCode))
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
