package normalize

import (
	"time"

	"github.com/warp/workforce-engine/canonical"
)

// PayDateKeys is the priority order for a pay statement's pay date.
var PayDateKeys = []string{"pay_date", "payment_date", "date", "end_date", "start_date", "period_end", "period_start"}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// NormalizeDate returns the first candidate key of obj holding a parseable date.
func NormalizeDate(obj map[string]any, keys ...string) *canonical.Date {
	for _, k := range keys {
		if d, ok := ParseDate(obj[k]); ok {
			return &d
		}
	}
	return nil
}

// ParseDate reads a date-like string. Timestamps keep the calendar day they
// were written in, whatever their offset.
func ParseDate(v any) (canonical.Date, bool) {
	if KindOf(v) != KindString && KindOf(v) != KindNumericString {
		return canonical.Date{}, false
	}
	s, _ := String(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return canonical.DateOf(t), true
		}
	}
	return canonical.Date{}, false
}
