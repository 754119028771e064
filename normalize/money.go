package normalize

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/warp/workforce-engine/canonical"
)

// Scale states which unit a bare amount is expressed in.
type Scale int

const (
	// ScaleInfer treats integral values as minor units, however they are
	// written, and values with a fractional part as major units.
	ScaleInfer Scale = iota
	ScaleMinor
	ScaleMajor
)

var (
	hundred  = decimal.NewFromInt(100)
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// Alternate spellings for the two pay-statement totals. "earnings" only
// normalizes when it is money-shaped; the earnings line array is skipped.
var (
	GrossPayKeys = []string{"gross_pay", "gross", "earnings"}
	NetPayKeys   = []string{"net_pay", "net", "total"}
)

// NormalizeMoney accepts a bare number, a numeric string, or an object with
// an amount and optional currency. Anything else is nil.
func NormalizeMoney(v any) *canonical.Money {
	return NormalizeMoneyIn(v, "", ScaleInfer)
}

// NormalizeMoneyIn is NormalizeMoney with the fallback currency and unit
// scale stated by the caller.
func NormalizeMoneyIn(v any, currency string, scale Scale) *canonical.Money {
	switch KindOf(v) {
	case KindNumber, KindNumericString:
		return toMoney(v, currency, scale)
	case KindObject:
		obj := v.(map[string]any)
		if c, ok := String(obj["currency"]); ok && c != "" {
			currency = c
		}
		switch KindOf(obj["amount"]) {
		case KindNumber, KindNumericString:
			return toMoney(obj["amount"], currency, scale)
		default:
			return nil
		}
	default:
		return nil
	}
}

func toMoney(v any, currency string, scale Scale) *canonical.Money {
	minor, ok := MinorUnits(v, scale)
	if !ok {
		return nil
	}
	m := canonical.NewMoney(minor, currency)
	return &m
}

// MinorUnits converts a bare amount to minor units, rounding half away from
// zero. Amounts outside the int64 range are not money.
func MinorUnits(v any, scale Scale) (int64, bool) {
	text, ok := numberText(v)
	if !ok {
		return 0, false
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, false
	}
	if scale == ScaleMajor || (scale == ScaleInfer && !d.Equal(d.Truncate(0))) {
		d = d.Mul(hundred)
	}
	d = d.Round(0)
	if d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
		return 0, false
	}
	return d.IntPart(), true
}

// MoneyField returns the first key of obj that normalizes to money.
func MoneyField(obj map[string]any, keys ...string) *canonical.Money {
	for _, k := range keys {
		if m := NormalizeMoney(obj[k]); m != nil {
			return m
		}
	}
	return nil
}
