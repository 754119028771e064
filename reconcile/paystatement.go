package reconcile

import (
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/workforce-engine/canonical"
	"github.com/warp/workforce-engine/normalize"
)

const kindPayStatement = "pay_statement"

// PayStatements flattens a pay-statement response into canonical statements
// for individualID. Three shapes are accepted:
//
//  1. a flat array of statements
//  2. an array of wrappers, each with a nested "pay_statements" array
//  3. {"responses": [{"code", "body"}]} where body is a statement or a wrapper
//
// Statements without an individual id (after defaulting to individualID)
// and statements with neither a date nor an amount are dropped. Statements
// belonging to other individuals are filtered out. An empty individualID
// disables defaulting and filtering.
func PayStatements(raw any, individualID string) ([]canonical.PayStatement, []error) {
	c := &statementCollector{target: individualID}
	c.walk(raw, individualID)
	if c.out == nil {
		c.out = []canonical.PayStatement{}
	}
	return c.out, c.dropped
}

type statementCollector struct {
	target  string
	out     []canonical.PayStatement
	dropped []error
	index   int
}

func (c *statementCollector) walk(v any, inherited string) {
	switch normalize.KindOf(v) {
	case normalize.KindArray:
		for _, item := range v.([]any) {
			c.walk(item, inherited)
		}
	case normalize.KindObject:
		obj := v.(map[string]any)
		if code, ok := normalize.Int(obj["code"]); ok && code != http.StatusOK {
			c.drop("upstream status %d", code)
			return
		}
		if id := normalize.LookupString(obj, "individual_id"); id != "" {
			inherited = id
		}
		if list, ok := normalize.Array(obj["responses"]); ok {
			c.walk(list, inherited)
			return
		}
		if _, ok := obj["body"]; ok {
			if _, isObj := normalize.Object(obj["body"]); !isObj {
				c.drop("envelope without body")
				return
			}
			c.walk(obj["body"], inherited)
			return
		}
		if list, ok := normalize.Array(obj["pay_statements"]); ok {
			c.walk(list, inherited)
			return
		}
		c.statement(obj, inherited)
	default:
		c.drop("expected object, got %s", normalize.KindOf(v))
	}
}

func (c *statementCollector) drop(format string, args ...any) {
	c.dropped = append(c.dropped, shapeError(kindPayStatement, c.index, format, args...))
	c.index++
}

func (c *statementCollector) statement(obj map[string]any, individualID string) {
	index := c.index
	c.index++

	if individualID == "" {
		c.dropped = append(c.dropped, &canonical.FieldError{Kind: kindPayStatement, Index: index, Field: "individual_id"})
		return
	}
	if c.target != "" && individualID != c.target {
		return
	}

	ps := canonical.PayStatement{
		IndividualID:  individualID,
		Type:          normalize.LookupString(obj, "type"),
		PaymentMethod: normalize.LookupString(obj, "payment_method"),
		PayDate:       normalize.NormalizeDate(obj, normalize.PayDateKeys...),
		PeriodStart:   normalize.NormalizeDate(obj, "period_start", "start_date"),
		PeriodEnd:     normalize.NormalizeDate(obj, "period_end", "end_date"),
		GrossPay:      normalize.MoneyField(obj, normalize.GrossPayKeys...),
		NetPay:        normalize.MoneyField(obj, normalize.NetPayKeys...),
		TotalHours:    decimalPtr(obj["total_hours"]),
		Earnings:      earningLines(obj["earnings"]),
		Taxes:         taxLines(obj["taxes"]),
		Deductions:    deductionLines(normalize.Lookup(obj, "employee_deductions", "deductions")),
	}
	if period, ok := normalize.Object(obj["pay_period"]); ok {
		if ps.PeriodStart == nil {
			ps.PeriodStart = normalize.NormalizeDate(period, "start_date")
		}
		if ps.PeriodEnd == nil {
			ps.PeriodEnd = normalize.NormalizeDate(period, "end_date")
		}
		if ps.PayDate == nil {
			ps.PayDate = ps.PeriodEnd
		}
	}
	if ps.PayDate == nil && ps.GrossPay == nil && ps.NetPay == nil {
		c.dropped = append(c.dropped, &canonical.FieldError{Kind: kindPayStatement, Index: index, Field: "pay_date or amount"})
		return
	}
	c.out = append(c.out, ps)
}

func decimalPtr(v any) *decimal.Decimal {
	d, ok := normalize.Decimal(v)
	if !ok {
		return nil
	}
	return &d
}

// objects yields the object entries of a line list; other entries are skipped.
func objects(v any) []map[string]any {
	list, _ := normalize.Array(v)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := normalize.Object(item); ok {
			out = append(out, obj)
		}
	}
	return out
}

func earningLines(v any) []canonical.EarningLine {
	lines := make([]canonical.EarningLine, 0)
	for _, o := range objects(v) {
		lines = append(lines, canonical.EarningLine{
			Type:   normalize.LookupString(o, "type"),
			Name:   normalize.LookupString(o, "name"),
			Hours:  decimalPtr(o["hours"]),
			Amount: normalize.NormalizeMoneyIn(o["amount"], normalize.LookupString(o, "currency"), normalize.ScaleInfer),
		})
	}
	return lines
}

func taxLines(v any) []canonical.TaxLine {
	lines := make([]canonical.TaxLine, 0)
	for _, o := range objects(v) {
		employer, _ := normalize.Bool(o["employer"])
		lines = append(lines, canonical.TaxLine{
			Type:     normalize.LookupString(o, "type"),
			Name:     normalize.LookupString(o, "name"),
			Employer: employer,
			Amount:   normalize.NormalizeMoneyIn(o["amount"], normalize.LookupString(o, "currency"), normalize.ScaleInfer),
		})
	}
	return lines
}

func deductionLines(v any) []canonical.DeductionLine {
	lines := make([]canonical.DeductionLine, 0)
	for _, o := range objects(v) {
		preTax, _ := normalize.Bool(o["pre_tax"])
		lines = append(lines, canonical.DeductionLine{
			Type:   normalize.LookupString(o, "type"),
			Name:   normalize.LookupString(o, "name"),
			PreTax: preTax,
			Amount: normalize.NormalizeMoneyIn(o["amount"], normalize.LookupString(o, "currency"), normalize.ScaleInfer),
		})
	}
	return lines
}
