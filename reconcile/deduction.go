package reconcile

import (
	"strings"

	"github.com/warp/workforce-engine/canonical"
	"github.com/warp/workforce-engine/normalize"
)

// MatchPolicy decides what happens to a deduction that names no individual.
type MatchPolicy int

const (
	// TrustUnattributed accepts the deduction for the individual being
	// resolved, assuming the upstream listing was already filtered.
	TrustUnattributed MatchPolicy = iota
	// RequireIndividual drops the deduction.
	RequireIndividual
)

func (p MatchPolicy) String() string {
	if p == RequireIndividual {
		return "require_individual"
	}
	return "trust_unattributed"
}

// Benefits reads the company benefit catalog. Entries without an id are dropped.
func Benefits(raw any) ([]canonical.Benefit, []error) {
	frags, dropped := Fragments("benefit", raw, "benefits")
	out := make([]canonical.Benefit, 0, len(frags))
	for i, f := range frags {
		id := normalize.LookupString(f.Body, "benefit_id", "id")
		if id == "" {
			dropped = append(dropped, &canonical.FieldError{Kind: "benefit", Index: i, Field: "benefit_id"})
			continue
		}
		out = append(out, canonical.Benefit{
			BenefitID: id,
			Name:      normalize.LookupString(f.Body, "name", "description"),
			Type:      normalize.LookupString(f.Body, "type", "benefit_type"),
			Frequency: normalize.LookupString(f.Body, "frequency"),
		})
	}
	return out, dropped
}

// Deductions reads a per-benefit enrollment listing and keeps the entries
// belonging to individualID. Missing benefit fields are taken from benefit.
func Deductions(raw any, benefit canonical.Benefit, individualID string, policy MatchPolicy) ([]canonical.Deduction, []error) {
	frags, dropped := Fragments("deduction", raw, "deductions")
	out := make([]canonical.Deduction, 0, len(frags))
	for i, f := range frags {
		// A deduction's own "id" is the enrollment, not the person.
		owner := f.Owner
		if owner == "" {
			if policy == RequireIndividual {
				dropped = append(dropped, &canonical.FieldError{Kind: "deduction", Index: i, Field: "individual_id"})
				continue
			}
			owner = individualID
		}
		if individualID != "" && owner != individualID {
			continue
		}

		d := canonical.Deduction{
			BenefitID:    normalize.LookupString(f.Body, "benefit_id"),
			BenefitName:  normalize.LookupString(f.Body, "benefit_name"),
			BenefitType:  normalize.LookupString(f.Body, "benefit_type"),
			IndividualID: owner,
		}
		if d.BenefitID == "" {
			d.BenefitID = benefit.BenefitID
		}
		if d.BenefitName == "" {
			d.BenefitName = benefit.Name
		}
		if d.BenefitType == "" {
			d.BenefitType = benefit.Type
		}

		// Some providers nest the contribution under "deduction".
		bodies := []map[string]any{f.Body}
		if nested, ok := normalize.Object(f.Body["deduction"]); ok {
			bodies = append(bodies, nested)
			if d.BenefitType == "" {
				d.BenefitType = normalize.LookupString(nested, "type")
			}
		}
		d.EmployeeDeduction, _ = pick(bodies, employeeContribution)
		d.CompanyContribution, _ = pick(bodies, companyContribution)
		out = append(out, d)
	}
	return out, dropped
}

func employeeContribution(o map[string]any) (*canonical.Contribution, bool) {
	if c := contribution(o["employee_deduction"], ""); c != nil {
		return c, true
	}
	if c := contribution(o["contribution_amount"], canonical.ContributionFixed); c != nil {
		return c, true
	}
	if c := contribution(o["deduction_amount"], canonical.ContributionFixed); c != nil {
		return c, true
	}
	if c := contribution(o["contribution_percentage"], canonical.ContributionPercent); c != nil {
		return c, true
	}
	return nil, false
}

func companyContribution(o map[string]any) (*canonical.Contribution, bool) {
	c := contribution(normalize.Lookup(o, "company_contribution", "employer_contribution"), "")
	return c, c != nil
}

// contribution reads {type, amount}, {amount} or a bare number. kind is the
// variant implied by the field name; an explicit type wins over it.
func contribution(v any, kind canonical.ContributionKind) *canonical.Contribution {
	amount := v
	if obj, ok := normalize.Object(v); ok {
		amount = obj["amount"]
		switch strings.ToLower(normalize.LookupString(obj, "type")) {
		case "percent", "percentage":
			kind = canonical.ContributionPercent
		case "fixed", "flat":
			kind = canonical.ContributionFixed
		}
	}
	if kind == "" {
		kind = canonical.ContributionFixed
	}

	switch kind {
	case canonical.ContributionPercent:
		d, ok := normalize.Decimal(amount)
		if !ok {
			return nil
		}
		return &canonical.Contribution{Kind: kind, Amount: d}
	default:
		m := normalize.NormalizeMoney(amount)
		if m == nil {
			return nil
		}
		return &canonical.Contribution{Kind: kind, Amount: m.Decimal()}
	}
}
