/*
Package benefits matches a company's benefit catalog against one
individual's deductions.

ENROLLMENT RULES:
  - A deduction matches a catalog benefit by id.
  - The retirement benefit additionally matches any deduction whose type is
    a retirement type, because upstream ids are not always stable between the
    catalog and the per-individual listing.
  - Enrolled: some matched deduction carries a numeric employee amount.
  - Actively contributing: enrolled, and some matched deduction's employee
    amount is strictly positive.

An empty catalog resolves to "retirement not available" and the caller
should not fetch any deductions for it.
*/
package benefits

import (
	"github.com/warp/workforce-engine/canonical"
)

// Resolution is the per-benefit and retirement outcome for one individual.
type Resolution struct {
	IndividualID string                                    `json:"individual_id"`
	Benefits     map[string]canonical.BenefitParticipation `json:"benefits"`
	Retirement   canonical.RetirementStatus                `json:"retirement_401k"`
}

// RetirementBenefit returns the first catalog entry of a retirement type.
func RetirementBenefit(catalog []canonical.Benefit) (canonical.Benefit, bool) {
	for _, b := range catalog {
		if b.IsRetirement() {
			return b, true
		}
	}
	return canonical.Benefit{}, false
}

// Resolve computes enrollment for every catalog benefit plus the retirement fact.
func Resolve(individualID string, catalog []canonical.Benefit, deductions []canonical.Deduction) Resolution {
	res := Resolution{
		IndividualID: individualID,
		Benefits:     make(map[string]canonical.BenefitParticipation, len(catalog)),
	}
	if len(catalog) == 0 {
		return res
	}

	owned := deductions[:0:0]
	for _, d := range deductions {
		if d.IndividualID == "" || d.IndividualID == individualID {
			owned = append(owned, d)
		}
	}

	for _, b := range catalog {
		bp := canonical.BenefitParticipation{BenefitID: b.BenefitID, Name: b.Name, Type: b.Type}
		matched := match(owned, func(d canonical.Deduction) bool { return d.BenefitID == b.BenefitID })
		bp.Enrolled, bp.ActivelyContributing = status(matched)
		for _, d := range matched {
			if d.EmployeeDeduction != nil {
				bp.EmployeeDeduction = d.EmployeeDeduction
				bp.CompanyContribution = d.CompanyContribution
				break
			}
		}
		res.Benefits[b.BenefitID] = bp
	}

	rb, ok := RetirementBenefit(catalog)
	if !ok {
		return res
	}
	matched := match(owned, func(d canonical.Deduction) bool {
		return d.BenefitID == rb.BenefitID || canonical.IsRetirementType(d.BenefitType)
	})
	enrolled, active := status(matched)
	res.Retirement = canonical.RetirementStatus{
		BenefitAvailable:     true,
		Enrolled:             enrolled,
		ActivelyContributing: active,
		BenefitID:            rb.BenefitID,
		BenefitType:          rb.Type,
	}
	return res
}

func match(deductions []canonical.Deduction, keep func(canonical.Deduction) bool) []canonical.Deduction {
	var out []canonical.Deduction
	for _, d := range deductions {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func status(matched []canonical.Deduction) (enrolled, active bool) {
	for _, d := range matched {
		if d.EmployeeDeduction == nil {
			continue
		}
		enrolled = true
		if d.EmployeeDeduction.IsPositive() {
			active = true
		}
	}
	return enrolled, active
}

// Participation combines the eligibility and retirement facts.
func Participation(elig canonical.Eligibility, res Resolution) canonical.Participation {
	return canonical.Participation{
		Eligible:             elig.IsEligible,
		EnrolledInRetirement: res.Retirement.Enrolled,
		ActivelyContributing: res.Retirement.Enrolled && res.Retirement.ActivelyContributing,
	}
}
