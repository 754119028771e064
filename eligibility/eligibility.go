// Package eligibility applies the retirement-plan service requirement.
package eligibility

import (
	"fmt"

	"github.com/warp/workforce-engine/canonical"
)

// ServiceRequirementDays is the tenure needed before retirement-plan eligibility.
const ServiceRequirementDays = 90

// Calculate derives the eligibility fact for emp as of asOf. Both dates are
// calendar days, so the fact flips at midnight rather than at the hire time.
//
// A missing start date yields an ineligible fact with zero counts. A start
// date after asOf is an invariant violation.
func Calculate(emp canonical.Employment, asOf canonical.Date) (canonical.Eligibility, error) {
	if emp.StartDate == nil || emp.StartDate.IsZero() {
		return canonical.Eligibility{}, nil
	}

	days := canonical.DaysBetween(*emp.StartDate, asOf)
	if days < 0 {
		return canonical.Eligibility{}, &canonical.InvariantError{
			Fact:   "eligibility",
			Detail: fmt.Sprintf("start date %s is after %s for individual %q", emp.StartDate, asOf, emp.IndividualID),
		}
	}

	start := *emp.StartDate
	return canonical.Eligibility{
		IsEligible:        days >= ServiceRequirementDays,
		DaysSinceStart:    days,
		DaysUntilEligible: max(0, ServiceRequirementDays-days),
		StartDate:         &start,
	}, nil
}

// Current evaluates against today's date. The result must not be cached
// across calendar days.
func Current(emp canonical.Employment) (canonical.Eligibility, error) {
	return Calculate(emp, canonical.Today())
}
