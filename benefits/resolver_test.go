package benefits_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workforce-engine/benefits"
	"github.com/warp/workforce-engine/canonical"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func fixed(minor int64) *canonical.Contribution {
	return &canonical.Contribution{Kind: canonical.ContributionFixed, Amount: decimal.NewFromInt(minor)}
}

func percent(p string) *canonical.Contribution {
	return &canonical.Contribution{Kind: canonical.ContributionPercent, Amount: decimal.RequireFromString(p)}
}

var catalog = []canonical.Benefit{
	{BenefitID: "b-dental", Name: "Dental", Type: "dental"},
	{BenefitID: "b-401k", Name: "401(k)", Type: canonical.BenefitType401k},
	{BenefitID: "b-roth", Name: "Roth 401(k)", Type: canonical.BenefitType401kRoth},
}

// =============================================================================
// RETIREMENT DETECTION
// =============================================================================

func TestRetirementBenefit_FirstRetirementType(t *testing.T) {
	b, ok := benefits.RetirementBenefit(catalog)
	require.True(t, ok)
	assert.Equal(t, "b-401k", b.BenefitID)

	_, ok = benefits.RetirementBenefit(catalog[:1])
	assert.False(t, ok)
}

func TestResolve_EmptyCatalog(t *testing.T) {
	res := benefits.Resolve("emp-1", nil, []canonical.Deduction{{BenefitID: "x", EmployeeDeduction: fixed(100)}})

	assert.False(t, res.Retirement.BenefitAvailable)
	assert.False(t, res.Retirement.Enrolled)
	assert.Empty(t, res.Benefits)
}

func TestResolve_NoRetirementPlanInCatalog(t *testing.T) {
	res := benefits.Resolve("emp-1", catalog[:1], []canonical.Deduction{
		{BenefitID: "b-dental", IndividualID: "emp-1", EmployeeDeduction: fixed(7500)},
	})

	assert.False(t, res.Retirement.BenefitAvailable)
	assert.True(t, res.Benefits["b-dental"].Enrolled)
	assert.True(t, res.Benefits["b-dental"].ActivelyContributing)
}

// =============================================================================
// ENROLLMENT & CONTRIBUTION
// =============================================================================

func TestResolve_MatchByID(t *testing.T) {
	// GIVEN: a fixed 401k deduction with matching id
	deductions := []canonical.Deduction{
		{BenefitID: "b-401k", IndividualID: "emp-1", EmployeeDeduction: fixed(400), CompanyContribution: percent("3")},
	}

	// WHEN
	res := benefits.Resolve("emp-1", catalog, deductions)

	// THEN
	assert.True(t, res.Retirement.BenefitAvailable)
	assert.True(t, res.Retirement.Enrolled)
	assert.True(t, res.Retirement.ActivelyContributing)
	assert.Equal(t, "b-401k", res.Retirement.BenefitID)
	assert.Equal(t, "401k", res.Retirement.BenefitType)

	bp := res.Benefits["b-401k"]
	assert.True(t, bp.Enrolled)
	require.NotNil(t, bp.CompanyContribution)
	assert.Equal(t, canonical.ContributionPercent, bp.CompanyContribution.Kind)
	assert.False(t, res.Benefits["b-dental"].Enrolled)
}

func TestResolve_MatchByTypeFallback(t *testing.T) {
	// GIVEN: the deduction references a benefit id the catalog does not know
	deductions := []canonical.Deduction{
		{BenefitID: "legacy-plan-7", BenefitType: "401k_roth", IndividualID: "emp-1", EmployeeDeduction: percent("5")},
	}

	res := benefits.Resolve("emp-1", catalog, deductions)

	// THEN: the retirement fact still sees the enrollment
	assert.True(t, res.Retirement.Enrolled)
	assert.True(t, res.Retirement.ActivelyContributing)
	assert.False(t, res.Benefits["b-401k"].Enrolled, "per-benefit records match by id only")
}

func TestResolve_ZeroContributionIsEnrolledButInactive(t *testing.T) {
	res := benefits.Resolve("emp-1", catalog, []canonical.Deduction{
		{BenefitID: "b-401k", IndividualID: "emp-1", EmployeeDeduction: fixed(0)},
	})

	assert.True(t, res.Retirement.Enrolled)
	assert.False(t, res.Retirement.ActivelyContributing)
}

func TestResolve_AbsentEmployeeAmountIsNotEnrolled(t *testing.T) {
	res := benefits.Resolve("emp-1", catalog, []canonical.Deduction{
		{BenefitID: "b-401k", IndividualID: "emp-1", CompanyContribution: fixed(5000)},
	})

	assert.True(t, res.Retirement.BenefitAvailable)
	assert.False(t, res.Retirement.Enrolled)
	assert.False(t, res.Retirement.ActivelyContributing)
}

func TestResolve_IgnoresOtherIndividuals(t *testing.T) {
	res := benefits.Resolve("emp-1", catalog, []canonical.Deduction{
		{BenefitID: "b-401k", IndividualID: "emp-2", EmployeeDeduction: fixed(400)},
	})

	assert.False(t, res.Retirement.Enrolled)
}

// =============================================================================
// PARTICIPATION
// =============================================================================

func TestParticipation(t *testing.T) {
	res := benefits.Resolve("emp-1", catalog, []canonical.Deduction{
		{BenefitID: "b-401k", IndividualID: "emp-1", EmployeeDeduction: fixed(400)},
	})

	p := benefits.Participation(canonical.Eligibility{IsEligible: true, DaysSinceStart: 105}, res)
	assert.Equal(t, canonical.Participation{Eligible: true, EnrolledInRetirement: true, ActivelyContributing: true}, p)

	p = benefits.Participation(canonical.Eligibility{}, benefits.Resolve("emp-1", nil, nil))
	assert.Equal(t, canonical.Participation{}, p)
}
