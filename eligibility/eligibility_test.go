package eligibility_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workforce-engine/canonical"
	"github.com/warp/workforce-engine/eligibility"
)

func startedOn(d canonical.Date) canonical.Employment {
	return canonical.Employment{IndividualID: "emp-1", StartDate: &d, IsActive: true}
}

func TestCalculate_OneDayShort(t *testing.T) {
	today := canonical.Today()

	fact, err := eligibility.Current(startedOn(today.AddDays(-89)))

	require.NoError(t, err)
	assert.False(t, fact.IsEligible)
	assert.Equal(t, 89, fact.DaysSinceStart)
	assert.Equal(t, 1, fact.DaysUntilEligible)
}

func TestCalculate_ExactlyAtThreshold(t *testing.T) {
	today := canonical.Today()

	fact, err := eligibility.Current(startedOn(today.AddDays(-eligibility.ServiceRequirementDays)))

	require.NoError(t, err)
	assert.True(t, fact.IsEligible)
	assert.Equal(t, 90, fact.DaysSinceStart)
	assert.Equal(t, 0, fact.DaysUntilEligible)
}

func TestCalculate_NoStartDate(t *testing.T) {
	fact, err := eligibility.Current(canonical.Employment{IndividualID: "emp-1"})

	require.NoError(t, err)
	assert.False(t, fact.IsEligible)
	assert.Equal(t, 0, fact.DaysSinceStart)
	assert.Equal(t, 0, fact.DaysUntilEligible)
	assert.Nil(t, fact.StartDate)
}

func TestCalculate_FixedDates(t *testing.T) {
	// GIVEN: a 2024-01-01 start evaluated on 2024-04-15
	emp := startedOn(canonical.NewDate(2024, time.January, 1))

	// WHEN
	fact, err := eligibility.Calculate(emp, canonical.NewDate(2024, time.April, 15))

	// THEN: 105 days including the leap day
	require.NoError(t, err)
	assert.True(t, fact.IsEligible)
	assert.Equal(t, 105, fact.DaysSinceStart)
	assert.Equal(t, 0, fact.DaysUntilEligible)
	assert.Equal(t, "2024-01-01", fact.StartDate.String())
}

func TestCalculate_AcrossDSTBoundary(t *testing.T) {
	// US DST starts 2024-03-10; day counts must not lose an hour
	emp := startedOn(canonical.DateOf(time.Date(2024, time.March, 1, 23, 30, 0, 0, time.FixedZone("PST", -8*3600))))

	fact, err := eligibility.Calculate(emp, canonical.DateOf(time.Date(2024, time.May, 30, 0, 15, 0, 0, time.FixedZone("PDT", -7*3600))))

	require.NoError(t, err)
	assert.Equal(t, 90, fact.DaysSinceStart)
	assert.True(t, fact.IsEligible)
}

func TestCalculate_FutureStartIsInvariantViolation(t *testing.T) {
	emp := startedOn(canonical.NewDate(2024, time.June, 1))

	_, err := eligibility.Calculate(emp, canonical.NewDate(2024, time.May, 1))

	require.Error(t, err)
	assert.True(t, canonical.IsInvariantViolation(err))
	var inv *canonical.InvariantError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "eligibility", inv.Fact)
}
