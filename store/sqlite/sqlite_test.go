package sqlite_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workforce-engine/canonical"
	"github.com/warp/workforce-engine/gather"
	"github.com/warp/workforce-engine/store/sqlite"
)

var seedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seeded(t *testing.T) *sqlite.Store {
	t.Helper()
	store := newStore(t)
	require.NoError(t, sqlite.SeedDemo(context.Background(), store, seedNow))
	return store
}

func gatherer(store *sqlite.Store, employer string) *gather.Gatherer {
	g := gather.New(store.Employer(employer))
	g.Now = func() time.Time { return seedNow }
	g.Logger = log.New(io.Discard, "", 0)
	return g
}

func TestNew_MigratesEmptySchema(t *testing.T) {
	store := newStore(t)

	employers, err := store.ListEmployers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, employers)
}

func TestFragment_SaveAndReplace(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveEmployer(ctx, sqlite.Employer{ID: "e1", Name: "One"}))

	require.NoError(t, store.SaveFragment(ctx, "e1", gather.EndpointIndividual, "p1", []byte(`{"id":"p1"}`)))
	body, err := store.LoadFragment(ctx, "e1", gather.EndpointIndividual, "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1"}`, string(body))

	require.NoError(t, store.SaveFragment(ctx, "e1", gather.EndpointIndividual, "p1", []byte(`{"id":"p1","first_name":"Ann"}`)))
	body, err = store.LoadFragment(ctx, "e1", gather.EndpointIndividual, "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"p1","first_name":"Ann"}`, string(body))

	n, err := store.CountFragments(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLoadFragment_MissingIsNoData(t *testing.T) {
	store := newStore(t)

	_, err := store.LoadFragment(context.Background(), "nobody", gather.EndpointDirectory, "")

	assert.ErrorIs(t, err, gather.ErrNoData)
}

func TestSaveFragment_Rejects(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveEmployer(ctx, sqlite.Employer{ID: "e1", Name: "One"}))

	assert.Error(t, store.SaveFragment(ctx, "e1", gather.Endpoint("payroll"), "", []byte(`{}`)))
	assert.Error(t, store.SaveFragment(ctx, "e1", gather.EndpointDirectory, "", []byte(`{"individuals": [`)))
}

func TestGetEmployer(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveEmployer(ctx, sqlite.Employer{ID: "e1", Name: "One"}))

	e, err := store.GetEmployer(ctx, "e1")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "One", e.Name)
	assert.False(t, e.CreatedAt.IsZero())

	missing, err := store.GetEmployer(ctx, "e2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	store := seeded(t)

	require.NoError(t, store.Reset(ctx))

	employers, err := store.ListEmployers(ctx)
	require.NoError(t, err)
	assert.Empty(t, employers)
	n, err := store.CountFragments(ctx, sqlite.DemoEnvelopeEmployer)
	require.NoError(t, err)
	assert.Zero(t, n)
}

// =============================================================================
// DEMO DATA THROUGH THE ENGINE
// =============================================================================

func TestSeedDemo_Employers(t *testing.T) {
	employers, err := seeded(t).ListEmployers(context.Background())

	require.NoError(t, err)
	require.Len(t, employers, 2)
	assert.Equal(t, sqlite.DemoEnvelopeEmployer, employers[0].ID)
	assert.Equal(t, sqlite.DemoFlatEmployer, employers[1].ID)
}

func TestSeedDemo_EnvelopeProfile(t *testing.T) {
	g := gatherer(seeded(t), sqlite.DemoEnvelopeEmployer)

	p, err := g.Profile(context.Background(), "acme-001")

	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.Employee.Individual.FullName())
	assert.Equal(t, "ada.lovelace@acme.example", p.Employee.Individual.Email)
	assert.Equal(t, "Engineering", p.Employee.Employment.Department)
	assert.Equal(t, "full_time", p.Employee.Employment.EmploymentType)
	require.NotNil(t, p.Employee.Employment.Income)
	assert.Equal(t, int64(21000000), p.Employee.Employment.Income.Money.AmountMinorUnits)
	assert.Equal(t, canonical.IncomeYearly, p.Employee.Employment.Income.Unit)

	assert.True(t, p.Eligibility.IsEligible)
	assert.True(t, p.Retirement.BenefitAvailable)
	assert.True(t, p.Retirement.Enrolled)
	assert.True(t, p.Retirement.ActivelyContributing)
	assert.Equal(t, "acme-401k", p.Retirement.BenefitID)
	assert.Contains(t, p.Benefits, "acme-medical")
	assert.True(t, p.Benefits["acme-medical"].Enrolled)
}

func TestSeedDemo_EnrolledNotContributing(t *testing.T) {
	g := gatherer(seeded(t), sqlite.DemoEnvelopeEmployer)

	p, err := g.Profile(context.Background(), "acme-003")

	require.NoError(t, err)
	assert.True(t, p.Participation.EnrolledInRetirement)
	assert.False(t, p.Participation.ActivelyContributing)
}

func TestSeedDemo_NewHireNotEligible(t *testing.T) {
	g := gatherer(seeded(t), sqlite.DemoEnvelopeEmployer)

	elig, err := g.Eligibility(context.Background(), "acme-005")

	require.NoError(t, err)
	assert.False(t, elig.IsEligible)
	assert.Equal(t, 30, elig.DaysSinceStart)
	assert.Equal(t, 60, elig.DaysUntilEligible)
}

func TestSeedDemo_PendingRunDropped(t *testing.T) {
	g := gatherer(seeded(t), sqlite.DemoEnvelopeEmployer)

	statements, err := g.PayStatements(context.Background(), "acme-005")

	require.NoError(t, err)
	require.Len(t, statements, 2)
	require.NotNil(t, statements[0].GrossPay)
	assert.Equal(t, int64(2800*80), statements[0].GrossPay.AmountMinorUnits)
}

func TestSeedDemo_EnvelopeReport(t *testing.T) {
	g := gatherer(seeded(t), sqlite.DemoEnvelopeEmployer)

	report, err := g.Report(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 6, report.Headcount.Total)
	assert.Equal(t, 5, report.Funnel.Eligible)
	assert.Equal(t, 3, report.Funnel.Enrolled)
	assert.Equal(t, 2, report.Funnel.ActiveContributors)
	assert.Equal(t, 1, report.Strategic.NewHires)
	assert.Equal(t, 1, report.Strategic.Departures)
}

func TestSeedDemo_FlatShapes(t *testing.T) {
	g := gatherer(seeded(t), sqlite.DemoFlatEmployer)
	ctx := context.Background()

	curie, err := g.Profile(ctx, "gx-101")
	require.NoError(t, err)
	assert.Equal(t, "mcurie@globex.example", curie.Employee.Individual.Email)
	require.NotNil(t, curie.Employee.Employment.Income)
	assert.Equal(t, int64(9800000), curie.Employee.Employment.Income.Money.AmountMinorUnits, "numeric string cents")
	assert.Equal(t, canonical.IncomeYearly, curie.Employee.Employment.Income.Unit)
	require.NotNil(t, curie.Employee.Employment.Location)
	assert.Equal(t, "Chicago, IL", curie.Employee.Employment.Location.Display)
	assert.True(t, curie.Retirement.Enrolled, "roth plan counts as retirement")
	assert.True(t, curie.Retirement.ActivelyContributing)

	sagan, err := g.Employee(ctx, "gx-104")
	require.NoError(t, err)
	assert.False(t, sagan.Employment.IsActive, "terminated status")

	franklin, err := g.Employee(ctx, "gx-103")
	require.NoError(t, err)
	require.NotNil(t, franklin.Employment.StartDate)
	assert.Equal(t, "2023-03-01", franklin.Employment.StartDate.String())

	statements, err := g.PayStatements(ctx, "gx-101")
	require.NoError(t, err)
	require.Len(t, statements, 1)
	require.NotNil(t, statements[0].PayDate)
	assert.Equal(t, "2024-05-18", statements[0].PayDate.String(), "pay date falls back to period end")
	assert.Equal(t, int64(185000), statements[0].GrossPay.AmountMinorUnits)
}
