/*
Package gather fetches upstream fragments and runs them through the engine.

PURPOSE:
  The engine packages are pure. This package is the one place that talks to
  the upstream provider: it issues the per-benefit and per-individual lookups
  concurrently, joins the results by key, and hands canonical records to the
  eligibility, benefits and analytics packages.

FAILURE ISOLATION:
  A failed or malformed lookup for one benefit or one individual resolves to
  "no data" for that entity. It is logged and excluded; the rest of the batch
  continues. Only an invariant violation aborts an operation.

CONCURRENCY:
  Fan-out uses errgroup with SetLimit(Concurrency). Goroutines write into
  pre-sized slices by index, so results are joined by key and arrival order
  does not matter.
*/
package gather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warp/workforce-engine/analytics"
	"github.com/warp/workforce-engine/benefits"
	"github.com/warp/workforce-engine/canonical"
	"github.com/warp/workforce-engine/eligibility"
	"github.com/warp/workforce-engine/normalize"
	"github.com/warp/workforce-engine/reconcile"
)

// DefaultConcurrency bounds in-flight upstream lookups per fan-out.
const DefaultConcurrency = 8

// ErrNoData is returned when no upstream fragment describes the requested entity.
var ErrNoData = errors.New("no upstream data")

// Provider is the upstream HR-data transport. Each method returns the raw
// response body.
type Provider interface {
	Directory(ctx context.Context) ([]byte, error)
	Individual(ctx context.Context, individualID string) ([]byte, error)
	Employment(ctx context.Context, individualID string) ([]byte, error)
	Benefits(ctx context.Context) ([]byte, error)
	Deductions(ctx context.Context, benefitID, individualID string) ([]byte, error)
	PayStatements(ctx context.Context, individualID string) ([]byte, error)
}

// Gatherer orchestrates upstream lookups for one provider.
type Gatherer struct {
	Provider    Provider
	Logger      *log.Logger
	Concurrency int
	Match       reconcile.MatchPolicy
	Now         func() time.Time
}

func New(p Provider) *Gatherer {
	return &Gatherer{
		Provider:    p,
		Concurrency: DefaultConcurrency,
		Match:       reconcile.TrustUnattributed,
		Now:         time.Now,
	}
}

// Profile is everything known about one employee.
type Profile struct {
	Employee      canonical.Employee                        `json:"employee"`
	Eligibility   canonical.Eligibility                     `json:"eligibility"`
	Participation canonical.Participation                   `json:"participation"`
	Retirement    canonical.RetirementStatus                `json:"retirement_401k"`
	Benefits      map[string]canonical.BenefitParticipation `json:"benefits"`
	Deductions    []canonical.Deduction                     `json:"deductions"`
}

// =============================================================================
// HELPERS
// =============================================================================

func (g *Gatherer) logf(format string, args ...any) {
	if g.Logger != nil {
		g.Logger.Printf("[Gather] "+format, args...)
		return
	}
	log.Printf("[Gather] "+format, args...)
}

func (g *Gatherer) logDropped(kind string, dropped []error) {
	for _, err := range dropped {
		g.logf("dropped %s fragment: %v", kind, err)
	}
}

func (g *Gatherer) limit() int {
	if g.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return g.Concurrency
}

// AsOf is the calendar day facts are evaluated against.
func (g *Gatherer) AsOf() canonical.Date {
	if g.Now == nil {
		return canonical.Today()
	}
	return canonical.DateOf(g.Now())
}

// fetch decodes one upstream response. Undecodable bodies count as data errors.
func (g *Gatherer) fetch(kind string, call func() ([]byte, error)) (any, error) {
	body, err := call()
	if err != nil {
		return nil, err
	}
	v, err := normalize.Decode(body)
	if err != nil {
		return nil, &canonical.ShapeError{Kind: kind, Index: -1, Reason: fmt.Sprintf("undecodable body: %v", err)}
	}
	return v, nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// Employee fetches the individual and employment fragments concurrently and
// reconciles them. One failing lookup degrades the record; both failing is an error.
func (g *Gatherer) Employee(ctx context.Context, individualID string) (canonical.Employee, error) {
	return g.employee(ctx, individualID, nil)
}

func (g *Gatherer) employee(ctx context.Context, individualID string, directory map[string]any) (canonical.Employee, error) {
	var indiv, empl map[string]any
	var indivErr, emplErr error

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		indiv, indivErr = g.fragment(ctx, "individual", individualID, g.Provider.Individual)
		return nil
	})
	eg.Go(func() error {
		empl, emplErr = g.fragment(ctx, "employment", individualID, g.Provider.Employment)
		return nil
	})
	_ = eg.Wait()

	if indiv == nil && empl == nil {
		switch {
		case indivErr != nil && !canonical.IsDataError(indivErr):
			return canonical.Employee{}, fmt.Errorf("individual %s: %w", individualID, indivErr)
		case emplErr != nil && !canonical.IsDataError(emplErr):
			return canonical.Employee{}, fmt.Errorf("employment %s: %w", individualID, emplErr)
		case directory == nil:
			return canonical.Employee{}, fmt.Errorf("individual %s: %w", individualID, ErrNoData)
		}
	}
	return reconcile.Employee(individualID, reconcile.Sources{Individual: indiv, Employment: empl, Directory: directory}), nil
}

func (g *Gatherer) fragment(ctx context.Context, kind, individualID string, call func(context.Context, string) ([]byte, error)) (map[string]any, error) {
	v, err := g.fetch(kind, func() ([]byte, error) { return call(ctx, individualID) })
	if err != nil {
		g.logf("%s lookup for %s failed: %v", kind, individualID, err)
		return nil, err
	}
	frags, dropped := reconcile.Fragments(kind, v)
	g.logDropped(kind, dropped)
	for _, f := range frags {
		if f.IndividualID == "" || f.IndividualID == individualID {
			return f.Body, nil
		}
	}
	return nil, nil
}

// Directory lists the people the provider knows about.
func (g *Gatherer) Directory(ctx context.Context) ([]reconcile.DirectoryEntry, error) {
	v, err := g.fetch("directory", func() ([]byte, error) { return g.Provider.Directory(ctx) })
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	entries, dropped := reconcile.Directory(v)
	g.logDropped("directory", dropped)
	return entries, nil
}

// DirectoryEmployees reconciles directory entries alone, without per-person lookups.
func (g *Gatherer) DirectoryEmployees(ctx context.Context) ([]canonical.Employee, error) {
	entries, err := g.Directory(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]canonical.Employee, 0, len(entries))
	for _, e := range entries {
		out = append(out, reconcile.Employee(e.ID, reconcile.Sources{Directory: e.Raw}))
	}
	return out, nil
}

// =============================================================================
// BENEFITS
// =============================================================================

// Catalog fetches the company benefit catalog.
func (g *Gatherer) Catalog(ctx context.Context) ([]canonical.Benefit, error) {
	v, err := g.fetch("benefit", func() ([]byte, error) { return g.Provider.Benefits(ctx) })
	if err != nil {
		return nil, fmt.Errorf("benefits: %w", err)
	}
	catalog, dropped := reconcile.Benefits(v)
	g.logDropped("benefit", dropped)
	return catalog, nil
}

// catalogOrEmpty degrades a failed catalog lookup to an empty catalog.
func (g *Gatherer) catalogOrEmpty(ctx context.Context) []canonical.Benefit {
	catalog, err := g.Catalog(ctx)
	if err != nil {
		g.logf("catalog unavailable, treating as empty: %v", err)
		return nil
	}
	return catalog
}

// Deductions issues one lookup per catalog benefit for individualID. An empty
// catalog makes no calls. Failed lookups are logged and contribute nothing.
func (g *Gatherer) Deductions(ctx context.Context, catalog []canonical.Benefit, individualID string) []canonical.Deduction {
	if len(catalog) == 0 {
		return nil
	}

	results := make([][]canonical.Deduction, len(catalog))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.limit())
	for i, b := range catalog {
		i, b := i, b
		eg.Go(func() error {
			v, err := g.fetch("deduction", func() ([]byte, error) {
				return g.Provider.Deductions(ctx, b.BenefitID, individualID)
			})
			if err != nil {
				g.logf("deductions for benefit %s, individual %s failed: %v", b.BenefitID, individualID, err)
				return nil
			}
			ds, dropped := reconcile.Deductions(v, b, individualID, g.Match)
			g.logDropped("deduction", dropped)
			results[i] = ds
			return nil
		})
	}
	_ = eg.Wait()

	var out []canonical.Deduction
	for _, ds := range results {
		out = append(out, ds...)
	}
	return out
}

// Resolve fetches the catalog and the individual's deductions and resolves
// enrollment. A failed catalog lookup counts as an empty catalog.
func (g *Gatherer) Resolve(ctx context.Context, individualID string) (benefits.Resolution, []canonical.Deduction) {
	catalog := g.catalogOrEmpty(ctx)
	deductions := g.Deductions(ctx, catalog, individualID)
	return benefits.Resolve(individualID, catalog, deductions), deductions
}

// =============================================================================
// PER-EMPLOYEE OPERATIONS
// =============================================================================

// Eligibility reconciles the employee and evaluates the service requirement.
func (g *Gatherer) Eligibility(ctx context.Context, individualID string) (canonical.Eligibility, error) {
	emp, err := g.Employee(ctx, individualID)
	if err != nil {
		return canonical.Eligibility{}, err
	}
	return eligibility.Calculate(emp.Employment, g.AsOf())
}

// PayStatements fetches and reconciles the individual's pay statements.
func (g *Gatherer) PayStatements(ctx context.Context, individualID string) ([]canonical.PayStatement, error) {
	v, err := g.fetch("pay_statement", func() ([]byte, error) { return g.Provider.PayStatements(ctx, individualID) })
	if err != nil {
		if canonical.IsDataError(err) {
			g.logf("pay statements for %s: %v", individualID, err)
			return []canonical.PayStatement{}, nil
		}
		return nil, fmt.Errorf("pay statements %s: %w", individualID, err)
	}
	statements, dropped := reconcile.PayStatements(v, individualID)
	g.logDropped("pay_statement", dropped)
	return statements, nil
}

// Profile gathers the employee record and the benefit lookups concurrently.
func (g *Gatherer) Profile(ctx context.Context, individualID string) (Profile, error) {
	var (
		emp        canonical.Employee
		empErr     error
		res        benefits.Resolution
		deductions []canonical.Deduction
	)
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		emp, empErr = g.Employee(egctx, individualID)
		return nil
	})
	eg.Go(func() error {
		res, deductions = g.Resolve(egctx, individualID)
		return nil
	})
	_ = eg.Wait()
	if empErr != nil {
		return Profile{}, empErr
	}

	elig, err := eligibility.Calculate(emp.Employment, g.AsOf())
	if err != nil {
		return Profile{}, err
	}
	if deductions == nil {
		deductions = []canonical.Deduction{}
	}
	return Profile{
		Employee:      emp,
		Eligibility:   elig,
		Participation: benefits.Participation(elig, res),
		Retirement:    res.Retirement,
		Benefits:      res.Benefits,
		Deductions:    deductions,
	}, nil
}

// =============================================================================
// POPULATION
// =============================================================================

// Population gathers every directory entry with its derived facts. People
// whose lookups fail are excluded; an invariant violation aborts.
func (g *Gatherer) Population(ctx context.Context) ([]analytics.Member, error) {
	entries, err := g.Directory(ctx)
	if err != nil {
		return nil, err
	}
	catalog := g.catalogOrEmpty(ctx)
	asOf := g.AsOf()

	members := make([]*analytics.Member, len(entries))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.limit())
	for i, entry := range entries {
		i, entry := i, entry
		eg.Go(func() error {
			emp, err := g.employee(egctx, entry.ID, entry.Raw)
			if err != nil {
				g.logf("excluding %s: %v", entry.ID, err)
				return nil
			}
			elig, err := eligibility.Calculate(emp.Employment, asOf)
			if err != nil {
				return err
			}
			res := benefits.Resolve(entry.ID, catalog, g.Deductions(egctx, catalog, entry.ID))
			members[i] = &analytics.Member{
				Employee:    emp,
				Eligibility: elig,
				Retirement:  res.Retirement,
				Benefits:    res.Benefits,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]analytics.Member, 0, len(members))
	for _, m := range members {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

// Report aggregates the whole population.
func (g *Gatherer) Report(ctx context.Context) (analytics.Report, error) {
	members, err := g.Population(ctx)
	if err != nil {
		return analytics.Report{}, err
	}
	return analytics.Aggregate(members, g.AsOf())
}
