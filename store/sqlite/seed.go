package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/warp/workforce-engine/gather"
)

// Demo employer ids.
const (
	DemoEnvelopeEmployer = "acme"
	DemoFlatEmployer     = "globex"
)

type obj = map[string]any

// demoPerson is one seeded employee. Income is in cents.
type demoPerson struct {
	id, first, last, title, dept, kind string
	manager                            string
	start, end                         time.Time
	income                             int64
	unit                               string
	city, state                        string
	retirement                         obj // deduction body, nil when not enrolled
	medical                            bool
}

// SeedDemo loads two demo employers whose upstream responses use different
// shapes. Start dates near now are computed from now so the eligibility and
// hiring figures stay interesting.
func SeedDemo(ctx context.Context, s *Store, now time.Time) error {
	if err := seedEnvelopeEmployer(ctx, s, now); err != nil {
		return fmt.Errorf("seed %s: %w", DemoEnvelopeEmployer, err)
	}
	if err := seedFlatEmployer(ctx, s, now); err != nil {
		return fmt.Errorf("seed %s: %w", DemoFlatEmployer, err)
	}
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ymd(t time.Time) string {
	return t.Format("2006-01-02")
}

// =============================================================================
// ACME - batch envelopes, integer cents, percent contributions
// =============================================================================

func acmePeople(now time.Time) []demoPerson {
	return []demoPerson{
		{
			id: "acme-001", first: "Ada", last: "Lovelace", title: "VP Engineering", dept: "Engineering", kind: "full_time",
			start: day(2021, time.March, 15), income: 21000000, unit: "yearly", city: "San Francisco", state: "CA",
			retirement: obj{
				"employee_deduction":   obj{"type": "percent", "amount": 6},
				"company_contribution": obj{"type": "percent", "amount": 4},
			},
			medical: true,
		},
		{
			id: "acme-002", first: "Grace", last: "Hopper", title: "Staff Engineer", dept: "Engineering", kind: "full_time",
			manager: "acme-001", start: day(2022, time.June, 1), income: 16500000, unit: "yearly", city: "New York", state: "NY",
			retirement: obj{"employee_deduction": obj{"type": "percent", "amount": 5}},
			medical:    true,
		},
		{
			id: "acme-003", first: "Alan", last: "Turing", title: "Research Scientist", dept: "Research", kind: "full_time",
			manager: "acme-001", start: day(2023, time.January, 9), income: 14000000, unit: "yearly", city: "Boston", state: "MA",
			retirement: obj{"employee_deduction": obj{"type": "percent", "amount": 0}},
		},
		{
			id: "acme-004", first: "Katherine", last: "Johnson", title: "Controller", dept: "Finance", kind: "full_time",
			start: day(2020, time.November, 2), income: 9500000, unit: "yearly", city: "Hampton", state: "VA",
			medical: true,
		},
		{
			id: "acme-005", first: "Linus", last: "Pauling", title: "Operations Intern", dept: "Operations", kind: "intern",
			manager: "acme-004", start: now.AddDate(0, 0, -30), income: 2800, unit: "hourly", city: "Portland", state: "OR",
		},
		{
			id: "acme-006", first: "Hedy", last: "Lamarr", title: "Account Executive", dept: "Sales", kind: "full_time",
			start: day(2021, time.August, 1), end: now.AddDate(0, 0, -10), income: 8800000, unit: "yearly", city: "Austin", state: "TX",
		},
	}
}

func seedEnvelopeEmployer(ctx context.Context, s *Store, now time.Time) error {
	const employer = DemoEnvelopeEmployer
	if err := s.SaveEmployer(ctx, Employer{ID: employer, Name: "Acme Robotics"}); err != nil {
		return err
	}
	people := acmePeople(now)

	directory := make([]any, 0, len(people))
	for _, p := range people {
		entry := obj{
			"id":         p.id,
			"first_name": p.first,
			"last_name":  p.last,
			"department": obj{"name": p.dept},
			"is_active":  p.end.IsZero(),
		}
		if p.manager != "" {
			entry["manager"] = obj{"id": p.manager}
		}
		directory = append(directory, entry)
	}
	if err := s.SaveFragmentJSON(ctx, employer, gather.EndpointDirectory, "", obj{"individuals": directory}); err != nil {
		return err
	}

	for _, p := range people {
		individual := obj{
			"id":         p.id,
			"first_name": p.first,
			"last_name":  p.last,
			"emails":     []any{obj{"data": fmt.Sprintf("%s.%s@acme.example", strings.ToLower(p.first), strings.ToLower(p.last)), "type": "work"}},
		}
		employment := obj{
			"id":         p.id,
			"title":      p.title,
			"department": obj{"name": p.dept},
			"employment": obj{"type": "employee", "subtype": p.kind},
			"start_date": ymd(p.start),
			"is_active":  p.end.IsZero(),
			"income":     obj{"unit": p.unit, "amount": p.income, "currency": "usd"},
			"location":   obj{"city": p.city, "state": p.state, "country": "US"},
		}
		if !p.end.IsZero() {
			employment["end_date"] = ymd(p.end)
		}
		if p.manager != "" {
			employment["manager"] = obj{"id": p.manager}
		}
		if err := s.SaveFragmentJSON(ctx, employer, gather.EndpointIndividual, p.id, batchResponse(p.id, individual)); err != nil {
			return err
		}
		if err := s.SaveFragmentJSON(ctx, employer, gather.EndpointEmployment, p.id, batchResponse(p.id, employment)); err != nil {
			return err
		}
		if err := s.SaveFragmentJSON(ctx, employer, gather.EndpointPayStatements, p.id, acmeStatements(p, now)); err != nil {
			return err
		}
	}

	benefits := []any{
		obj{"benefit_id": "acme-401k", "type": "401k", "description": "401(k) Retirement Plan", "frequency": "every_paycheck"},
		obj{"benefit_id": "acme-medical", "type": "s125_medical", "description": "Medical", "frequency": "every_paycheck"},
	}
	if err := s.SaveFragmentJSON(ctx, employer, gather.EndpointBenefits, "", benefits); err != nil {
		return err
	}

	var retirement, medical []any
	for _, p := range people {
		if p.retirement != nil {
			retirement = append(retirement, obj{"individual_id": p.id, "code": 200, "body": p.retirement})
		}
		if p.medical {
			medical = append(medical, obj{"individual_id": p.id, "code": 200, "body": obj{
				"employee_deduction":   obj{"type": "fixed", "amount": 18500},
				"company_contribution": obj{"type": "fixed", "amount": 42000},
			}})
		}
	}
	if err := s.SaveFragmentJSON(ctx, employer, gather.EndpointDeductions, "acme-401k", retirement); err != nil {
		return err
	}
	return s.SaveFragmentJSON(ctx, employer, gather.EndpointDeductions, "acme-medical", medical)
}

func batchResponse(id string, body obj) obj {
	return obj{"responses": []any{obj{"individual_id": id, "code": 200, "body": body}}}
}

// acmeStatements returns the last two runs in cents. Interns also carry a
// pending run recorded with a non-200 code.
func acmeStatements(p demoPerson, now time.Time) obj {
	perRun := p.income / 24
	if p.unit == "hourly" {
		perRun = p.income * 80
	}
	runs := []time.Time{now.AddDate(0, 0, -30), now.AddDate(0, 0, -15)}
	statements := []any{}
	for _, paid := range runs {
		if paid.Before(p.start) || (!p.end.IsZero() && paid.After(p.end)) {
			continue
		}
		net := perRun * 72 / 100
		statements = append(statements, obj{
			"individual_id":  p.id,
			"type":           "regular_payroll",
			"payment_method": "direct_deposit",
			"pay_date":       ymd(paid),
			"gross_pay":      obj{"amount": perRun, "currency": "usd"},
			"net_pay":        obj{"amount": net, "currency": "usd"},
			"earnings":       []any{obj{"type": "salary", "name": "Regular", "amount": perRun, "currency": "usd"}},
			"taxes": []any{
				obj{"type": "federal", "name": "Federal Income Tax", "employer": false, "amount": perRun * 18 / 100, "currency": "usd"},
				obj{"type": "fica", "name": "Social Security", "employer": true, "amount": perRun * 62 / 1000, "currency": "usd"},
			},
			"employee_deductions": []any{},
		})
	}
	responses := []any{obj{"individual_id": p.id, "code": 200, "body": obj{"pay_statements": statements}}}
	if p.kind == "intern" {
		responses = append(responses, obj{"individual_id": p.id, "code": 202, "body": obj{}})
	}
	return obj{"responses": responses}
}

// =============================================================================
// GLOBEX - flat records, numeric strings, nested deductions
//
// Whole amounts are cents; amounts with cents are dollars.
// =============================================================================

func seedFlatEmployer(ctx context.Context, s *Store, now time.Time) error {
	const employer = DemoFlatEmployer
	if err := s.SaveEmployer(ctx, Employer{ID: employer, Name: "Globex Staffing"}); err != nil {
		return err
	}

	type person struct {
		id, first, last, email, title, dept, kind, status string
		start                                             string
		salary                                            string
		unit                                              string
		location                                          string
		deduction                                         obj
	}
	people := []person{
		{
			id: "gx-101", first: "Marie", last: "Curie", email: "mcurie@globex.example", title: "Support Lead", dept: "Support",
			kind: "full_time", status: "active", start: "2022-02-14T09:00:00Z", salary: "9800000", unit: "annual", location: "Chicago, IL",
			deduction: obj{"type": "401k", "contribution_amount": obj{"amount": "25000"}, "contribution_percentage": 0},
		},
		{
			id: "gx-102", first: "Nikola", last: "Tesla", email: "ntesla@globex.example", title: "Field Technician", dept: "",
			kind: "contractor", status: "active", start: ymd(now.AddDate(0, 0, -45)), salary: "42.50", unit: "hourly", location: "Remote",
		},
		{
			id: "gx-103", first: "Rosalind", last: "Franklin", email: "rfranklin@globex.example", title: "Analyst", dept: "Support",
			kind: "part_time", status: "active", start: "03/01/2023", salary: "310000", unit: "monthly", location: "Denver, CO",
			deduction: obj{"type": "401k", "contribution_percentage": 3, "deduction_amount": obj{"amount": 0}},
		},
		{
			id: "gx-104", first: "Carl", last: "Sagan", email: "csagan@globex.example", title: "Trainer", dept: "Training",
			kind: "full_time", status: "terminated", start: "2019-09-30", salary: "6100000", unit: "salary", location: "Ithaca, NY",
		},
	}

	var directory, retirement []any
	for _, p := range people {
		directory = append(directory, obj{"id": p.id, "first_name": p.first, "last_name": p.last, "department": p.dept})

		individual := obj{"id": p.id, "first_name": p.first, "last_name": p.last, "email": p.email}
		employment := obj{"data": []any{obj{
			"individual_id":     p.id,
			"job_title":         p.title,
			"department":        p.dept,
			"employment_type":   p.kind,
			"employment_status": p.status,
			"start_date":        p.start,
			"income":            obj{"amount": p.salary, "currency": "usd", "unit": p.unit},
			"location":          p.location,
		}}}
		if err := s.SaveFragmentJSON(ctx, employer, gather.EndpointIndividual, p.id, individual); err != nil {
			return err
		}
		if err := s.SaveFragmentJSON(ctx, employer, gather.EndpointEmployment, p.id, employment); err != nil {
			return err
		}

		statements := []any{obj{
			"individual_id": p.id,
			"pay_period":    obj{"start_date": ymd(now.AddDate(0, 0, -28)), "end_date": ymd(now.AddDate(0, 0, -14))},
			"gross":         "185000",
			"net":           "1402.75",
			"total_hours":   80,
		}}
		if err := s.SaveFragmentJSON(ctx, employer, gather.EndpointPayStatements, p.id, statements); err != nil {
			return err
		}

		if p.deduction != nil {
			retirement = append(retirement, obj{"individual_id": p.id, "deduction": p.deduction})
		}
	}
	if err := s.SaveFragmentJSON(ctx, employer, gather.EndpointDirectory, "", obj{"employees": directory}); err != nil {
		return err
	}

	benefits := obj{"benefits": []any{
		obj{"id": "gx-retire", "name": "Globex Roth 401(k)", "benefit_type": "401k_roth"},
	}}
	if err := s.SaveFragmentJSON(ctx, employer, gather.EndpointBenefits, "", benefits); err != nil {
		return err
	}
	return s.SaveFragmentJSON(ctx, employer, gather.EndpointDeductions, "gx-retire", obj{"deductions": retirement})
}
