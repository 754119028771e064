/*
Package analytics folds a reconciled population into workforce statistics.

METRIC GROUPS:
  - Headcount:     by department, employment type and active status
  - Compensation:  annualized income, distribution buckets, department averages
  - Funnel:        eligible -> enrolled -> actively contributing
  - Strategic:     hiring and turnover rates over total headcount
  - Benefits:      enrollment counts per catalog benefit

All money stays in minor units. Rates are percentages rounded to one decimal,
and a zero denominator yields a zero rate.
*/
package analytics

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/workforce-engine/canonical"
)

const (
	UnassignedDepartment  = "Unassigned"
	UnknownEmploymentType = "unknown"

	HiringWindowDays   = 90
	TurnoverWindowDays = 30
)

// Annualization multipliers. Hourly assumes 40h/week for 52 weeks.
var annualMultiplier = map[canonical.IncomeUnit]int64{
	canonical.IncomeHourly:   2080,
	canonical.IncomeWeekly:   52,
	canonical.IncomeBiWeekly: 26,
	canonical.IncomeMonthly:  12,
	canonical.IncomeYearly:   1,
}

// Compensation buckets, upper bounds exclusive, in minor units.
var buckets = []struct {
	Label string
	Below int64
}{
	{"<50k", 5_000_000},
	{"50k-100k", 10_000_000},
	{"100k-150k", 15_000_000},
	{">=150k", 0},
}

// Member is one employee with the facts derived for them.
type Member struct {
	Employee    canonical.Employee
	Eligibility canonical.Eligibility
	Retirement  canonical.RetirementStatus
	Benefits    map[string]canonical.BenefitParticipation
}

type Report struct {
	ID           uuid.UUID        `json:"id"`
	AsOf         canonical.Date   `json:"as_of"`
	Headcount    Headcount        `json:"headcount"`
	Compensation Compensation     `json:"compensation"`
	Funnel       Funnel           `json:"participation_funnel"`
	Strategic    Strategic        `json:"strategic"`
	Benefits     []BenefitSummary `json:"benefits"`
}

type Headcount struct {
	Total            int            `json:"total"`
	ByDepartment     map[string]int `json:"by_department"`
	ByEmploymentType map[string]int `json:"by_employment_type"`
	ByStatus         map[string]int `json:"by_status"`
}

type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Compensation struct {
	Currency string `json:"currency"`
	Count    int    `json:"count"`
	// Excluded counts incomes that could not be annualized or are in another currency.
	Excluded     int              `json:"excluded"`
	Total        int64            `json:"total_minor_units"`
	Average      int64            `json:"average_minor_units"`
	Min          int64            `json:"min_minor_units"`
	Max          int64            `json:"max_minor_units"`
	Distribution []Bucket         `json:"distribution"`
	ByDepartment map[string]int64 `json:"average_by_department_minor_units"`
}

type Funnel struct {
	Eligible           int     `json:"eligible_count"`
	Enrolled           int     `json:"enrolled_count"`
	ActiveContributors int     `json:"active_contributor_count"`
	EnrollmentRate     float64 `json:"enrollment_rate"`
	ContributionRate   float64 `json:"contribution_rate"`
}

type Strategic struct {
	TotalHeadcount  int     `json:"total_headcount"`
	ActiveHeadcount int     `json:"active_headcount"`
	NewHires        int     `json:"new_hires"`
	Departures      int     `json:"departures"`
	HiringRate      float64 `json:"hiring_rate"`
	TurnoverRate    float64 `json:"turnover_rate"`
}

type BenefitSummary struct {
	BenefitID            string `json:"benefit_id"`
	Name                 string `json:"name,omitempty"`
	Type                 string `json:"type,omitempty"`
	Enrolled             int    `json:"enrolled"`
	ActivelyContributing int    `json:"actively_contributing"`
}

// Annualize converts an income figure to a yearly amount in minor units.
func Annualize(income *canonical.Income) (decimal.Decimal, bool) {
	if income == nil {
		return decimal.Decimal{}, false
	}
	mult, ok := annualMultiplier[income.Unit]
	if !ok {
		return decimal.Decimal{}, false
	}
	return income.Money.Decimal().Mul(decimal.NewFromInt(mult)), true
}

// BucketOf returns the distribution label for an annualized amount.
func BucketOf(annualMinor int64) string {
	for _, b := range buckets[:len(buckets)-1] {
		if annualMinor < b.Below {
			return b.Label
		}
	}
	return buckets[len(buckets)-1].Label
}

// Rate is n/d as a percentage rounded to one decimal, 0 when d is 0.
func Rate(n, d int) float64 {
	if d == 0 {
		return 0
	}
	r, _ := decimal.NewFromInt(int64(n)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(d))).
		Round(1).
		Float64()
	return r
}

// Aggregate computes the report for members as of asOf.
func Aggregate(members []Member, asOf canonical.Date) (Report, error) {
	funnel, err := participationFunnel(members)
	if err != nil {
		return Report{}, err
	}
	return Report{
		ID:           uuid.New(),
		AsOf:         asOf,
		Headcount:    headcount(members),
		Compensation: compensation(members),
		Funnel:       funnel,
		Strategic:    strategic(members, asOf),
		Benefits:     benefitSummary(members),
	}, nil
}

func headcount(members []Member) Headcount {
	h := Headcount{
		Total:            len(members),
		ByDepartment:     make(map[string]int),
		ByEmploymentType: make(map[string]int),
		ByStatus:         map[string]int{"active": 0, "inactive": 0},
	}
	for _, m := range members {
		emp := m.Employee.Employment
		h.ByDepartment[department(emp)]++
		t := emp.EmploymentType
		if t == "" {
			t = UnknownEmploymentType
		}
		h.ByEmploymentType[t]++
		if emp.IsActive {
			h.ByStatus["active"]++
		} else {
			h.ByStatus["inactive"]++
		}
	}
	return h
}

func department(emp canonical.Employment) string {
	if emp.Department == "" {
		return UnassignedDepartment
	}
	return emp.Department
}

// reportingCurrency is the currency most incomes are paid in. Ties go to
// DefaultCurrency, then to the alphabetically first code.
func reportingCurrency(members []Member) string {
	counts := make(map[string]int)
	for _, m := range members {
		income := m.Employee.Employment.Income
		if _, ok := Annualize(income); ok {
			counts[income.Money.Currency]++
		}
	}
	best := canonical.DefaultCurrency
	for cur, n := range counts {
		top := counts[best]
		switch {
		case n > top:
			best = cur
		case n < top || best == canonical.DefaultCurrency:
		case cur == canonical.DefaultCurrency || cur < best:
			best = cur
		}
	}
	return best
}

func compensation(members []Member) Compensation {
	c := Compensation{
		Distribution: make([]Bucket, len(buckets)),
		ByDepartment: make(map[string]int64),
	}
	for i, b := range buckets {
		c.Distribution[i].Label = b.Label
	}

	c.Currency = reportingCurrency(members)
	total := decimal.Zero
	deptTotal := make(map[string]decimal.Decimal)
	deptCount := make(map[string]int64)
	for _, m := range members {
		income := m.Employee.Employment.Income
		annual, ok := Annualize(income)
		if !ok {
			if income != nil {
				c.Excluded++
			}
			continue
		}
		if income.Money.Currency != c.Currency {
			c.Excluded++
			continue
		}

		minor := annual.Round(0).IntPart()
		if c.Count == 0 || minor < c.Min {
			c.Min = minor
		}
		if c.Count == 0 || minor > c.Max {
			c.Max = minor
		}
		c.Count++
		total = total.Add(annual)

		label := BucketOf(minor)
		for i := range c.Distribution {
			if c.Distribution[i].Label == label {
				c.Distribution[i].Count++
			}
		}

		dept := department(m.Employee.Employment)
		deptTotal[dept] = deptTotal[dept].Add(annual)
		deptCount[dept]++
	}

	c.Total = total.Round(0).IntPart()
	if c.Count > 0 {
		c.Average = total.Div(decimal.NewFromInt(int64(c.Count))).Round(0).IntPart()
	}
	for dept, sum := range deptTotal {
		c.ByDepartment[dept] = sum.Div(decimal.NewFromInt(deptCount[dept])).Round(0).IntPart()
	}
	return c
}

func participationFunnel(members []Member) (Funnel, error) {
	var f Funnel
	for _, m := range members {
		if !m.Eligibility.IsEligible {
			continue
		}
		f.Eligible++
		if !m.Retirement.Enrolled {
			continue
		}
		f.Enrolled++
		if m.Retirement.ActivelyContributing {
			f.ActiveContributors++
		}
	}
	if f.ActiveContributors > f.Enrolled || f.Enrolled > f.Eligible {
		return Funnel{}, &canonical.InvariantError{
			Fact:   "participation_funnel",
			Detail: fmt.Sprintf("active=%d enrolled=%d eligible=%d", f.ActiveContributors, f.Enrolled, f.Eligible),
		}
	}
	f.EnrollmentRate = Rate(f.Enrolled, f.Eligible)
	f.ContributionRate = Rate(f.ActiveContributors, f.Enrolled)
	return f, nil
}

func strategic(members []Member, asOf canonical.Date) Strategic {
	s := Strategic{TotalHeadcount: len(members)}
	for _, m := range members {
		emp := m.Employee.Employment
		if emp.IsActive {
			s.ActiveHeadcount++
		}
		if emp.StartDate != nil && emp.StartDate.Within(HiringWindowDays, asOf) {
			s.NewHires++
		}
		if emp.EndDate != nil && emp.EndDate.Within(TurnoverWindowDays, asOf) {
			s.Departures++
		}
	}
	s.HiringRate = Rate(s.NewHires, s.TotalHeadcount)
	s.TurnoverRate = Rate(s.Departures, s.TotalHeadcount)
	return s
}

func benefitSummary(members []Member) []BenefitSummary {
	byID := make(map[string]*BenefitSummary)
	for _, m := range members {
		for id, bp := range m.Benefits {
			s, ok := byID[id]
			if !ok {
				s = &BenefitSummary{BenefitID: id, Name: bp.Name, Type: bp.Type}
				byID[id] = s
			}
			if bp.Enrolled {
				s.Enrolled++
			}
			if bp.Enrolled && bp.ActivelyContributing {
				s.ActivelyContributing++
			}
		}
	}
	out := make([]BenefitSummary, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BenefitID < out[j].BenefitID })
	return out
}
