/*
Package canonical defines the normalized workforce model.

PURPOSE:
  Upstream HR-data providers describe the same person, benefit or pay run in
  many shapes. Everything downstream of the reconciler works on the types in
  this package only, so eligibility rules, benefit resolution and analytics
  never see provider-specific structure.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: integer minor units (cents) plus an ISO-4217 code
  - Employee: Individual (personal fields) + Employment (terms of work)
  - PayStatement: one pay run for one individual, lines always non-nil
  - Benefit / Deduction: catalog entry and per-individual deduction
  - Eligibility / Participation / RetirementStatus: derived facts

INVARIANTS:
  1. Money is always stored in minor units. Dividing by 100 for display is a
     presentation concern and never happens in the engine.
  2. Records are immutable after construction. A re-fetch produces a new
     record; nothing mutates an existing one.
  3. Absent data is represented by nil pointers or empty strings, never by a
     zero amount. A nil *Money means "no data", Money{0, "USD"} means "zero".

SEE ALSO:
  - time.go: Date (calendar-day granularity)
  - errors.go: Error taxonomy shared by all engine packages
  - normalize/: Field-level coercion into these types
  - reconcile/: Record-level assembly of these types
*/
package canonical

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY
// =============================================================================

// DefaultCurrency is assumed when an upstream amount carries no currency.
const DefaultCurrency = "USD"

// Money is an amount in minor currency units.
type Money struct {
	AmountMinorUnits int64  `json:"amount_minor_units"`
	Currency         string `json:"currency"`
}

func NewMoney(minor int64, currency string) Money {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{AmountMinorUnits: minor, Currency: currency}
}

func (m Money) Decimal() decimal.Decimal { return decimal.NewFromInt(m.AmountMinorUnits) }
func (m Money) IsZero() bool             { return m.AmountMinorUnits == 0 }
func (m Money) IsPositive() bool         { return m.AmountMinorUnits > 0 }

// =============================================================================
// INCOME
// =============================================================================

type IncomeUnit string

const (
	IncomeHourly   IncomeUnit = "hourly"
	IncomeWeekly   IncomeUnit = "weekly"
	IncomeBiWeekly IncomeUnit = "bi_weekly"
	IncomeMonthly  IncomeUnit = "monthly"
	IncomeYearly   IncomeUnit = "yearly"
)

// ParseIncomeUnit maps provider spellings onto the closed unit set.
func ParseIncomeUnit(s string) (IncomeUnit, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hourly", "hour", "per_hour":
		return IncomeHourly, true
	case "weekly", "week":
		return IncomeWeekly, true
	case "bi_weekly", "biweekly", "bi-weekly", "fortnightly":
		return IncomeBiWeekly, true
	case "monthly", "month":
		return IncomeMonthly, true
	case "yearly", "annual", "annually", "year", "salary":
		return IncomeYearly, true
	default:
		return "", false
	}
}

type Income struct {
	Money Money      `json:"money"`
	Unit  IncomeUnit `json:"unit"`
}

// =============================================================================
// PEOPLE
// =============================================================================

type Location struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Display    string `json:"display"`
}

// Individual holds personal fields. Empty strings mean the provider sent nothing.
type Individual struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name,omitempty"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Email      string `json:"email,omitempty"`
}

// FullName joins the non-empty name parts.
func (i Individual) FullName() string {
	var parts []string
	for _, p := range []string{i.FirstName, i.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Employment holds the terms of work for one individual.
type Employment struct {
	IndividualID   string    `json:"individual_id"`
	StartDate      *Date     `json:"start_date"`
	EndDate        *Date     `json:"end_date,omitempty"`
	IsActive       bool      `json:"is_active"`
	Title          string    `json:"title,omitempty"`
	Department     string    `json:"department,omitempty"`
	EmploymentType string    `json:"employment_type,omitempty"`
	ManagerID      string    `json:"manager_id,omitempty"`
	Income         *Income   `json:"income,omitempty"`
	Location       *Location `json:"location,omitempty"`
}

// Employee is the canonical record for one person.
type Employee struct {
	Individual Individual `json:"individual"`
	Employment Employment `json:"employment"`
}

func (e Employee) ID() string { return e.Individual.ID }

// =============================================================================
// PAY STATEMENTS
// =============================================================================

type EarningLine struct {
	Type   string           `json:"type,omitempty"`
	Name   string           `json:"name,omitempty"`
	Hours  *decimal.Decimal `json:"hours,omitempty"`
	Amount *Money           `json:"amount"`
}

type TaxLine struct {
	Type     string `json:"type,omitempty"`
	Name     string `json:"name,omitempty"`
	Employer bool   `json:"employer"`
	Amount   *Money `json:"amount"`
}

type DeductionLine struct {
	Type   string `json:"type,omitempty"`
	Name   string `json:"name,omitempty"`
	PreTax bool   `json:"pre_tax"`
	Amount *Money `json:"amount"`
}

// PayStatement is one pay run for one individual.
// Earnings, Taxes and Deductions are never nil after reconciliation.
type PayStatement struct {
	IndividualID  string           `json:"individual_id"`
	Type          string           `json:"type,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	PayDate       *Date            `json:"pay_date"`
	PeriodStart   *Date            `json:"period_start"`
	PeriodEnd     *Date            `json:"period_end"`
	GrossPay      *Money           `json:"gross_pay"`
	NetPay        *Money           `json:"net_pay"`
	TotalHours    *decimal.Decimal `json:"total_hours"`
	Earnings      []EarningLine    `json:"earnings"`
	Taxes         []TaxLine        `json:"taxes"`
	Deductions    []DeductionLine  `json:"deductions"`
}

// =============================================================================
// BENEFITS & DEDUCTIONS
// =============================================================================

// Retirement plan types recognized by the engine. Provider vocabulary is not
// unified beyond these two.
const (
	BenefitType401k     = "401k"
	BenefitType401kRoth = "401k_roth"
)

func IsRetirementType(t string) bool {
	return t == BenefitType401k || t == BenefitType401kRoth
}

type Benefit struct {
	BenefitID string `json:"benefit_id"`
	Name      string `json:"name,omitempty"`
	Type      string `json:"type,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

func (b Benefit) IsRetirement() bool { return IsRetirementType(b.Type) }

type ContributionKind string

const (
	ContributionPercent ContributionKind = "percent"
	ContributionFixed   ContributionKind = "fixed"
)

// Contribution is a deduction or company match. Fixed amounts are minor
// units; percent amounts are percentages (4.5 = 4.5%).
type Contribution struct {
	Kind   ContributionKind `json:"kind"`
	Amount decimal.Decimal  `json:"amount"`
}

func (c *Contribution) IsPositive() bool { return c != nil && c.Amount.IsPositive() }

type Deduction struct {
	BenefitID           string        `json:"benefit_id"`
	BenefitName         string        `json:"benefit_name,omitempty"`
	BenefitType         string        `json:"benefit_type,omitempty"`
	IndividualID        string        `json:"individual_id,omitempty"`
	EmployeeDeduction   *Contribution `json:"employee_deduction"`
	CompanyContribution *Contribution `json:"company_contribution"`
}

// =============================================================================
// DERIVED FACTS - computed per request, never stored
// =============================================================================

type Eligibility struct {
	IsEligible        bool  `json:"is_eligible"`
	DaysSinceStart    int   `json:"days_since_start"`
	DaysUntilEligible int   `json:"days_until_eligible"`
	StartDate         *Date `json:"start_date"`
}

type Participation struct {
	Eligible             bool `json:"eligible"`
	EnrolledInRetirement bool `json:"enrolled_in_retirement"`
	ActivelyContributing bool `json:"actively_contributing"`
}

// RetirementStatus is the distinguished retirement fact for one individual.
type RetirementStatus struct {
	BenefitAvailable     bool   `json:"benefit_available"`
	Enrolled             bool   `json:"enrolled"`
	ActivelyContributing bool   `json:"actively_contributing"`
	BenefitID            string `json:"benefit_id,omitempty"`
	BenefitType          string `json:"benefit_type,omitempty"`
}

type BenefitParticipation struct {
	BenefitID            string        `json:"benefit_id"`
	Name                 string        `json:"name,omitempty"`
	Type                 string        `json:"type,omitempty"`
	Enrolled             bool          `json:"enrolled"`
	ActivelyContributing bool          `json:"actively_contributing"`
	EmployeeDeduction    *Contribution `json:"employee_deduction,omitempty"`
	CompanyContribution  *Contribution `json:"company_contribution,omitempty"`
}
