/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Canonical records are
  returned as-is; these types only wrap them with the context a client needs
  (which employer, which person, what was dropped).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

ABSENT FIELDS:
  Canonical fields that could not be read are omitted or null. Clients
  render them as "N/A"; the API never substitutes a placeholder.

SEE ALSO:
  - handlers.go: Uses these types
  - canonical/types.go: Record definitions
*/
package api

import (
	json "github.com/goccy/go-json"

	"github.com/warp/workforce-engine/canonical"
)

// EmployerDTO represents a demo employer in API responses.
type EmployerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at,omitempty"`
}

// DirectoryResponse lists the people an employer's provider knows about.
type DirectoryResponse struct {
	Employer  string               `json:"employer"`
	Count     int                  `json:"count"`
	Employees []canonical.Employee `json:"employees"`
}

// DeductionsResponse is the benefits view of one person.
type DeductionsResponse struct {
	IndividualID  string                                    `json:"individual_id"`
	Deductions    []canonical.Deduction                     `json:"deductions"`
	Retirement    canonical.RetirementStatus                `json:"retirement_401k"`
	Benefits      map[string]canonical.BenefitParticipation `json:"benefits"`
	Eligibility   canonical.Eligibility                     `json:"eligibility"`
	Participation canonical.Participation                   `json:"participation"`
}

// PayStatementsResponse lists one person's pay statements.
type PayStatementsResponse struct {
	IndividualID  string                   `json:"individual_id"`
	Count         int                      `json:"count"`
	PayStatements []canonical.PayStatement `json:"pay_statements"`
}

// EligibilityDTO is one row of the eligibility roster.
type EligibilityDTO struct {
	IndividualID  string                  `json:"individual_id"`
	Name          string                  `json:"name"`
	Department    string                  `json:"department,omitempty"`
	Eligibility   canonical.Eligibility   `json:"eligibility"`
	Participation canonical.Participation `json:"participation"`
}

// EligibilityResponse is the eligibility roster for an employer.
type EligibilityResponse struct {
	Employer string           `json:"employer"`
	AsOf     canonical.Date   `json:"as_of"`
	Eligible int              `json:"eligible_count"`
	Total    int              `json:"total"`
	Members  []EligibilityDTO `json:"members"`
}

// NormalizeEmployeeRequest carries raw fragments for one person. Any may be
// omitted. AsOf defaults to today.
type NormalizeEmployeeRequest struct {
	IndividualID string          `json:"individual_id"`
	Individual   json.RawMessage `json:"individual"`
	Employment   json.RawMessage `json:"employment"`
	Directory    json.RawMessage `json:"directory"`
	AsOf         string          `json:"as_of"`
}

// NormalizeEmployeeResponse is the reconciled record and its eligibility.
type NormalizeEmployeeResponse struct {
	Employee    canonical.Employee    `json:"employee"`
	Eligibility canonical.Eligibility `json:"eligibility"`
	Dropped     []string              `json:"dropped"`
}

// NormalizePayStatementsRequest carries one raw pay-statement response.
type NormalizePayStatementsRequest struct {
	IndividualID string          `json:"individual_id"`
	Response     json.RawMessage `json:"response"`
}

// NormalizePayStatementsResponse is the flattened statements and what was dropped.
type NormalizePayStatementsResponse struct {
	IndividualID  string                   `json:"individual_id"`
	PayStatements []canonical.PayStatement `json:"pay_statements"`
	Dropped       []string                 `json:"dropped"`
}

// TokenStatusDTO reports whether a fallback access token is configured.
type TokenStatusDTO struct {
	HasToken bool   `json:"has_token"`
	Masked   string `json:"masked,omitempty"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func errorStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
