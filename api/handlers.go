/*
handlers.go - HTTP API handlers for the workforce engine

PURPOSE:
  Exposes the normalization, eligibility and participation engine via REST.
  Handles HTTP request/response and JSON serialization, and delegates the
  upstream fan-out to gather.Gatherer.

ENDPOINTS:
  Service:
    GET    /health                                       Liveness
    GET    /api/token/status                             Fallback token configured?
    GET    /api/employers                                List demo employers
    POST   /api/demo/reset                               Re-seed demo employers

  Per employer ({employer} is a demo id or any id for the live provider):
    GET    /api/employers/{employer}/directory           Directory records
    GET    /api/employers/{employer}/employees/{id}      Profile bundle
    GET    /api/employers/{employer}/employees/{id}/deductions
    GET    /api/employers/{employer}/employees/{id}/pay-statements
    GET    /api/employers/{employer}/eligibility         Eligibility roster
    GET    /api/employers/{employer}/reports             Workforce report

  Stateless:
    POST   /api/normalize/employee                       Reconcile raw fragments
    POST   /api/normalize/pay-statements                 Flatten a raw response

UPSTREAM SELECTION:
  A demo employer in the fixture store is served from recorded responses.
  Any other employer goes to the live provider, authenticated with the
  request's bearer token or, failing that, the configured one.

ERROR HANDLING:
  - 400: Invalid input
  - 401: No access token available
  - 404: Unknown employer or person; provider 404 passed through
  - 429: Upstream rate limit
  - 500: Invariant violation, internal errors
  - 501: Provider does not implement the endpoint
  - 503: Upstream unreachable
  - 504: Upstream timeout

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/warp/workforce-engine/benefits"
	"github.com/warp/workforce-engine/canonical"
	"github.com/warp/workforce-engine/eligibility"
	"github.com/warp/workforce-engine/gather"
	"github.com/warp/workforce-engine/normalize"
	"github.com/warp/workforce-engine/provider"
	"github.com/warp/workforce-engine/reconcile"
	"github.com/warp/workforce-engine/store/sqlite"
)

const maxBodyBytes = 4 << 20

var errUnknownEmployer = errors.New("unknown employer")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	// Upstream serves employers not in Store. Nil disables live employers.
	Upstream *provider.HTTP

	Concurrency int
	Match       reconcile.MatchPolicy
	Now         func() time.Time
	Logger      *log.Logger
}

// NewHandler creates a new handler with the given store and upstream.
func NewHandler(store *sqlite.Store, upstream *provider.HTTP) *Handler {
	return &Handler{
		Store:       store,
		Upstream:    upstream,
		Concurrency: gather.DefaultConcurrency,
		Now:         time.Now,
	}
}

func (h *Handler) logf(format string, args ...any) {
	if h.Logger != nil {
		h.Logger.Printf("[API] "+format, args...)
		return
	}
	log.Printf("[API] "+format, args...)
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// gatherer picks the upstream for the employer named in the route.
func (h *Handler) gatherer(r *http.Request) (*gather.Gatherer, error) {
	employer := chi.URLParam(r, "employer")
	rec, err := h.Store.GetEmployer(r.Context(), employer)
	if err != nil {
		return nil, fmt.Errorf("lookup employer: %w", err)
	}

	var p gather.Provider
	switch {
	case rec != nil:
		p = h.Store.Employer(employer)
	case h.Upstream != nil:
		upstream := h.Upstream
		if token, ok := bearer(r); ok {
			upstream = upstream.WithTokens(provider.StaticToken(token))
		}
		p = upstream
	default:
		return nil, fmt.Errorf("%q: %w", employer, errUnknownEmployer)
	}

	g := gather.New(p)
	g.Concurrency = h.Concurrency
	g.Match = h.Match
	g.Now = h.now
	g.Logger = h.Logger
	return g, nil
}

func bearer(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// =============================================================================
// SERVICE ENDPOINTS
// =============================================================================

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TokenStatus reports whether a fallback access token is configured, masked.
// GET /api/token/status
func (h *Handler) TokenStatus(w http.ResponseWriter, r *http.Request) {
	status := TokenStatusDTO{}
	if h.Upstream != nil && h.Upstream.Tokens != nil {
		if token, err := h.Upstream.Tokens.Token(r.Context()); err == nil {
			status.HasToken = true
			status.Masked = mask(token)
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func mask(token string) string {
	if len(token) <= 8 {
		return "..."
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// ListEmployers returns the demo employers.
// GET /api/employers
func (h *Handler) ListEmployers(w http.ResponseWriter, r *http.Request) {
	employers, err := h.Store.ListEmployers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employers", err)
		return
	}
	writeJSON(w, http.StatusOK, employerDTOs(employers))
}

// ResetDemo clears the fixture store and seeds the demo employers again.
// POST /api/demo/reset
func (h *Handler) ResetDemo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	if err := sqlite.SeedDemo(ctx, h.Store, h.now()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed demo employers", err)
		return
	}
	employers, err := h.Store.ListEmployers(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employers", err)
		return
	}
	writeJSON(w, http.StatusOK, employerDTOs(employers))
}

func employerDTOs(employers []sqlite.Employer) []EmployerDTO {
	dtos := make([]EmployerDTO, len(employers))
	for i, e := range employers {
		dtos[i] = EmployerDTO{
			ID:        e.ID,
			Name:      e.Name,
			Source:    "fixture",
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

// =============================================================================
// EMPLOYER ENDPOINTS
// =============================================================================

// GetDirectory returns the directory records without per-person lookups.
// GET /api/employers/{employer}/directory
func (h *Handler) GetDirectory(w http.ResponseWriter, r *http.Request) {
	g, err := h.gatherer(r)
	if err != nil {
		h.writeUpstreamError(w, err, "directory")
		return
	}
	employees, err := g.DirectoryEmployees(r.Context())
	if err != nil {
		h.writeUpstreamError(w, err, "directory")
		return
	}
	writeJSON(w, http.StatusOK, DirectoryResponse{
		Employer:  chi.URLParam(r, "employer"),
		Count:     len(employees),
		Employees: employees,
	})
}

// GetEmployee returns the profile bundle: record, eligibility, retirement
// status, and deductions.
// GET /api/employers/{employer}/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	profile, ok := h.profile(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// GetDeductions returns the benefits view of one person.
// GET /api/employers/{employer}/employees/{id}/deductions
func (h *Handler) GetDeductions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	profile, ok := h.profile(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, DeductionsResponse{
		IndividualID:  id,
		Deductions:    profile.Deductions,
		Retirement:    profile.Retirement,
		Benefits:      profile.Benefits,
		Eligibility:   profile.Eligibility,
		Participation: profile.Participation,
	})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request, id string) (gather.Profile, bool) {
	endpoint := "employee/" + id
	g, err := h.gatherer(r)
	if err != nil {
		h.writeUpstreamError(w, err, endpoint)
		return gather.Profile{}, false
	}
	profile, err := g.Profile(r.Context(), id)
	if err != nil {
		h.writeUpstreamError(w, err, endpoint)
		return gather.Profile{}, false
	}
	return profile, true
}

// GetPayStatements returns one person's pay statements.
// GET /api/employers/{employer}/employees/{id}/pay-statements
func (h *Handler) GetPayStatements(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	g, err := h.gatherer(r)
	if err != nil {
		h.writeUpstreamError(w, err, "pay-statement")
		return
	}
	statements, err := g.PayStatements(r.Context(), id)
	if err != nil {
		h.writeUpstreamError(w, err, "pay-statement")
		return
	}
	writeJSON(w, http.StatusOK, PayStatementsResponse{
		IndividualID:  id,
		Count:         len(statements),
		PayStatements: statements,
	})
}

// GetEligibility returns the eligibility roster.
// GET /api/employers/{employer}/eligibility
func (h *Handler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	g, err := h.gatherer(r)
	if err != nil {
		h.writeUpstreamError(w, err, "eligibility")
		return
	}
	members, err := g.Population(r.Context())
	if err != nil {
		h.writeUpstreamError(w, err, "eligibility")
		return
	}

	resp := EligibilityResponse{
		Employer: chi.URLParam(r, "employer"),
		AsOf:     g.AsOf(),
		Total:    len(members),
		Members:  make([]EligibilityDTO, 0, len(members)),
	}
	for _, m := range members {
		if m.Eligibility.IsEligible {
			resp.Eligible++
		}
		resp.Members = append(resp.Members, EligibilityDTO{
			IndividualID:  m.Employee.ID(),
			Name:          m.Employee.Individual.FullName(),
			Department:    m.Employee.Employment.Department,
			Eligibility:   m.Eligibility,
			Participation: benefits.Participation(m.Eligibility, benefits.Resolution{Retirement: m.Retirement}),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetReport returns the workforce report.
// GET /api/employers/{employer}/reports
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	g, err := h.gatherer(r)
	if err != nil {
		h.writeUpstreamError(w, err, "reports")
		return
	}
	report, err := g.Report(r.Context())
	if err != nil {
		h.writeUpstreamError(w, err, "reports")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// =============================================================================
// STATELESS NORMALIZATION
// =============================================================================

// NormalizeEmployee reconciles raw fragments posted by the client.
// POST /api/normalize/employee
func (h *Handler) NormalizeEmployee(w http.ResponseWriter, r *http.Request) {
	var req NormalizeEmployeeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	asOf := canonical.DateOf(h.now())
	if req.AsOf != "" {
		d, err := canonical.ParseDate(req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of date", err)
			return
		}
		asOf = d
	}

	var dropped []error
	fragment := func(kind string, raw json.RawMessage) map[string]any {
		if len(raw) == 0 {
			return nil
		}
		v, err := normalize.Decode(raw)
		if err != nil {
			dropped = append(dropped, &canonical.ShapeError{Kind: kind, Index: 0, Reason: err.Error()})
			return nil
		}
		body, errs := reconcile.First(kind, v)
		dropped = append(dropped, errs...)
		return body
	}
	src := reconcile.Sources{
		Individual: fragment("individual", req.Individual),
		Employment: fragment("employment", req.Employment),
		Directory:  fragment("directory", req.Directory),
	}
	if src.Individual == nil && src.Employment == nil && src.Directory == nil {
		writeError(w, http.StatusBadRequest, "No usable fragment", errors.Join(dropped...))
		return
	}

	emp := reconcile.Employee(req.IndividualID, src)
	elig, err := eligibility.Calculate(emp.Employment, asOf)
	if err != nil {
		h.writeUpstreamError(w, err, "normalize/employee")
		return
	}
	writeJSON(w, http.StatusOK, NormalizeEmployeeResponse{
		Employee:    emp,
		Eligibility: elig,
		Dropped:     errorStrings(dropped),
	})
}

// NormalizePayStatements flattens a raw pay-statement response posted by the client.
// POST /api/normalize/pay-statements
func (h *Handler) NormalizePayStatements(w http.ResponseWriter, r *http.Request) {
	var req NormalizePayStatementsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Response) == 0 {
		writeError(w, http.StatusBadRequest, "response is required", nil)
		return
	}
	v, err := normalize.Decode(req.Response)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid response payload", err)
		return
	}

	statements, dropped := reconcile.PayStatements(v, req.IndividualID)
	writeJSON(w, http.StatusOK, NormalizePayStatementsResponse{
		IndividualID:  req.IndividualID,
		PayStatements: statements,
		Dropped:       errorStrings(dropped),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeUpstreamError maps engine and upstream failures onto HTTP statuses.
func (h *Handler) writeUpstreamError(w http.ResponseWriter, err error, endpoint string) {
	var statusErr *provider.StatusError
	var transportErr *provider.TransportError

	switch {
	case canonical.IsInvariantViolation(err):
		h.logf("/%s invariant violation: %v", endpoint, err)
		writeError(w, http.StatusInternalServerError, "Invariant violation", err)
	case errors.Is(err, errUnknownEmployer):
		writeError(w, http.StatusNotFound, "Unknown employer", err)
	case errors.Is(err, provider.ErrNoToken):
		writeError(w, http.StatusUnauthorized, "No access token available", nil)
	case errors.As(err, &transportErr) && transportErr.Timeout():
		h.logf("/%s timeout: %v", endpoint, err)
		writeError(w, http.StatusGatewayTimeout, "Request timeout. Please try again later.", errors.New("upstream request timed out"))
	case errors.As(err, &transportErr):
		if errors.Is(err, context.Canceled) {
			return
		}
		h.logf("/%s network error: %v", endpoint, err)
		writeError(w, http.StatusServiceUnavailable, "Network connection error. Please try again later.", errors.New("unable to connect to provider"))
	case errors.As(err, &statusErr):
		h.logf("/%s error: %d", endpoint, statusErr.Status)
		switch statusErr.Status {
		case http.StatusNotFound, http.StatusNotImplemented:
			writeError(w, statusErr.Status, "Provider does not implement "+endpoint+" endpoint", nil)
		case http.StatusTooManyRequests:
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please wait a moment and try again.", errors.New("rate limit exceeded"))
		default:
			status := statusErr.Status
			if status < http.StatusBadRequest {
				status = http.StatusBadGateway
			}
			writeError(w, status, "Failed to fetch "+endpoint, statusErr)
		}
	case errors.Is(err, gather.ErrNoData):
		writeError(w, http.StatusNotFound, "No data for "+endpoint, err)
	case canonical.IsDataError(err):
		writeError(w, http.StatusBadGateway, "Unrecognized upstream response", err)
	default:
		h.logf("/%s error: %v", endpoint, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch "+endpoint, err)
	}
}
