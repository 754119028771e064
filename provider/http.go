/*
Package provider implements the upstream HR-data transport over HTTP.

The client speaks the employer API of a unified HR-data provider:

	GET  /employer/directory
	POST /employer/individual       {"requests": [{"individual_id": ...}]}
	POST /employer/employment       {"requests": [{"individual_id": ...}]}
	GET  /employer/benefits
	GET  /employer/benefits/{id}/individuals?individual_ids=...
	POST /employer/pay-statement    {"requests": [{"individual_id": ...}]}

Response bodies are returned raw; shape handling belongs to the reconciler.
The access token comes from an injected TokenSource per request, so one
client value can serve many sessions.
*/
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/warp/workforce-engine/gather"
)

const (
	DefaultTimeout       = 15 * time.Second
	DefaultAPIVersion    = "2020-09-17"
	DefaultVersionHeader = "API-Version"
)

// ErrNoToken is returned when no access token is available for a request.
var ErrNoToken = errors.New("no access token available")

// TokenSource supplies the bearer token for one request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", ErrNoToken
	}
	return string(t), nil
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Endpoint string
	Status   int
	Body     []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s: status %d", e.Endpoint, e.Status)
}

// TransportError is a failure to reach the upstream at all.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the request ran out of time.
func (e *TransportError) Timeout() bool {
	return errors.Is(e.Err, fasthttp.ErrTimeout) || errors.Is(e.Err, context.DeadlineExceeded)
}

// HTTP is a gather.Provider backed by fasthttp.
type HTTP struct {
	BaseURL       string
	APIVersion    string
	VersionHeader string
	Tokens        TokenSource
	Client        *fasthttp.Client
	Timeout       time.Duration
}

var _ gather.Provider = (*HTTP)(nil)

func NewHTTP(baseURL string, tokens TokenSource) *HTTP {
	return &HTTP{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		APIVersion:    DefaultAPIVersion,
		VersionHeader: DefaultVersionHeader,
		Tokens:        tokens,
		Client:        &fasthttp.Client{Name: "workforce-engine"},
		Timeout:       DefaultTimeout,
	}
}

// WithTokens returns a copy of h that authenticates with tokens.
func (h *HTTP) WithTokens(tokens TokenSource) *HTTP {
	c := *h
	c.Tokens = tokens
	return &c
}

type individualRequest struct {
	IndividualID string `json:"individual_id"`
}

type batchRequest struct {
	Requests []individualRequest `json:"requests"`
}

func (h *HTTP) Directory(ctx context.Context) ([]byte, error) {
	return h.do(ctx, fasthttp.MethodGet, "/employer/directory", nil)
}

func (h *HTTP) Individual(ctx context.Context, individualID string) ([]byte, error) {
	return h.do(ctx, fasthttp.MethodPost, "/employer/individual", batch(individualID))
}

func (h *HTTP) Employment(ctx context.Context, individualID string) ([]byte, error) {
	return h.do(ctx, fasthttp.MethodPost, "/employer/employment", batch(individualID))
}

func (h *HTTP) Benefits(ctx context.Context) ([]byte, error) {
	return h.do(ctx, fasthttp.MethodGet, "/employer/benefits", nil)
}

func (h *HTTP) Deductions(ctx context.Context, benefitID, individualID string) ([]byte, error) {
	path := "/employer/benefits/" + url.PathEscape(benefitID) + "/individuals"
	if individualID != "" {
		path += "?individual_ids=" + url.QueryEscape(individualID)
	}
	return h.do(ctx, fasthttp.MethodGet, path, nil)
}

func (h *HTTP) PayStatements(ctx context.Context, individualID string) ([]byte, error) {
	return h.do(ctx, fasthttp.MethodPost, "/employer/pay-statement", batch(individualID))
}

func batch(individualID string) *batchRequest {
	return &batchRequest{Requests: []individualRequest{{IndividualID: individualID}}}
}

func (h *HTTP) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Endpoint: path, Err: err}
	}
	if h.Tokens == nil {
		return nil, ErrNoToken
	}
	token, err := h.Tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(h.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if h.APIVersion != "" {
		header := h.VersionHeader
		if header == "" {
			header = DefaultVersionHeader
		}
		req.Header.Set(header, h.APIVersion)
	}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", path, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	client := h.Client
	if client == nil {
		client = &fasthttp.Client{}
	}
	if deadline, ok := ctx.Deadline(); ok {
		err = client.DoDeadline(req, resp, deadline)
	} else {
		timeout := h.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		err = client.DoTimeout(req, resp, timeout)
	}
	if err != nil {
		return nil, &TransportError{Endpoint: path, Err: err}
	}

	// resp is released on return, so the body must be copied out.
	body := append([]byte(nil), resp.Body()...)
	if status := resp.StatusCode(); status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, &StatusError{Endpoint: path, Status: status, Body: body}
	}
	return body, nil
}
