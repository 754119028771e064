package provider_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workforce-engine/provider"
)

// recorded is one request seen by the fake upstream.
type recorded struct {
	Method  string
	Path    string
	Query   string
	Auth    string
	Version string
	Body    []byte
}

func upstream(t *testing.T, status int, body string) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var seen []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recorded{
			Method:  r.Method,
			Path:    r.URL.Path,
			Query:   r.URL.RawQuery,
			Auth:    r.Header.Get("Authorization"),
			Version: r.Header.Get(provider.DefaultVersionHeader),
			Body:    b,
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), seen...)
	}
}

func TestHTTP_DirectorySendsCredentials(t *testing.T) {
	srv, seen := upstream(t, http.StatusOK, `{"individuals": []}`)
	client := provider.NewHTTP(srv.URL+"/", provider.StaticToken("tok-123"))

	body, err := client.Directory(context.Background())

	require.NoError(t, err)
	assert.JSONEq(t, `{"individuals": []}`, string(body))
	reqs := seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/employer/directory", reqs[0].Path)
	assert.Equal(t, "Bearer tok-123", reqs[0].Auth)
	assert.Equal(t, provider.DefaultAPIVersion, reqs[0].Version)
}

func TestHTTP_IndividualPostsBatchRequest(t *testing.T) {
	srv, seen := upstream(t, http.StatusOK, `{"responses": []}`)
	client := provider.NewHTTP(srv.URL, provider.StaticToken("tok"))

	_, err := client.Individual(context.Background(), "emp-1")
	require.NoError(t, err)
	_, err = client.Employment(context.Background(), "emp-1")
	require.NoError(t, err)

	reqs := seen()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/employer/individual", reqs[0].Path)
	assert.Equal(t, "/employer/employment", reqs[1].Path)

	var payload struct {
		Requests []struct {
			IndividualID string `json:"individual_id"`
		} `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(reqs[0].Body, &payload))
	require.Len(t, payload.Requests, 1)
	assert.Equal(t, "emp-1", payload.Requests[0].IndividualID)
}

func TestHTTP_DeductionsPath(t *testing.T) {
	srv, seen := upstream(t, http.StatusOK, `[]`)
	client := provider.NewHTTP(srv.URL, provider.StaticToken("tok"))

	_, err := client.Deductions(context.Background(), "b-401k", "emp 1")

	require.NoError(t, err)
	reqs := seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/employer/benefits/b-401k/individuals", reqs[0].Path)
	assert.Equal(t, "individual_ids=emp+1", reqs[0].Query)
}

func TestHTTP_StatusError(t *testing.T) {
	srv, _ := upstream(t, http.StatusNotImplemented, `{"message": "not supported"}`)
	client := provider.NewHTTP(srv.URL, provider.StaticToken("tok"))

	_, err := client.Benefits(context.Background())

	var statusErr *provider.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotImplemented, statusErr.Status)
	assert.Equal(t, "/employer/benefits", statusErr.Endpoint)
	assert.JSONEq(t, `{"message": "not supported"}`, string(statusErr.Body))
}

func TestHTTP_NoToken(t *testing.T) {
	srv, seen := upstream(t, http.StatusOK, `{}`)
	client := provider.NewHTTP(srv.URL, provider.StaticToken(""))

	_, err := client.PayStatements(context.Background(), "emp-1")

	assert.ErrorIs(t, err, provider.ErrNoToken)
	assert.Empty(t, seen(), "no request without a token")

	_, err = client.WithTokens(provider.StaticToken("session")).PayStatements(context.Background(), "emp-1")
	assert.NoError(t, err)
}

func TestHTTP_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	client := provider.NewHTTP(addr, provider.StaticToken("tok"))
	client.Timeout = time.Second

	_, err := client.Directory(context.Background())

	var transportErr *provider.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "/employer/directory", transportErr.Endpoint)
}

func TestHTTP_CancelledContext(t *testing.T) {
	srv, seen := upstream(t, http.StatusOK, `{}`)
	client := provider.NewHTTP(srv.URL, provider.StaticToken("tok"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Directory(ctx)

	var transportErr *provider.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, seen())
}
