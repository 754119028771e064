// Package memory provides an in-memory upstream provider (for testing/dev).
package memory

import (
	"context"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/warp/workforce-engine/gather"
)

// =============================================================================
// MEMORY PROVIDER - Recorded upstream responses held in maps
// =============================================================================

// Memory serves recorded response bodies through gather.Provider. Directory
// and benefits use an empty key; deductions are keyed by benefit id; the
// per-person endpoints by individual id.
type Memory struct {
	mu       sync.RWMutex
	bodies   map[key][]byte
	failures map[key]error
	calls    map[gather.Endpoint]int
}

type key struct {
	Endpoint gather.Endpoint
	Key      string
}

var _ gather.Provider = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		bodies:   make(map[key][]byte),
		failures: make(map[key]error),
		calls:    make(map[gather.Endpoint]int),
	}
}

// Put records a raw response body.
func (m *Memory) Put(endpoint gather.Endpoint, k string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies[key{endpoint, k}] = body
}

// PutJSON records v encoded as JSON.
func (m *Memory) PutJSON(endpoint gather.Endpoint, k string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", endpoint, k, err)
	}
	m.Put(endpoint, k, body)
	return nil
}

// Fail makes every lookup of endpoint/k return err.
func (m *Memory) Fail(endpoint gather.Endpoint, k string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[key{endpoint, k}] = err
}

// Calls reports how many lookups endpoint has served, failures included.
func (m *Memory) Calls(endpoint gather.Endpoint) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[endpoint]
}

func (m *Memory) get(ctx context.Context, endpoint gather.Endpoint, k string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[endpoint]++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.failures[key{endpoint, k}]; ok {
		return nil, err
	}
	body, ok := m.bodies[key{endpoint, k}]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", endpoint, k, gather.ErrNoData)
	}
	return body, nil
}

func (m *Memory) Directory(ctx context.Context) ([]byte, error) {
	return m.get(ctx, gather.EndpointDirectory, "")
}

func (m *Memory) Individual(ctx context.Context, individualID string) ([]byte, error) {
	return m.get(ctx, gather.EndpointIndividual, individualID)
}

func (m *Memory) Employment(ctx context.Context, individualID string) ([]byte, error) {
	return m.get(ctx, gather.EndpointEmployment, individualID)
}

func (m *Memory) Benefits(ctx context.Context) ([]byte, error) {
	return m.get(ctx, gather.EndpointBenefits, "")
}

// Deductions serves the whole per-benefit listing; filtering by individual is
// left to the reconciler, as with a real upstream.
func (m *Memory) Deductions(ctx context.Context, benefitID, _ string) ([]byte, error) {
	return m.get(ctx, gather.EndpointDeductions, benefitID)
}

func (m *Memory) PayStatements(ctx context.Context, individualID string) ([]byte, error) {
	return m.get(ctx, gather.EndpointPayStatements, individualID)
}
