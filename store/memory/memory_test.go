package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workforce-engine/gather"
	"github.com/warp/workforce-engine/store/memory"
)

func TestMemory_ServesRecordedBodies(t *testing.T) {
	ctx := context.Background()
	m := memory.NewMemory()
	require.NoError(t, m.PutJSON(gather.EndpointDeductions, "b-1", []map[string]any{{"individual_id": "p-1"}}))
	m.Put(gather.EndpointDirectory, "", []byte(`{"individuals": []}`))

	body, err := m.Deductions(ctx, "b-1", "ignored")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"individual_id": "p-1"}]`, string(body))

	body, err = m.Directory(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"individuals": []}`, string(body))

	assert.Equal(t, 1, m.Calls(gather.EndpointDeductions))
	assert.Equal(t, 1, m.Calls(gather.EndpointDirectory))
	assert.Zero(t, m.Calls(gather.EndpointBenefits))
}

func TestMemory_MissingIsNoData(t *testing.T) {
	m := memory.NewMemory()

	_, err := m.Individual(context.Background(), "p-1")

	assert.ErrorIs(t, err, gather.ErrNoData)
	assert.Equal(t, 1, m.Calls(gather.EndpointIndividual), "misses are counted")
}

func TestMemory_InjectedFailure(t *testing.T) {
	boom := errors.New("boom")
	m := memory.NewMemory()
	m.Put(gather.EndpointBenefits, "", []byte(`[]`))
	m.Fail(gather.EndpointBenefits, "", boom)

	_, err := m.Benefits(context.Background())

	assert.ErrorIs(t, err, boom)
}

func TestMemory_CancelledContext(t *testing.T) {
	m := memory.NewMemory()
	m.Put(gather.EndpointPayStatements, "p-1", []byte(`[]`))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.PayStatements(ctx, "p-1")

	assert.ErrorIs(t, err, context.Canceled)
}
