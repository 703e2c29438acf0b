package coordinator_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedstack/tensordb/aggregation"
	"github.com/fedstack/tensordb/coordinator"
	"github.com/fedstack/tensordb/pkg/errors"
	"github.com/fedstack/tensordb/store"
	"github.com/fedstack/tensordb/tensor"
)

func newService(t *testing.T) (coordinator.Service, *store.Store) {
	t.Helper()
	tensors := store.New()
	svc := coordinator.NewService(tensors, aggregation.NewRegistry(), slog.Default())

	return svc, tensors
}

func storeContribution(t *testing.T, svc coordinator.Service, key tensor.Key, collaborator string, values ...float64) {
	t.Helper()
	err := svc.StoreTensors(context.Background(), []tensor.Record{
		{Key: key.WithTag(collaborator), Value: tensor.FromSlice(values)},
	})
	require.NoError(t, err)
}

func TestStoreTensorsRejectsEmptyBatch(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	err := svc.StoreTensors(context.Background(), nil)
	assert.ErrorIs(t, err, errors.ErrInvalidData)
}

func TestGetTensor(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	key := tensor.NewKey("conv1.weight", "col-1", 2, false, "trained")
	require.NoError(t, svc.StoreTensors(context.Background(), []tensor.Record{
		{Key: key, Value: tensor.FromSlice([]float64{1, 2})},
	}))

	got, err := svc.GetTensor(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got.Data())

	_, err = svc.GetTensor(context.Background(), tensor.NewKey("missing", "col-1", 2, false))
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestGetAggregatedTwoCollaborators(t *testing.T) {
	t.Parallel()

	svc, tensors := newService(t)
	key := tensor.NewKey("conv1.weight", "agg", 1, false)
	storeContribution(t, svc, key, "a", 2)
	storeContribution(t, svc, key, "b", 4)

	weights := map[string]float64{"a": 0.5, "b": 0.5}
	result, ready, err := svc.GetAggregated(context.Background(), key, weights, "")
	require.NoError(t, err)
	require.True(t, ready)
	assert.InDeltaSlice(t, []float64{3}, result.Data(), 1e-12)

	// The aggregate is cached under the bare key.
	cached, ok := tensors.Lookup(key)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{3}, cached.Data(), 1e-12)
}

func TestGetAggregatedWeightSumValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	key := tensor.NewKey("conv1.weight", "agg", 1, false)
	storeContribution(t, svc, key, "a", 2)
	storeContribution(t, svc, key, "b", 4)

	_, _, err := svc.GetAggregated(context.Background(), key,
		map[string]float64{"a": 0.3, "b": 0.3}, "")
	assert.ErrorIs(t, err, errors.ErrInvalidWeights)
}

func TestGetAggregatedUnknownFunction(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	key := tensor.NewKey("conv1.weight", "agg", 1, false)
	storeContribution(t, svc, key, "a", 2)

	_, _, err := svc.GetAggregated(context.Background(), key,
		map[string]float64{"a": 1.0}, "nonexistent")
	assert.ErrorIs(t, err, errors.ErrUnknownFunction)
}

// countingFunction records how many times it is invoked so the caching
// fast path can be observed.
type countingFunction struct {
	calls atomic.Int64
}

func (f *countingFunction) Aggregate(contribs []aggregation.Contribution, weights []float64, history aggregation.History, name string, round uint64, tags []string) (tensor.Tensor, error) {
	f.calls.Add(1)

	return aggregation.NewWeightedAverage().Aggregate(contribs, weights, history, name, round, tags)
}

func TestGetAggregatedCachesResult(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	key := tensor.NewKey("conv1.weight", "agg", 1, false)
	storeContribution(t, svc, key, "a", 2)
	storeContribution(t, svc, key, "b", 4)

	fn := &countingFunction{}
	weights := map[string]float64{"a": 0.5, "b": 0.5}

	first, ready, err := svc.GetAggregatedWith(context.Background(), key, weights, fn)
	require.NoError(t, err)
	require.True(t, ready)

	second, ready, err := svc.GetAggregatedWith(context.Background(), key, weights, fn)
	require.NoError(t, err)
	require.True(t, ready)

	assert.True(t, first.Equal(second))
	assert.Equal(t, int64(1), fn.calls.Load(), "aggregation runs once; later calls hit the cache")
}

func TestGetAggregatedIncompleteRound(t *testing.T) {
	t.Parallel()

	svc, tensors := newService(t)
	key := tensor.NewKey("conv1.weight", "agg", 1, false)
	storeContribution(t, svc, key, "a", 2)

	before := tensors.Len()
	result, ready, err := svc.GetAggregated(context.Background(), key,
		map[string]float64{"a": 0.5, "b": 0.5}, "")
	require.NoError(t, err)
	assert.False(t, ready)
	assert.True(t, result.IsZero())
	assert.Equal(t, before, tensors.Len(), "an incomplete round writes nothing")

	// Arrival of the missing contribution completes the round.
	storeContribution(t, svc, key, "b", 4)
	result, ready, err = svc.GetAggregated(context.Background(), key,
		map[string]float64{"a": 0.5, "b": 0.5}, "")
	require.NoError(t, err)
	require.True(t, ready)
	assert.InDeltaSlice(t, []float64{3}, result.Data(), 1e-12)
}

func TestGetAggregatedWithNilFunction(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	key := tensor.NewKey("conv1.weight", "agg", 1, false)

	_, _, err := svc.GetAggregatedWith(context.Background(), key,
		map[string]float64{"a": 1.0}, nil)
	assert.ErrorIs(t, err, errors.ErrUnknownFunction)
}

func TestGetAggregatedContributionTagging(t *testing.T) {
	t.Parallel()

	// Contributions stored under tags other than the collaborator ID must
	// not satisfy the round.
	svc, _ := newService(t)
	key := tensor.NewKey("conv1.weight", "agg", 1, false)
	require.NoError(t, svc.StoreTensors(context.Background(), []tensor.Record{
		{Key: key.WithTag("trained"), Value: tensor.FromSlice([]float64{2})},
	}))

	_, ready, err := svc.GetAggregated(context.Background(), key,
		map[string]float64{"a": 1.0}, "")
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestEvictTensors(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := context.Background()
	for round := uint64(1); round <= 5; round++ {
		require.NoError(t, svc.StoreTensors(ctx, []tensor.Record{
			{Key: tensor.NewKey("conv1.weight", "col-1", round, false), Value: tensor.Scalar(1)},
		}))
	}

	removed, err := svc.EvictTensors(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	keys, err := svc.ListKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	for _, k := range keys {
		assert.GreaterOrEqual(t, k.Round, uint64(4))
	}
}

func TestEvictTensorsEmptyStore(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	_, err := svc.EvictTensors(context.Background(), 2)
	assert.ErrorIs(t, err, errors.ErrEmptyStore)
}
