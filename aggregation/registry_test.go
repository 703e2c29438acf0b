package aggregation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedstack/tensordb/aggregation"
	"github.com/fedstack/tensordb/pkg/errors"
	"github.com/fedstack/tensordb/tensor"
)

// firstContribution returns the first contribution unchanged, a trivially
// identifiable custom policy.
type firstContribution struct{}

func (f *firstContribution) Aggregate(contribs []aggregation.Contribution, _ []float64, _ aggregation.History, _ string, _ uint64, _ []string) (tensor.Tensor, error) {
	if len(contribs) == 0 {
		return tensor.Tensor{}, errors.ErrNoContributions
	}

	return contribs[0].Value.Clone(), nil
}

func TestRegistryBuiltins(t *testing.T) {
	t.Parallel()

	r := aggregation.NewRegistry()
	for _, name := range []string{
		aggregation.WeightedAverageName,
		aggregation.MedianName,
		aggregation.GeometricMedianName,
	} {
		fn, err := r.Get(name)
		require.NoError(t, err, name)
		assert.NotNil(t, fn, name)
	}

	assert.Equal(t, []string{
		aggregation.GeometricMedianName,
		aggregation.MedianName,
		aggregation.WeightedAverageName,
	}, r.Names())
}

func TestRegistryEmptyNameResolvesDefault(t *testing.T) {
	t.Parallel()

	r := aggregation.NewRegistry()
	fn, err := r.Get("")
	require.NoError(t, err)

	// The default is the weighted average; verify by its numerics rather
	// than identity.
	got, err := fn.Aggregate([]aggregation.Contribution{
		contribution("a", 2),
		contribution("b", 4),
	}, []float64{0.5, 0.5}, nil, "conv1.weight", 1, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3}, got.Data(), 1e-12)
}

func TestRegistryUnknownName(t *testing.T) {
	t.Parallel()

	r := aggregation.NewRegistry()
	_, err := r.Get("nonexistent")
	assert.ErrorIs(t, err, errors.ErrUnknownFunction)
}

func TestRegistryCustomFunction(t *testing.T) {
	t.Parallel()

	r := aggregation.NewRegistry(
		aggregation.WithFunction("first", &firstContribution{}),
	)

	fn, err := r.Get("first")
	require.NoError(t, err)

	got, err := fn.Aggregate([]aggregation.Contribution{
		contribution("a", 7),
		contribution("b", 9),
	}, []float64{0.5, 0.5}, nil, "conv1.weight", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, got.Data())

	assert.Contains(t, r.Names(), "first")
}

func TestRegistryCustomOverridesBuiltin(t *testing.T) {
	t.Parallel()

	r := aggregation.NewRegistry(
		aggregation.WithFunction(aggregation.WeightedAverageName, &firstContribution{}),
	)

	fn, err := r.Get(aggregation.WeightedAverageName)
	require.NoError(t, err)

	// The override answers instead of the built-in: {2, 4} averaged with
	// equal weights would be 3, the override returns the first value.
	got, err := fn.Aggregate([]aggregation.Contribution{
		contribution("a", 2),
		contribution("b", 4),
	}, []float64{0.5, 0.5}, nil, "conv1.weight", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, got.Data())

	// Overriding replaces, never adds.
	assert.Len(t, r.Names(), 3)
}

func TestRegistryGeometricMedianConfig(t *testing.T) {
	t.Parallel()

	r := aggregation.NewRegistry(
		aggregation.WithGeometricMedianConfig(aggregation.GeometricMedianConfig{
			Tolerance:     1e-3,
			MaxIterations: 5,
		}),
	)

	fn, err := r.Get(aggregation.GeometricMedianName)
	require.NoError(t, err)

	got, err := fn.Aggregate([]aggregation.Contribution{
		contribution("a", 1, 2),
		contribution("b", 1, 2),
	}, []float64{0.5, 0.5}, nil, "conv1.weight", 1, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2}, got.Data(), 1e-6)
}
