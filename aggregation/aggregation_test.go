package aggregation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedstack/tensordb/aggregation"
	"github.com/fedstack/tensordb/pkg/errors"
	"github.com/fedstack/tensordb/tensor"
)

func contribution(collaborator string, values ...float64) aggregation.Contribution {
	return aggregation.Contribution{
		Collaborator: collaborator,
		Value:        tensor.FromSlice(values),
	}
}

func TestWeightedAverage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc     string
		contribs []aggregation.Contribution
		weights  []float64
		want     []float64
	}{
		{
			desc: "equal weights",
			contribs: []aggregation.Contribution{
				contribution("a", 2),
				contribution("b", 4),
			},
			weights: []float64{0.5, 0.5},
			want:    []float64{3},
		},
		{
			desc: "skewed weights",
			contribs: []aggregation.Contribution{
				contribution("a", 0, 10),
				contribution("b", 10, 0),
			},
			weights: []float64{0.9, 0.1},
			want:    []float64{1, 9},
		},
		{
			desc: "unnormalized weights are normalized by their total",
			contribs: []aggregation.Contribution{
				contribution("a", 2),
				contribution("b", 4),
			},
			weights: []float64{3, 3},
			want:    []float64{3},
		},
		{
			desc:     "single contribution",
			contribs: []aggregation.Contribution{contribution("a", 7, 8)},
			weights:  []float64{1},
			want:     []float64{7, 8},
		},
	}

	fn := aggregation.NewWeightedAverage()
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			got, err := fn.Aggregate(tc.contribs, tc.weights, nil, "conv1.weight", 1, nil)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tc.want, got.Data(), 1e-12)
		})
	}
}

func TestAggregateValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc     string
		contribs []aggregation.Contribution
		weights  []float64
		err      error
	}{
		{
			desc: "no contributions",
			err:  errors.ErrNoContributions,
		},
		{
			desc:     "weight count mismatch",
			contribs: []aggregation.Contribution{contribution("a", 1), contribution("b", 2)},
			weights:  []float64{1},
			err:      errors.ErrInvalidWeights,
		},
		{
			desc: "shape mismatch",
			contribs: []aggregation.Contribution{
				contribution("a", 1, 2),
				contribution("b", 1),
			},
			weights: []float64{0.5, 0.5},
			err:     errors.ErrShapeMismatch,
		},
		{
			desc:     "zero total weight",
			contribs: []aggregation.Contribution{contribution("a", 1), contribution("b", 2)},
			weights:  []float64{0, 0},
			err:      errors.ErrInvalidWeights,
		},
	}

	fn := aggregation.NewWeightedAverage()
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			_, err := fn.Aggregate(tc.contribs, tc.weights, nil, "conv1.weight", 1, nil)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestMedian(t *testing.T) {
	t.Parallel()

	cases := []struct {
		desc     string
		contribs []aggregation.Contribution
		want     []float64
	}{
		{
			desc: "odd count takes middle value",
			contribs: []aggregation.Contribution{
				contribution("a", 1, 100),
				contribution("b", 2, -5),
				contribution("c", 3, 0),
			},
			want: []float64{2, 0},
		},
		{
			desc: "even count averages the middle pair",
			contribs: []aggregation.Contribution{
				contribution("a", 1),
				contribution("b", 2),
				contribution("c", 3),
				contribution("d", 10),
			},
			want: []float64{2.5},
		},
		{
			desc: "outlier does not shift the median",
			contribs: []aggregation.Contribution{
				contribution("a", 1),
				contribution("b", 2),
				contribution("c", 1e9),
			},
			want: []float64{2},
		},
	}

	fn := aggregation.NewMedian()
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			weights := make([]float64, len(tc.contribs))
			for i := range weights {
				weights[i] = 1 / float64(len(weights))
			}
			got, err := fn.Aggregate(tc.contribs, weights, nil, "conv1.weight", 1, nil)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tc.want, got.Data(), 1e-12)
		})
	}
}

func TestGeometricMedianIdenticalPoints(t *testing.T) {
	t.Parallel()

	contribs := []aggregation.Contribution{
		contribution("a", 1, 2, 3),
		contribution("b", 1, 2, 3),
		contribution("c", 1, 2, 3),
	}
	weights := []float64{0.2, 0.3, 0.5}

	fn := aggregation.NewGeometricMedian(aggregation.GeometricMedianConfig{})
	got, err := fn.Aggregate(contribs, weights, nil, "conv1.weight", 1, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2, 3}, got.Data(), 1e-9)
}

func TestGeometricMedianResistsOutlier(t *testing.T) {
	t.Parallel()

	// Three honest collaborators around 1.0 and one far outlier. The
	// geometric median should land near the cluster, unlike the mean.
	contribs := []aggregation.Contribution{
		contribution("a", 0.9),
		contribution("b", 1.0),
		contribution("c", 1.1),
		contribution("d", 1000),
	}
	weights := []float64{0.25, 0.25, 0.25, 0.25}

	fn := aggregation.NewGeometricMedian(aggregation.GeometricMedianConfig{})
	got, err := fn.Aggregate(contribs, weights, nil, "conv1.weight", 1, nil)
	require.NoError(t, err)
	require.Len(t, got.Data(), 1)
	assert.Less(t, got.Data()[0], 2.0)
	assert.Greater(t, got.Data()[0], 0.5)
}

func TestGeometricMedianIterationCap(t *testing.T) {
	t.Parallel()

	contribs := []aggregation.Contribution{
		contribution("a", 0),
		contribution("b", 1),
		contribution("c", 10),
	}
	weights := []float64{1, 1, 1}

	// A single iteration must still produce a finite best-effort estimate.
	fn := aggregation.NewGeometricMedian(aggregation.GeometricMedianConfig{MaxIterations: 1})
	got, err := fn.Aggregate(contribs, weights, nil, "conv1.weight", 1, nil)
	require.NoError(t, err)
	require.Len(t, got.Data(), 1)
	assert.False(t, got.Data()[0] != got.Data()[0], "estimate must not be NaN")
}
