package aggregation

import (
	"math"

	"github.com/fedstack/tensordb/tensor"
)

// Defaults for the Weiszfeld iteration. Both are policy knobs, not
// correctness requirements: the function always returns its best estimate.
const (
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 100

	// distanceFloor keeps the iteration defined when the estimate lands on
	// a contribution point.
	distanceFloor = 1e-8
)

// GeometricMedianConfig controls the convergence of the Weiszfeld iteration.
type GeometricMedianConfig struct {
	// Tolerance is the relative change of the objective below which the
	// iteration stops. Zero means DefaultTolerance.
	Tolerance float64
	// MaxIterations caps the iteration count. Zero means
	// DefaultMaxIterations.
	MaxIterations int
}

type geometricMedian struct {
	tolerance float64
	maxIter   int
}

// NewGeometricMedian returns the geometric-median policy: a Weiszfeld-style
// minimizer of the weighted sum of Euclidean distances to the contributions.
// It converges to the configured tolerance or stops at the iteration cap,
// returning the best estimate found either way.
func NewGeometricMedian(cfg GeometricMedianConfig) Function {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &geometricMedian{tolerance: cfg.Tolerance, maxIter: cfg.MaxIterations}
}

func (a *geometricMedian) Aggregate(contribs []Contribution, weights []float64, history History, name string, round uint64, tags []string) (tensor.Tensor, error) {
	if err := validate(contribs, weights); err != nil {
		return tensor.Tensor{}, err
	}

	// The weighted average is the standard starting estimate.
	estimate, err := NewWeightedAverage().Aggregate(contribs, weights, history, name, round, tags)
	if err != nil {
		return tensor.Tensor{}, err
	}

	median := estimate.Data()
	objective := a.objective(median, contribs, weights)
	reweighted := make([]float64, len(weights))

	for iter := 0; iter < a.maxIter; iter++ {
		for i, c := range contribs {
			d := l2Distance(median, c.Value.Data())
			reweighted[i] = weights[i] / math.Max(distanceFloor, d)
		}

		next, err := NewWeightedAverage().Aggregate(contribs, reweighted, history, name, round, tags)
		if err != nil {
			return tensor.Tensor{}, err
		}
		median = next.Data()

		prev := objective
		objective = a.objective(median, contribs, weights)
		if math.Abs(prev-objective) <= a.tolerance*objective {
			break
		}
	}

	return tensor.New(contribs[0].Value.Shape(), median)
}

// objective is the weighted sum of distances the iteration minimizes.
func (a *geometricMedian) objective(median []float64, contribs []Contribution, weights []float64) float64 {
	var sum float64
	for i, c := range contribs {
		sum += weights[i] * l2Distance(median, c.Value.Data())
	}
	return sum
}

func l2Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
