package aggregation

import (
	"fmt"

	"github.com/fedstack/tensordb/pkg/errors"
	"github.com/fedstack/tensordb/tensor"
)

type weightedAverage struct{}

// NewWeightedAverage returns the default aggregation policy: the elementwise
// average of the contributions weighted per collaborator and normalized by
// the total weight.
func NewWeightedAverage() Function {
	return &weightedAverage{}
}

func (a *weightedAverage) Aggregate(contribs []Contribution, weights []float64, _ History, _ string, _ uint64, _ []string) (tensor.Tensor, error) {
	if err := validate(contribs, weights); err != nil {
		return tensor.Tensor{}, err
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return tensor.Tensor{}, fmt.Errorf("weights sum to zero: %w", errors.ErrInvalidWeights)
	}

	out := make([]float64, contribs[0].Value.NumElements())
	for i, c := range contribs {
		w := weights[i]
		for j, v := range c.Value.Data() {
			out[j] += w * v
		}
	}
	for j := range out {
		out[j] /= total
	}

	return tensor.New(contribs[0].Value.Shape(), out)
}
