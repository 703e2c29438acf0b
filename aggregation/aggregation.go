// Package aggregation defines the pluggable policies that combine
// per-collaborator tensor updates into a single result, plus the registry
// they are resolved from by name.
package aggregation

import (
	"fmt"
	"iter"

	"github.com/fedstack/tensordb/pkg/errors"
	"github.com/fedstack/tensordb/tensor"
)

// History is a lazy, restartable traversal of the store's records that an
// aggregation function may consult for stateful or trend-based strategies.
// The built-in functions ignore it.
type History = iter.Seq[tensor.Record]

// Contribution is one collaborator's update for a tensor in a round.
type Contribution struct {
	Collaborator string
	Value        tensor.Tensor
}

// Function combines per-collaborator contributions into one tensor.
//
// Contributions and weights are parallel slices: weights[i] belongs to
// contribs[i], in the iteration order fixed by the coordinator. name, round
// and tags identify the tensor being aggregated for strategies that key
// their internal state on it.
type Function interface {
	Aggregate(contribs []Contribution, weights []float64, history History, name string, round uint64, tags []string) (tensor.Tensor, error)
}

// validate applies the checks shared by the built-in functions: at least
// one contribution, weights parallel to contributions and identical shapes.
func validate(contribs []Contribution, weights []float64) error {
	if len(contribs) == 0 {
		return errors.ErrNoContributions
	}
	if len(weights) != len(contribs) {
		return fmt.Errorf("%d weights for %d contributions: %w",
			len(weights), len(contribs), errors.ErrInvalidWeights)
	}
	shape := contribs[0].Value.Shape()
	for _, c := range contribs[1:] {
		if !shape.Equal(c.Value.Shape()) {
			return fmt.Errorf("collaborator %q sent shape %v, want %v: %w",
				c.Collaborator, c.Value.Shape(), shape, errors.ErrShapeMismatch)
		}
	}
	return nil
}
