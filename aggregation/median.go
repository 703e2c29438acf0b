package aggregation

import (
	"sort"

	"github.com/fedstack/tensordb/tensor"
)

type median struct{}

// NewMedian returns the elementwise median policy. Collaborator weights are
// ignored; the median is robust to outlier contributions by construction.
func NewMedian() Function {
	return &median{}
}

func (a *median) Aggregate(contribs []Contribution, weights []float64, _ History, _ string, _ uint64, _ []string) (tensor.Tensor, error) {
	if err := validate(contribs, weights); err != nil {
		return tensor.Tensor{}, err
	}

	n := contribs[0].Value.NumElements()
	out := make([]float64, n)
	column := make([]float64, len(contribs))

	for j := 0; j < n; j++ {
		for i, c := range contribs {
			column[i] = c.Value.Data()[j]
		}
		sort.Float64s(column)

		mid := len(column) / 2
		if len(column)%2 == 1 {
			out[j] = column[mid]
		} else {
			out[j] = (column[mid-1] + column[mid]) / 2
		}
	}

	return tensor.New(contribs[0].Value.Shape(), out)
}
