// Package coordinator orchestrates round completion checks and aggregation
// on top of the tensor store: it derives per-collaborator keys, decides
// whether a round's contributions are complete, invokes the configured
// aggregation function and caches the result.
package coordinator

import (
	"context"

	"github.com/fedstack/tensordb/aggregation"
	"github.com/fedstack/tensordb/tensor"
)

// WeightTolerance is how far collaborator weights may deviate from summing
// to 1.0 before the call is rejected.
const WeightTolerance = 0.01

type Service interface {
	// StoreTensors inserts collaborator updates into the store.
	StoreTensors(ctx context.Context, records []tensor.Record) error

	// GetTensor looks up the tensor cached under the exact key. A miss is
	// reported as ErrNotFound.
	GetTensor(ctx context.Context, key tensor.Key) (tensor.Tensor, error)

	// GetAggregated resolves the named aggregation function (empty name
	// selects the default) and returns the aggregate for the key. ok is
	// false with a nil error while contributions are still missing; the
	// caller retries once more have arrived.
	GetAggregated(ctx context.Context, key tensor.Key, weights map[string]float64, function string) (result tensor.Tensor, ok bool, err error)

	// GetAggregatedWith behaves like GetAggregated with a caller-supplied
	// aggregation function instead of a registry name.
	GetAggregatedWith(ctx context.Context, key tensor.Key, weights map[string]float64, fn aggregation.Function) (result tensor.Tensor, ok bool, err error)

	// EvictTensors drops records outside the sliding round window and
	// returns how many were removed. A negative window is a no-op;
	// evicting an empty store reports ErrEmptyStore.
	EvictTensors(ctx context.Context, olderThan int) (int, error)

	// ListKeys returns the keys of all stored records, payloads excluded,
	// for operational inspection.
	ListKeys(ctx context.Context) ([]tensor.Key, error)
}
