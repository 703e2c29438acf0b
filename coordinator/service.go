package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/fedstack/tensordb/aggregation"
	"github.com/fedstack/tensordb/pkg/errors"
	"github.com/fedstack/tensordb/store"
	"github.com/fedstack/tensordb/tensor"
)

type service struct {
	tensors  *store.Store
	registry *aggregation.Registry
	logger   *slog.Logger
}

// NewService builds the coordinator on a store and an aggregation registry.
func NewService(tensors *store.Store, registry *aggregation.Registry, logger *slog.Logger) Service {
	return &service{
		tensors:  tensors,
		registry: registry,
		logger:   logger,
	}
}

func (svc *service) StoreTensors(_ context.Context, records []tensor.Record) error {
	if len(records) == 0 {
		return errors.ErrInvalidData
	}
	svc.tensors.Insert(records)

	return nil
}

func (svc *service) GetTensor(_ context.Context, key tensor.Key) (tensor.Tensor, error) {
	t, ok := svc.tensors.Lookup(key)
	if !ok {
		return tensor.Tensor{}, errors.ErrNotFound
	}

	return t, nil
}

func (svc *service) GetAggregated(ctx context.Context, key tensor.Key, weights map[string]float64, function string) (tensor.Tensor, bool, error) {
	fn, err := svc.registry.Get(function)
	if err != nil {
		return tensor.Tensor{}, false, err
	}

	return svc.GetAggregatedWith(ctx, key, weights, fn)
}

func (svc *service) GetAggregatedWith(ctx context.Context, key tensor.Key, weights map[string]float64, fn aggregation.Function) (tensor.Tensor, bool, error) {
	if fn == nil {
		return tensor.Tensor{}, false, errors.ErrUnknownFunction
	}
	if err := validateWeights(weights); err != nil {
		return tensor.Tensor{}, false, err
	}

	// Fast path: a previously computed aggregate is cached under the bare
	// key and is terminal for it. No recomputation, no weight re-check
	// against the current contributors.
	if cached, ok := svc.tensors.Lookup(key); ok {
		return cached, true, nil
	}

	// Go maps are unordered; visiting collaborators in sorted-ID order
	// fixes the pairing between contributions and weights.
	collaborators := make([]string, 0, len(weights))
	for c := range weights {
		collaborators = append(collaborators, c)
	}
	sort.Strings(collaborators)

	contribs := make([]aggregation.Contribution, 0, len(collaborators))
	ordered := make([]float64, 0, len(collaborators))
	for _, c := range collaborators {
		value, ok := svc.tensors.Lookup(key.WithTag(c))
		if !ok {
			svc.logger.DebugContext(ctx, "Round incomplete, missing contribution",
				"collaborator", c, "key", key.String())

			return tensor.Tensor{}, false, nil
		}
		contribs = append(contribs, aggregation.Contribution{Collaborator: c, Value: value})
		ordered = append(ordered, weights[c])
	}

	// All contributions present. The aggregation function may be slow
	// (iterative policies); no store lock is held across this call.
	history := svc.tensors.Iterate(store.OrderByRound, false)
	result, err := fn.Aggregate(contribs, ordered, history, key.Name, key.Round, key.Tags)
	if err != nil {
		return tensor.Tensor{}, false, fmt.Errorf("aggregating %q round %d: %w", key.Name, key.Round, err)
	}

	svc.tensors.Insert([]tensor.Record{{Key: key, Value: result}})

	return result, true, nil
}

func (svc *service) EvictTensors(_ context.Context, olderThan int) (int, error) {
	return svc.tensors.Evict(olderThan)
}

func (svc *service) ListKeys(_ context.Context) ([]tensor.Key, error) {
	return svc.tensors.Keys(), nil
}

// validateWeights rejects non-empty weight sets that do not sum to 1.0
// within WeightTolerance. An empty set is allowed; it addresses a cached
// aggregate only.
func validateWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return nil
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if math.Abs(1.0-sum) >= WeightTolerance {
		return fmt.Errorf("collaborator weights sum to %v, want 1.0 within %v: %w",
			sum, WeightTolerance, errors.ErrInvalidWeights)
	}

	return nil
}
