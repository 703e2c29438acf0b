package aggregation

import (
	"fmt"
	"sort"

	"github.com/fedstack/tensordb/pkg/errors"
)

// Built-in function names resolvable through the registry.
const (
	WeightedAverageName = "weighted_average"
	MedianName          = "median"
	GeometricMedianName = "geometric_median"

	// DefaultName is the function used when the caller does not name one.
	DefaultName = WeightedAverageName
)

// Registry resolves aggregation functions by name. It is populated at
// construction time and immutable afterwards; there is no ambient global
// registration.
type Registry struct {
	functions map[string]Function
}

// Option adds a function to a registry under construction.
type Option func(*Registry)

// WithFunction registers a custom function under the given name, overriding
// a built-in of the same name.
func WithFunction(name string, fn Function) Option {
	return func(r *Registry) {
		r.functions[name] = fn
	}
}

// WithGeometricMedianConfig replaces the built-in geometric median with one
// using the given convergence configuration.
func WithGeometricMedianConfig(cfg GeometricMedianConfig) Option {
	return func(r *Registry) {
		r.functions[GeometricMedianName] = NewGeometricMedian(cfg)
	}
}

// NewRegistry builds a registry seeded with the three built-in functions.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		functions: map[string]Function{
			WeightedAverageName: NewWeightedAverage(),
			MedianName:          NewMedian(),
			GeometricMedianName: NewGeometricMedian(GeometricMedianConfig{}),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get resolves a function by name. An empty name resolves to the default.
func (r *Registry) Get(name string) (Function, error) {
	if name == "" {
		name = DefaultName
	}
	fn, ok := r.functions[name]
	if !ok {
		return nil, fmt.Errorf("%q is not one of %v: %w", name, r.Names(), errors.ErrUnknownFunction)
	}
	return fn, nil
}

// Names lists the registered function names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
