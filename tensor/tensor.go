// Package tensor defines the value types exchanged between collaborators,
// the store and the aggregation functions: n-dimensional numeric arrays and
// the composite keys that address them.
package tensor

import (
	"encoding/json"
	"fmt"

	"github.com/fedstack/tensordb/pkg/errors"
)

// Tensor is an n-dimensional array of float64 values in row-major order.
// The zero value is an empty scalar and is not valid for store operations;
// use New, FromSlice or Scalar.
type Tensor struct {
	shape Shape
	data  []float64
}

// New creates a tensor with the given shape from row-major data.
// The data slice is copied.
func New(shape Shape, data []float64) (Tensor, error) {
	if err := shape.Validate(); err != nil {
		return Tensor{}, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return Tensor{}, fmt.Errorf("shape %v requires %d elements, got %d: %w",
			shape, shape.NumElements(), len(data), errors.ErrInvalidData)
	}
	d := make([]float64, len(data))
	copy(d, data)
	return Tensor{shape: shape.Clone(), data: d}, nil
}

// FromSlice creates a 1-D tensor from a slice. The slice is copied.
func FromSlice(data []float64) Tensor {
	d := make([]float64, len(data))
	copy(d, data)
	return Tensor{shape: Shape{len(data)}, data: d}
}

// Scalar creates a 0-D tensor holding a single value.
func Scalar(v float64) Tensor {
	return Tensor{shape: Shape{}, data: []float64{v}}
}

// Shape returns the tensor's shape. Callers must not modify it.
func (t Tensor) Shape() Shape {
	return t.shape
}

// NumElements returns the total number of elements.
func (t Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the flat row-major data. The returned slice aliases the
// tensor's memory; callers that need an independent copy should Clone first.
func (t Tensor) Data() []float64 {
	return t.data
}

// IsZero reports whether the tensor is the zero value (no allocated data).
func (t Tensor) IsZero() bool {
	return t.data == nil && t.shape == nil
}

// Clone returns a deep copy of the tensor.
func (t Tensor) Clone() Tensor {
	d := make([]float64, len(t.data))
	copy(d, t.data)
	return Tensor{shape: t.shape.Clone(), data: d}
}

// Equal reports exact elementwise equality of shape and data.
func (t Tensor) Equal(other Tensor) bool {
	if !t.shape.Equal(other.shape) || len(t.data) != len(other.data) {
		return false
	}
	for i := range t.data {
		if t.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// String returns a short human-readable description without the payload.
func (t Tensor) String() string {
	return fmt.Sprintf("Tensor%v (%d elements)", t.shape, len(t.data))
}

type tensorJSON struct {
	Shape Shape     `json:"shape"`
	Data  []float64 `json:"data"`
}

// MarshalJSON encodes the tensor as {"shape":[...],"data":[...]}.
func (t Tensor) MarshalJSON() ([]byte, error) {
	return json.Marshal(tensorJSON{Shape: t.shape, Data: t.data})
}

// UnmarshalJSON decodes the tensor from {"shape":[...],"data":[...]}.
// A missing shape is treated as 1-D.
func (t *Tensor) UnmarshalJSON(b []byte) error {
	var tj tensorJSON
	if err := json.Unmarshal(b, &tj); err != nil {
		return err
	}
	if tj.Shape == nil {
		tj.Shape = Shape{len(tj.Data)}
	}
	nt, err := New(tj.Shape, tj.Data)
	if err != nil {
		return err
	}
	*t = nt
	return nil
}

// Record pairs a key with the tensor stored under it.
type Record struct {
	Key   Key    `json:"key"`
	Value Tensor `json:"value"`
}

// Dict maps tensor names to tensors. It is the exchange format produced by
// framework adapters from a model's internal weight representation.
type Dict map[string]Tensor
