package api

import (
	"github.com/fedstack/tensordb/pkg/errors"
	"github.com/fedstack/tensordb/tensor"
)

type keyPayload struct {
	Name   string   `json:"name"   cbor:"name"`
	Origin string   `json:"origin" cbor:"origin"`
	Round  uint64   `json:"round"  cbor:"round"`
	Report bool     `json:"report" cbor:"report"`
	Tags   []string `json:"tags"   cbor:"tags"`
}

func (k keyPayload) toKey() tensor.Key {
	return tensor.NewKey(k.Name, k.Origin, k.Round, k.Report, k.Tags...)
}

type tensorPayload struct {
	Shape []int     `json:"shape" cbor:"shape"`
	Data  []float64 `json:"data"  cbor:"data"`
}

func (t tensorPayload) toTensor() (tensor.Tensor, error) {
	shape := tensor.Shape(t.Shape)
	if shape == nil {
		shape = tensor.Shape{len(t.Data)}
	}
	return tensor.New(shape, t.Data)
}

type recordPayload struct {
	Key   keyPayload    `json:"key"   cbor:"key"`
	Value tensorPayload `json:"value" cbor:"value"`
}

type storeTensorsReq struct {
	Records []recordPayload `json:"records" cbor:"records"`
}

func (req storeTensorsReq) validate() error {
	if len(req.Records) == 0 {
		return errors.ErrInvalidData
	}
	return nil
}

func (req storeTensorsReq) toRecords() ([]tensor.Record, error) {
	records := make([]tensor.Record, 0, len(req.Records))
	for _, r := range req.Records {
		value, err := r.Value.toTensor()
		if err != nil {
			return nil, err
		}
		records = append(records, tensor.Record{Key: r.Key.toKey(), Value: value})
	}
	return records, nil
}

type lookupReq struct {
	Key keyPayload `json:"key"`
}

func (req lookupReq) validate() error {
	if req.Key.Name == "" {
		return errors.ErrInvalidData
	}
	return nil
}

type aggregateReq struct {
	Key      keyPayload         `json:"key"`
	Weights  map[string]float64 `json:"weights"`
	Function string             `json:"function,omitempty"`
}

func (req aggregateReq) validate() error {
	if req.Key.Name == "" {
		return errors.ErrInvalidData
	}
	return nil
}

type evictReq struct {
	OlderThan int `json:"older_than"`
}

type listKeysReq struct{}
