package api

import (
	"net/http"

	"github.com/fedstack/tensordb/pkg/api"
	"github.com/fedstack/tensordb/tensor"
)

var (
	_ api.Response = (*storeTensorsRes)(nil)
	_ api.Response = (*tensorRes)(nil)
	_ api.Response = (*aggregatedRes)(nil)
	_ api.Response = (*evictRes)(nil)
	_ api.Response = (*listKeysRes)(nil)
)

type storeTensorsRes struct {
	Stored int `json:"stored"`
}

func (res storeTensorsRes) Code() int                  { return http.StatusCreated }
func (res storeTensorsRes) Headers() map[string]string { return map[string]string{} }
func (res storeTensorsRes) Empty() bool                { return false }

type tensorRes struct {
	Value tensor.Tensor `json:"value"`
}

func (res tensorRes) Code() int                  { return http.StatusOK }
func (res tensorRes) Headers() map[string]string { return map[string]string{} }
func (res tensorRes) Empty() bool                { return false }

type aggregatedRes struct {
	Ready bool           `json:"ready"`
	Value *tensor.Tensor `json:"value,omitempty"`
}

func (res aggregatedRes) Code() int {
	if !res.Ready {
		// Incomplete round: absent, not an error. The caller retries.
		return http.StatusNotFound
	}
	return http.StatusOK
}
func (res aggregatedRes) Headers() map[string]string { return map[string]string{} }
func (res aggregatedRes) Empty() bool                { return false }

type evictRes struct {
	Removed int `json:"removed"`
}

func (res evictRes) Code() int                  { return http.StatusOK }
func (res evictRes) Headers() map[string]string { return map[string]string{} }
func (res evictRes) Empty() bool                { return false }

type listKeysRes struct {
	Keys []tensor.Key `json:"keys"`
}

func (res listKeysRes) Code() int                  { return http.StatusOK }
func (res listKeysRes) Headers() map[string]string { return map[string]string{} }
func (res listKeysRes) Empty() bool                { return false }
