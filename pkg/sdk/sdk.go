// Package sdk is a thin HTTP client for the coordinator's operational API,
// used by the CLI and by host-process glue.
package sdk

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/fedstack/tensordb/tensor"
)

const CTJSON string = "application/json"

type SDK interface {
	// StoreTensors inserts records into the coordinator's store.
	//
	// example:
	//  key := tensor.NewKey("conv1.weight", "col-1", 3, false, "trained")
	//  _ = sdk.StoreTensors([]tensor.Record{{Key: key, Value: tensor.FromSlice([]float64{1, 2})}})
	StoreTensors(records []tensor.Record) error

	// Lookup fetches the tensor cached under the exact key.
	//
	// example:
	//  value, _ := sdk.Lookup(tensor.NewKey("conv1.weight", "agg", 3, false))
	//  fmt.Println(value)
	Lookup(key tensor.Key) (tensor.Tensor, error)

	// GetAggregated requests the aggregate for a key. ready is false while
	// contributions are still missing.
	//
	// example:
	//  value, ready, _ := sdk.GetAggregated(key, map[string]float64{"col-1": 0.5, "col-2": 0.5}, "median")
	GetAggregated(key tensor.Key, weights map[string]float64, function string) (value tensor.Tensor, ready bool, err error)

	// Evict drops records outside the sliding round window.
	//
	// example:
	//  removed, _ := sdk.Evict(2)
	Evict(olderThan int) (int, error)

	// ListKeys returns all stored keys, payloads excluded.
	ListKeys() ([]tensor.Key, error)

	// Dump returns the plain-text diagnostic dump of stored keys.
	Dump() (string, error)

	// Health checks the coordinator's health endpoint.
	Health() (map[string]string, error)
}

type tensordbSDK struct {
	coordinatorURL string
	client         *http.Client
}

type Config struct {
	CoordinatorURL  string
	TLSVerification bool
}

func NewSDK(cfg Config) SDK {
	return &tensordbSDK{
		coordinatorURL: cfg.CoordinatorURL,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

func (sdk *tensordbSDK) processRequest(method, reqURL string, data []byte, expectedRespCode int) ([]byte, error) {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(data))
	if err != nil {
		return []byte{}, err
	}

	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}

	if resp.StatusCode != expectedRespCode {
		return []byte{}, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}

	return body, nil
}
