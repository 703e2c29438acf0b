package sdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fedstack/tensordb/tensor"
)

const (
	tensorsEndpoint    = "/tensors"
	lookupEndpoint     = "/tensors/lookup"
	aggregatedEndpoint = "/tensors/aggregated"
	evictEndpoint      = "/tensors/evict"
	keysEndpoint       = "/tensors/keys"
	dumpEndpoint       = "/tensors/dump"
	healthEndpoint     = "/health"
)

func (sdk *tensordbSDK) StoreTensors(records []tensor.Record) error {
	data, err := json.Marshal(map[string][]tensor.Record{"records": records})
	if err != nil {
		return err
	}

	url := sdk.coordinatorURL + tensorsEndpoint

	if _, err := sdk.processRequest(http.MethodPost, url, data, http.StatusCreated); err != nil {
		return err
	}

	return nil
}

func (sdk *tensordbSDK) Lookup(key tensor.Key) (tensor.Tensor, error) {
	data, err := json.Marshal(map[string]tensor.Key{"key": key})
	if err != nil {
		return tensor.Tensor{}, err
	}

	url := sdk.coordinatorURL + lookupEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusOK)
	if err != nil {
		return tensor.Tensor{}, err
	}

	var res struct {
		Value tensor.Tensor `json:"value"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return tensor.Tensor{}, err
	}

	return res.Value, nil
}

func (sdk *tensordbSDK) GetAggregated(key tensor.Key, weights map[string]float64, function string) (tensor.Tensor, bool, error) {
	data, err := json.Marshal(map[string]any{
		"key":      key,
		"weights":  weights,
		"function": function,
	})
	if err != nil {
		return tensor.Tensor{}, false, err
	}

	url := sdk.coordinatorURL + aggregatedEndpoint

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return tensor.Tensor{}, false, err
	}
	req.Header.Add("Content-Type", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return tensor.Tensor{}, false, err
	}
	defer resp.Body.Close()

	var res struct {
		Ready bool           `json:"ready"`
		Value *tensor.Tensor `json:"value,omitempty"`
	}
	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return tensor.Tensor{}, false, err
		}
		if res.Value == nil {
			return tensor.Tensor{}, false, fmt.Errorf("coordinator returned ready with no value")
		}
		return *res.Value, true, nil
	case http.StatusNotFound:
		// Incomplete round; retry later.
		return tensor.Tensor{}, false, nil
	default:
		return tensor.Tensor{}, false, fmt.Errorf("unexpected response code: %d", resp.StatusCode)
	}
}

func (sdk *tensordbSDK) Evict(olderThan int) (int, error) {
	data, err := json.Marshal(map[string]int{"older_than": olderThan})
	if err != nil {
		return 0, err
	}

	url := sdk.coordinatorURL + evictEndpoint

	body, err := sdk.processRequest(http.MethodPost, url, data, http.StatusOK)
	if err != nil {
		return 0, err
	}

	var res struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return 0, err
	}

	return res.Removed, nil
}

func (sdk *tensordbSDK) ListKeys() ([]tensor.Key, error) {
	url := sdk.coordinatorURL + keysEndpoint

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var res struct {
		Keys []tensor.Key `json:"keys"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, err
	}

	return res.Keys, nil
}

func (sdk *tensordbSDK) Dump() (string, error) {
	url := sdk.coordinatorURL + dumpEndpoint

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

func (sdk *tensordbSDK) Health() (map[string]string, error) {
	url := sdk.coordinatorURL + healthEndpoint

	body, err := sdk.processRequest(http.MethodGet, url, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var res map[string]string
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, err
	}

	return res, nil
}
