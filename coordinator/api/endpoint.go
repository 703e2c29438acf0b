package api

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"

	"github.com/fedstack/tensordb/coordinator"
	pkgerrors "github.com/fedstack/tensordb/pkg/errors"
)

func storeTensorsEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(storeTensorsReq)
		if !ok {
			return storeTensorsRes{}, pkgerrors.ErrInvalidData
		}
		if err := req.validate(); err != nil {
			return storeTensorsRes{}, err
		}

		records, err := req.toRecords()
		if err != nil {
			return storeTensorsRes{}, errors.Join(pkgerrors.ErrInvalidData, err)
		}
		if err := svc.StoreTensors(ctx, records); err != nil {
			return storeTensorsRes{}, err
		}

		return storeTensorsRes{Stored: len(records)}, nil
	}
}

func getTensorEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(lookupReq)
		if !ok {
			return tensorRes{}, pkgerrors.ErrInvalidData
		}
		if err := req.validate(); err != nil {
			return tensorRes{}, err
		}

		value, err := svc.GetTensor(ctx, req.Key.toKey())
		if err != nil {
			return tensorRes{}, err
		}

		return tensorRes{Value: value}, nil
	}
}

func getAggregatedEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(aggregateReq)
		if !ok {
			return aggregatedRes{}, pkgerrors.ErrInvalidData
		}
		if err := req.validate(); err != nil {
			return aggregatedRes{}, err
		}

		value, ready, err := svc.GetAggregated(ctx, req.Key.toKey(), req.Weights, req.Function)
		if err != nil {
			return aggregatedRes{}, err
		}
		if !ready {
			return aggregatedRes{Ready: false}, nil
		}

		return aggregatedRes{Ready: true, Value: &value}, nil
	}
}

func evictEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req, ok := request.(evictReq)
		if !ok {
			return evictRes{}, pkgerrors.ErrInvalidData
		}

		removed, err := svc.EvictTensors(ctx, req.OlderThan)
		if err != nil {
			return evictRes{}, err
		}

		return evictRes{Removed: removed}, nil
	}
}

func listKeysEndpoint(svc coordinator.Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		if _, ok := request.(listKeysReq); !ok {
			return listKeysRes{}, pkgerrors.ErrInvalidData
		}

		keys, err := svc.ListKeys(ctx)
		if err != nil {
			return listKeysRes{}, err
		}

		return listKeysRes{Keys: keys}, nil
	}
}
