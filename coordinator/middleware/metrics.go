package middleware

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/fedstack/tensordb/aggregation"
	"github.com/fedstack/tensordb/coordinator"
	"github.com/fedstack/tensordb/tensor"
)

var _ coordinator.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     coordinator.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc coordinator.Service) coordinator.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) StoreTensors(ctx context.Context, records []tensor.Record) error {
	defer func(begin time.Time) {
		mm.counter.With("method", "store-tensors").Add(1)
		mm.latency.With("method", "store-tensors").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.StoreTensors(ctx, records)
}

func (mm *metricsMiddleware) GetTensor(ctx context.Context, key tensor.Key) (tensor.Tensor, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-tensor").Add(1)
		mm.latency.With("method", "get-tensor").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetTensor(ctx, key)
}

func (mm *metricsMiddleware) GetAggregated(ctx context.Context, key tensor.Key, weights map[string]float64, function string) (tensor.Tensor, bool, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-aggregated").Add(1)
		mm.latency.With("method", "get-aggregated").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetAggregated(ctx, key, weights, function)
}

func (mm *metricsMiddleware) GetAggregatedWith(ctx context.Context, key tensor.Key, weights map[string]float64, fn aggregation.Function) (tensor.Tensor, bool, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-aggregated-with").Add(1)
		mm.latency.With("method", "get-aggregated-with").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetAggregatedWith(ctx, key, weights, fn)
}

func (mm *metricsMiddleware) EvictTensors(ctx context.Context, olderThan int) (int, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "evict-tensors").Add(1)
		mm.latency.With("method", "evict-tensors").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.EvictTensors(ctx, olderThan)
}

func (mm *metricsMiddleware) ListKeys(ctx context.Context) ([]tensor.Key, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-keys").Add(1)
		mm.latency.With("method", "list-keys").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListKeys(ctx)
}
