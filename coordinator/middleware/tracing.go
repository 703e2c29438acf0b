package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fedstack/tensordb/aggregation"
	"github.com/fedstack/tensordb/coordinator"
	"github.com/fedstack/tensordb/tensor"
)

var _ coordinator.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    coordinator.Service
}

func Tracing(tracer trace.Tracer, svc coordinator.Service) coordinator.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) StoreTensors(ctx context.Context, records []tensor.Record) error {
	ctx, span := tm.tracer.Start(ctx, "store-tensors", trace.WithAttributes(
		attribute.Int("records", len(records)),
	))
	defer span.End()

	return tm.svc.StoreTensors(ctx, records)
}

func (tm *tracing) GetTensor(ctx context.Context, key tensor.Key) (tensor.Tensor, error) {
	ctx, span := tm.tracer.Start(ctx, "get-tensor", trace.WithAttributes(
		attribute.String("name", key.Name),
		attribute.String("origin", key.Origin),
		attribute.Int64("round", int64(key.Round)),
	))
	defer span.End()

	return tm.svc.GetTensor(ctx, key)
}

func (tm *tracing) GetAggregated(ctx context.Context, key tensor.Key, weights map[string]float64, function string) (tensor.Tensor, bool, error) {
	ctx, span := tm.tracer.Start(ctx, "get-aggregated", trace.WithAttributes(
		attribute.String("name", key.Name),
		attribute.Int64("round", int64(key.Round)),
		attribute.String("function", function),
		attribute.Int("collaborators", len(weights)),
	))
	defer span.End()

	return tm.svc.GetAggregated(ctx, key, weights, function)
}

func (tm *tracing) GetAggregatedWith(ctx context.Context, key tensor.Key, weights map[string]float64, fn aggregation.Function) (tensor.Tensor, bool, error) {
	ctx, span := tm.tracer.Start(ctx, "get-aggregated-with", trace.WithAttributes(
		attribute.String("name", key.Name),
		attribute.Int64("round", int64(key.Round)),
		attribute.Int("collaborators", len(weights)),
	))
	defer span.End()

	return tm.svc.GetAggregatedWith(ctx, key, weights, fn)
}

func (tm *tracing) EvictTensors(ctx context.Context, olderThan int) (int, error) {
	ctx, span := tm.tracer.Start(ctx, "evict-tensors", trace.WithAttributes(
		attribute.Int("older_than", olderThan),
	))
	defer span.End()

	return tm.svc.EvictTensors(ctx, olderThan)
}

func (tm *tracing) ListKeys(ctx context.Context) ([]tensor.Key, error) {
	ctx, span := tm.tracer.Start(ctx, "list-keys")
	defer span.End()

	return tm.svc.ListKeys(ctx)
}
