package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/fedstack/tensordb/aggregation"
	"github.com/fedstack/tensordb/coordinator"
	"github.com/fedstack/tensordb/tensor"
)

var _ coordinator.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    coordinator.Service
}

func Logging(logger *slog.Logger, svc coordinator.Service) coordinator.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) StoreTensors(ctx context.Context, records []tensor.Record) (err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("records", len(records)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Store tensors failed", args...)

			return
		}
		lm.logger.Info("Store tensors completed successfully", args...)
	}(time.Now())

	return lm.svc.StoreTensors(ctx, records)
}

func (lm *loggingMiddleware) GetTensor(ctx context.Context, key tensor.Key) (resp tensor.Tensor, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("key",
				slog.String("name", key.Name),
				slog.String("origin", key.Origin),
				slog.Uint64("round", key.Round),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get tensor failed", args...)

			return
		}
		lm.logger.Info("Get tensor completed successfully", args...)
	}(time.Now())

	return lm.svc.GetTensor(ctx, key)
}

func (lm *loggingMiddleware) GetAggregated(ctx context.Context, key tensor.Key, weights map[string]float64, function string) (resp tensor.Tensor, ok bool, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.String("function", function),
			slog.Int("collaborators", len(weights)),
			slog.Group("key",
				slog.String("name", key.Name),
				slog.Uint64("round", key.Round),
			),
		}
		switch {
		case err != nil:
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get aggregated tensor failed", args...)
		case !ok:
			lm.logger.Info("Get aggregated tensor not ready", args...)
		default:
			lm.logger.Info("Get aggregated tensor completed successfully", args...)
		}
	}(time.Now())

	return lm.svc.GetAggregated(ctx, key, weights, function)
}

func (lm *loggingMiddleware) GetAggregatedWith(ctx context.Context, key tensor.Key, weights map[string]float64, fn aggregation.Function) (resp tensor.Tensor, ok bool, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("collaborators", len(weights)),
			slog.Group("key",
				slog.String("name", key.Name),
				slog.Uint64("round", key.Round),
			),
		}
		switch {
		case err != nil:
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get aggregated tensor failed", args...)
		case !ok:
			lm.logger.Info("Get aggregated tensor not ready", args...)
		default:
			lm.logger.Info("Get aggregated tensor completed successfully", args...)
		}
	}(time.Now())

	return lm.svc.GetAggregatedWith(ctx, key, weights, fn)
}

func (lm *loggingMiddleware) EvictTensors(ctx context.Context, olderThan int) (removed int, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("older_than", olderThan),
			slog.Int("removed", removed),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Evict tensors failed", args...)

			return
		}
		lm.logger.Info("Evict tensors completed successfully", args...)
	}(time.Now())

	return lm.svc.EvictTensors(ctx, olderThan)
}

func (lm *loggingMiddleware) ListKeys(ctx context.Context) (keys []tensor.Key, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Int("keys", len(keys)),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List keys failed", args...)

			return
		}
		lm.logger.Info("List keys completed successfully", args...)
	}(time.Now())

	return lm.svc.ListKeys(ctx)
}
