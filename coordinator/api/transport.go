package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fedstack/tensordb/coordinator"
	"github.com/fedstack/tensordb/pkg/api"
	pkgerrors "github.com/fedstack/tensordb/pkg/errors"
)

const (
	contentTypeCBOR = "application/cbor"
	maxBodySize     = 1024 * 1024 * 256
)

// MakeHandler wires the coordinator service into an HTTP router. The
// surface is operational glue over the store contract, not a federation
// protocol: collaborator transports live in the host process.
func MakeHandler(svc coordinator.Service, logger *slog.Logger, instanceID string) http.Handler {
	mux := chi.NewRouter()

	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(api.LoggingErrorEncoder(logger, api.EncodeError)),
	}

	mux.Route("/tensors", func(r chi.Router) {
		r.Post("/", otelhttp.NewHandler(kithttp.NewServer(
			storeTensorsEndpoint(svc),
			decodeStoreTensorsReq,
			api.EncodeResponse,
			opts...,
		), "store-tensors").ServeHTTP)
		r.Post("/lookup", otelhttp.NewHandler(kithttp.NewServer(
			getTensorEndpoint(svc),
			decodeLookupReq,
			api.EncodeResponse,
			opts...,
		), "get-tensor").ServeHTTP)
		r.Post("/aggregated", otelhttp.NewHandler(kithttp.NewServer(
			getAggregatedEndpoint(svc),
			decodeAggregateReq,
			api.EncodeResponse,
			opts...,
		), "get-aggregated").ServeHTTP)
		r.Post("/evict", otelhttp.NewHandler(kithttp.NewServer(
			evictEndpoint(svc),
			decodeEvictReq,
			api.EncodeResponse,
			opts...,
		), "evict-tensors").ServeHTTP)
		r.Get("/keys", otelhttp.NewHandler(kithttp.NewServer(
			listKeysEndpoint(svc),
			decodeListKeysReq,
			api.EncodeResponse,
			opts...,
		), "list-keys").ServeHTTP)
		r.Get("/dump", dumpHandler(svc, logger))
	})

	mux.Get("/health", healthHandler(instanceID))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// decodeStoreTensorsReq accepts JSON and, for constrained collaborators
// shipping large payloads, CBOR.
func decodeStoreTensorsReq(_ context.Context, r *http.Request) (any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	var req storeTensorsReq
	if strings.HasPrefix(r.Header.Get("Content-Type"), contentTypeCBOR) {
		if err := cbor.Unmarshal(body, &req); err != nil {
			return nil, fmt.Errorf("failed to decode CBOR payload: %w", pkgerrors.ErrInvalidData)
		}
		return req, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to decode JSON payload: %w", pkgerrors.ErrInvalidData)
	}
	return req, nil
}

func decodeLookupReq(_ context.Context, r *http.Request) (any, error) {
	var req lookupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode lookup request: %w", pkgerrors.ErrInvalidData)
	}
	return req, nil
}

func decodeAggregateReq(_ context.Context, r *http.Request) (any, error) {
	var req aggregateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode aggregate request: %w", pkgerrors.ErrInvalidData)
	}
	return req, nil
}

func decodeEvictReq(_ context.Context, r *http.Request) (any, error) {
	var req evictReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode evict request: %w", pkgerrors.ErrInvalidData)
	}
	return req, nil
}

func decodeListKeysReq(_ context.Context, _ *http.Request) (any, error) {
	return listKeysReq{}, nil
}

// dumpHandler renders the diagnostic key dump as plain text, payloads
// excluded.
func dumpHandler(svc coordinator.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := svc.ListKeys(r.Context())
		if err != nil {
			logger.Warn("Dump failed", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "TensorStore contents:")
		for i, k := range keys {
			fmt.Fprintf(w, "%6d  %s\n", i, k)
		}
	}
}

func healthHandler(instanceID string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", api.ContentType)
		if err := json.NewEncoder(w).Encode(map[string]string{
			"status":      "ok",
			"instance_id": instanceID,
		}); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}
