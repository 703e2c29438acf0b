// Package api holds the HTTP encoding helpers shared by transport layers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"

	pkgerrors "github.com/fedstack/tensordb/pkg/errors"
)

const ContentType = "application/json"

// Response lets endpoint responses control their status code and headers.
type Response interface {
	// Code returns the HTTP status code.
	Code() int
	// Headers returns extra response headers.
	Headers() map[string]string
	// Empty reports whether the body should be omitted.
	Empty() bool
}

// EncodeResponse writes an endpoint response as JSON, honouring the
// Response interface when implemented.
func EncodeResponse(_ context.Context, w http.ResponseWriter, response any) error {
	if ar, ok := response.(Response); ok {
		for k, v := range ar.Headers() {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(ar.Code())

		if ar.Empty() {
			return nil
		}
	}

	return json.NewEncoder(w).Encode(response)
}

// EncodeError maps service errors to HTTP status codes.
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", ContentType)
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, pkgerrors.ErrEmptyStore):
		w.WriteHeader(http.StatusConflict)
	case errors.Is(err, pkgerrors.ErrUnknownFunction),
		errors.Is(err, pkgerrors.ErrInvalidWeights),
		errors.Is(err, pkgerrors.ErrShapeMismatch),
		errors.Is(err, pkgerrors.ErrNoContributions),
		errors.Is(err, pkgerrors.ErrInvalidData):
		w.WriteHeader(http.StatusBadRequest)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	if encErr := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); encErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// LoggingErrorEncoder logs transport errors before encoding them.
func LoggingErrorEncoder(logger *slog.Logger, enc kithttp.ErrorEncoder) kithttp.ErrorEncoder {
	return func(ctx context.Context, err error, w http.ResponseWriter) {
		logger.Warn("API request failed", slog.Any("error", err))
		enc(ctx, err, w)
	}
}
