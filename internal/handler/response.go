package handler

// Every endpoint answers with the same JSON envelope:
//
//	{"code": "200", "data": {...}, "message": "success"}
//
// code mirrors the HTTP status as a string, data carries the payload (null
// on errors), message is human-readable. Centralising the write here keeps
// handlers free of encoding boilerplate and guarantees the shape never
// drifts between endpoints.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/feed-curation/internal/apperror"
)

type envelope struct {
	Code    string `json:"code"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// writeEnvelope sends the uniform response envelope with the given HTTP
// status. Headers and status must be written before the body — once the
// encoder writes, they are locked in.
func writeEnvelope(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{
		Code:    strconv.Itoa(status),
		Data:    data,
		Message: message,
	}); err != nil {
		// Headers are already gone; logging is all that's left.
		slog.Error("failed to encode response envelope", slog.String("error", err.Error()))
	}
}

// writeError translates a domain error into an envelope. The service
// layer returns apperror values; this is the single place they meet HTTP
// status codes. errors.Is walks the wrap chain, so services are free to
// add fmt.Errorf context around apperror values.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		}
		writeEnvelope(w, status, nil, appErr.Message)
		return
	}

	// Unknown failure — never leak internals (SQL, paths) to the client.
	writeEnvelope(w, http.StatusInternalServerError, nil, "internal server error")
}
