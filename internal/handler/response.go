package handler

// Every body this API sends is a JSON envelope:
//
//	{"error": false, "message": "...", ...payload}
//
// Payload structs embed envelope so the two flags sit next to the data.
// Error responses carry only the envelope.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/travel-journal/internal/apperror"
)

// maxJSONBody caps request bodies on JSON endpoints.
const maxJSONBody = 1 << 20

type envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func success(message string) envelope {
	return envelope{Error: false, Message: message}
}

func failure(message string) envelope {
	return envelope{Error: true, Message: message}
}

// writeJSON sends data as a JSON response with the given status code.
// The body is encoded before anything is written, so a value that cannot
// be encoded turns into a 500 envelope instead of an empty body.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Error("failed to encode JSON response",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(failure("An internal error occurred"))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Debug("writing JSON response", slog.String("error", err.Error()))
	}
}

// writeError maps err to a status and writes the envelope. Typed errors
// show their message; anything else is logged and hidden behind a generic
// 500 so SQL or file paths never reach the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	writeErrorStatus(w, logger, apperror.HTTPStatus(err), err)
}

func writeErrorStatus(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	appErr, ok := apperror.From(err)
	if status == http.StatusInternalServerError || !ok {
		logger.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, logger, http.StatusInternalServerError, failure("An internal error occurred"))
		return
	}
	writeJSON(w, logger, status, failure(appErr.Message))
}

// decodeJSON reads a single JSON object from the request body into dst.
// Malformed bodies come back as validation errors. Field types with their
// own UnmarshalJSON may return an *apperror.AppError, which is kept as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var (
			maxErr *http.MaxBytesError
			appErr *apperror.AppError
		)
		switch {
		case errors.As(err, &appErr):
			return appErr
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("", "Request body too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("", "Request body is required")
		default:
			return apperror.ValidationFailed("", "Invalid request body")
		}
	}
	return nil
}
