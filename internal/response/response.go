// Package response writes the JSON envelope every gateway response uses.
// WriteError is the only place an error becomes an HTTP body.
package response

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

func Success(status int, message string, data any) model.Envelope {
	return model.Envelope{
		Error:      false,
		StatusCode: status,
		Message:    message,
		Data:       data,
	}
}

// Failure builds the error envelope. Validation messages and any multi-message
// error are sent as an array.
func Failure(apiErr *apierror.APIError) model.Envelope {
	var message any = apiErr.Message()
	if apiErr.Kind == apierror.KindValidation || len(apiErr.Messages) > 1 {
		message = apiErr.Messages
	}

	return model.Envelope{
		Error:      true,
		StatusCode: apiErr.HTTPStatus(),
		ErrorType:  string(apiErr.Kind),
		Message:    message,
		Data:       nil,
	}
}

func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Success(status, message, data))
}

// WriteError translates err through the taxonomy and writes it. Internal
// errors are logged with their cause; clients only see the message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apierror.From(err)

	if apiErr.Kind == apierror.KindInternal {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}

	if f, ok := r.Context().Value(outcomeKey{}).(*Outcome); ok {
		f.Kind = apiErr.Kind
		f.Message = apiErr.Message()
	}

	writeJSON(w, apiErr.HTTPStatus(), Failure(apiErr))
}

func writeJSON(w http.ResponseWriter, status int, body model.Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type outcomeKey struct{}

// Outcome records the error a request ended with, for the access log.
type Outcome struct {
	Kind    apierror.Kind
	Message string
}

// TrackOutcome returns a context in which WriteError records its error
// into the returned *Outcome.
func TrackOutcome(ctx context.Context) (context.Context, *Outcome) {
	f := &Outcome{}
	return context.WithValue(ctx, outcomeKey{}, f), f
}
