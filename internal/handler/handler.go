// Package handler holds the gateway's HTTP handlers. Each returns a Result
// or an error; Adapt turns both into the response envelope.
package handler

import (
	"net/http"

	"github.com/jaivikTh/nest-microsrv-kit/internal/middleware"
	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
	"github.com/jaivikTh/nest-microsrv-kit/internal/response"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

// Result is a successful outcome. A zero Status means 200.
type Result struct {
	Status  int
	Message string
	Data    any
}

type HandlerFunc func(r *http.Request) (Result, error)

func OK(message string, data any) Result {
	return Result{Status: http.StatusOK, Message: message, Data: data}
}

func Created(message string, data any) Result {
	return Result{Status: http.StatusCreated, Message: message, Data: data}
}

// Adapt converts fn into an http.HandlerFunc. Errors go to
// response.WriteError and nowhere else.
func Adapt(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fn(r)
		if err != nil {
			response.WriteError(w, r, err)
			return
		}

		status := res.Status
		if status == 0 {
			status = http.StatusOK
		}
		response.WriteSuccess(w, status, res.Message, res.Data)
	}
}

func principalFrom(r *http.Request) (model.Principal, error) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return model.Principal{}, apierror.Unauthorized("Authentication required")
	}
	return p, nil
}
