package rpc

import (
	"encoding/json"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

const (
	serviceName   = "microshop.rpc.Commands"
	executeMethod = "/" + serviceName + "/Execute"

	requestIDHeader  = "x-request-id"
	errorKindTrailer = "x-error-kind"
)

// Command is the single message exchanged between the gateway and a backend.
type Command struct {
	Name    string          `json:"cmd"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var codeByKind = map[apierror.Kind]codes.Code{
	apierror.KindValidation:      codes.InvalidArgument,
	apierror.KindBadRequest:      codes.InvalidArgument,
	apierror.KindUnauthorized:    codes.Unauthenticated,
	apierror.KindForbidden:       codes.PermissionDenied,
	apierror.KindNotFound:        codes.NotFound,
	apierror.KindFound:           codes.FailedPrecondition,
	apierror.KindTooManyRequests: codes.ResourceExhausted,
	apierror.KindConflict:        codes.AlreadyExists,
	apierror.KindInternal:        codes.Internal,
}

// toStatus flattens an APIError into a gRPC status. Messages travel in the
// status text separated by newlines, the kind in a trailer.
func toStatus(apiErr *apierror.APIError) (error, metadata.MD) {
	code, ok := codeByKind[apiErr.Kind]
	if !ok {
		code = codes.Internal
	}

	trailer := metadata.Pairs(errorKindTrailer, string(apiErr.Kind))
	return status.Error(code, strings.Join(apiErr.Messages, "\n")), trailer
}

// fromStatus rebuilds the APIError a backend raised. Transport failures
// and statuses without a kind trailer become Internal errors.
func fromStatus(err error, trailer metadata.MD) *apierror.APIError {
	st, ok := status.FromError(err)
	if !ok {
		return apierror.Internal("Service unavailable", err)
	}

	switch st.Code() {
	case codes.DeadlineExceeded:
		return apierror.Internal("Service request timed out", err)
	case codes.Unavailable:
		return apierror.Internal("Service unavailable", err)
	}

	if kinds := trailer.Get(errorKindTrailer); len(kinds) > 0 {
		kind := apierror.Kind(kinds[0])
		if kind.Known() {
			apiErr := apierror.New(kind, strings.Split(st.Message(), "\n")...)
			if kind == apierror.KindInternal {
				apiErr.Err = err
			}
			return apiErr
		}
	}

	return apierror.Internal("Internal server error", err)
}
