package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

// bind decodes the JSON body into dst and validates it. An empty body
// decodes as the zero value so missing fields are reported by validation.
func bind(r *http.Request, dst any) error {
	if r.Body != nil {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return decodeError(err)
		}
		if dec.More() {
			return apierror.BadRequest("Invalid JSON body")
		}
	}

	return validateStruct(dst)
}

func decodeError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &tooLarge):
		return apierror.BadRequest("Request payload too large")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apierror.Wrap(apierror.KindBadRequest, err, "Invalid JSON body")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			return apierror.Wrap(apierror.KindBadRequest, err, "Request body must be a JSON object")
		}
		return apierror.Wrap(apierror.KindBadRequest, err, fmt.Sprintf("%s must be a %s", field, jsonKind(typeErr.Type.Kind().String())))
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return apierror.Wrap(apierror.KindBadRequest, err, fmt.Sprintf("property %s should not exist", field))
	default:
		return apierror.Wrap(apierror.KindBadRequest, err, "Invalid JSON body")
	}
}

func jsonKind(goKind string) string {
	switch {
	case strings.HasPrefix(goKind, "float"), strings.HasPrefix(goKind, "int"):
		return "number"
	default:
		return goKind
	}
}

// pathID parses a numeric route parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, apierror.BadRequest("Validation failed (numeric string is expected)")
	}
	return id, nil
}
