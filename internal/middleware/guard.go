package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jaivikTh/nest-microsrv-kit/internal/metrics"
	"github.com/jaivikTh/nest-microsrv-kit/internal/response"
	"github.com/jaivikTh/nest-microsrv-kit/internal/security"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

const payloadTooLarge = "Request payload too large"

// PayloadLimit rejects a declared Content-Length above maxBytes and caps
// the body actually read at the same size.
func PayloadLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				response.WriteError(w, r, apierror.BadRequest(payloadTooLarge))
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ThreatScan rejects requests whose body, query or route parameters carry
// an SQL injection or XSS signature. Only the location is logged.
func ThreatScan(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := readJSONBody(r)
			if err != nil {
				response.WriteError(w, r, err)
				return
			}

			threat, source, found := scanRequest(r, body)
			if found {
				m.ObserveThreat(string(threat.Kind), source)
				slog.WarnContext(r.Context(), "suspicious input rejected",
					"path", r.URL.Path,
					"source", source,
					"field", threat.Path,
					"kind", string(threat.Kind),
				)
				response.WriteError(w, r, apierror.BadRequest("Invalid input detected"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Sanitize rewrites every string in the body, query and route parameters
// through security.SanitizeString before the handler sees them.
func Sanitize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readJSONBody(r)
		if err != nil {
			response.WriteError(w, r, err)
			return
		}

		if body != nil {
			encoded, err := json.Marshal(security.SanitizeValue(body))
			if err != nil {
				response.WriteError(w, r, apierror.Internal("Internal server error", err))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(encoded))
			r.ContentLength = int64(len(encoded))
			r.Header.Set("Content-Length", strconv.Itoa(len(encoded)))
		}

		if r.URL.RawQuery != "" {
			query := r.URL.Query()
			for _, values := range query {
				for i, value := range values {
					values[i] = security.SanitizeString(value)
				}
			}
			r.URL.RawQuery = query.Encode()
		}

		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			for i, value := range rctx.URLParams.Values {
				rctx.URLParams.Values[i] = security.SanitizeString(value)
			}
		}

		next.ServeHTTP(w, r)
	})
}

// readJSONBody decodes the body as JSON and puts the raw bytes back for the
// next reader. It returns nil for empty or non-JSON bodies; those are left
// for the handler to reject.
func readJSONBody(r *http.Request) (any, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	raw, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apierror.BadRequest(payloadTooLarge)
		}
		return nil, apierror.Wrap(apierror.KindBadRequest, err, "Could not read request body")
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, nil
	}
	return body, nil
}

func scanRequest(r *http.Request, body any) (security.Threat, string, bool) {
	if body != nil {
		if threat, ok := security.ScanValue(body, ""); ok {
			return threat, "body", true
		}
	}

	if threat, ok := scanValues(r.URL.Query()); ok {
		return threat, "query", true
	}

	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		params := url.Values{}
		for i, key := range rctx.URLParams.Keys {
			if i < len(rctx.URLParams.Values) {
				params.Add(key, rctx.URLParams.Values[i])
			}
		}
		if threat, ok := scanValues(params); ok {
			return threat, "params", true
		}
	}

	return security.Threat{}, "", false
}

func scanValues(values url.Values) (security.Threat, bool) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, value := range values[key] {
			if kind, ok := security.ScanString(value); ok {
				return security.Threat{Path: key, Kind: kind}, true
			}
		}
	}
	return security.Threat{}, false
}
