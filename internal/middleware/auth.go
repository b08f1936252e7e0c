package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/jaivikTh/nest-microsrv-kit/internal/model"
	"github.com/jaivikTh/nest-microsrv-kit/internal/response"
	"github.com/jaivikTh/nest-microsrv-kit/pkg/apierror"
)

// TokenVerifier checks a bearer token. *service.AuthService implements it.
type TokenVerifier interface {
	VerifyToken(token string) (model.Principal, error)
}

type principalContextKey struct{}

// RequireAuth rejects requests without a valid bearer token and attaches
// the verified Principal to the request context.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				response.WriteError(w, r, apierror.Unauthorized("Missing or invalid authorization header"))
				return
			}

			principal, err := verifier.VerifyToken(token)
			if err != nil {
				if apierror.KindOf(err) != apierror.KindUnauthorized {
					err = apierror.Wrap(apierror.KindUnauthorized, err, "Invalid or expired token")
				}
				response.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(model.Principal)
	return p, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}

	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
