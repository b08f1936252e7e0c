package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	t.Parallel()

	cases := map[Kind]int{
		KindValidation:      http.StatusUnprocessableEntity,
		KindBadRequest:      http.StatusBadRequest,
		KindUnauthorized:    http.StatusUnauthorized,
		KindForbidden:       http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindFound:           http.StatusFound,
		KindTooManyRequests: http.StatusTooManyRequests,
		KindConflict:        http.StatusConflict,
		KindInternal:        http.StatusInternalServerError,
		Kind("Teapot"):      http.StatusInternalServerError,
	}

	for kind, want := range cases {
		assert.Equal(t, want, kind.Status(), "kind %q", kind)
	}
}

func TestNewUnknownKindFallsBackToInternal(t *testing.T) {
	t.Parallel()

	err := New(Kind("Nope"), "boom")
	assert.Equal(t, KindInternal, err.Kind)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
}

func TestFrom(t *testing.T) {
	t.Parallel()

	t.Run("keeps wrapped api errors", func(t *testing.T) {
		wrapped := fmt.Errorf("lookup: %w", NotFound("User not found"))
		got := From(wrapped)
		require.NotNil(t, got)
		assert.Equal(t, KindNotFound, got.Kind)
		assert.Equal(t, "User not found", got.Message())
	})

	t.Run("collapses unknown errors", func(t *testing.T) {
		cause := errors.New("connection reset")
		got := From(cause)
		require.NotNil(t, got)
		assert.Equal(t, KindInternal, got.Kind)
		assert.Equal(t, "Internal server error", got.Message())
		assert.ErrorIs(t, got, cause)
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, From(nil))
	})
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("x: %w", Conflict("taken"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	t.Parallel()

	err := Validation("a", "b")
	assert.Equal(t, "Validation Error: a, b", err.Error())
	assert.Equal(t, "a", err.Message())

	withCause := Internal("failed", errors.New("disk"))
	assert.Equal(t, "Internal Server Error: failed: disk", withCause.Error())
}
