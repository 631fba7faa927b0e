package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatuses(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
	}{
		{Unauthenticated("no token"), http.StatusUnauthorized},
		{Forbidden("nope"), http.StatusForbidden},
		{ValidationFailed(nil), http.StatusBadRequest},
		{BadRequest("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{RateLimited("slow down"), http.StatusTooManyRequests},
		{DependencyFailure("store", errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.Status, tc.err.Kind)
		assert.Equal(t, tc.status, StatusOf(tc.err))
	}
}

func TestFromUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Forbidden("admin only"))

	ae := From(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, KindForbidden, ae.Kind)
	assert.True(t, IsKind(wrapped, KindForbidden))
}

func TestFromUnknownErrorIsInternal(t *testing.T) {
	cause := errors.New("connection reset")
	ae := From(cause)

	assert.Equal(t, KindInternal, ae.Kind)
	assert.Equal(t, http.StatusInternalServerError, ae.Status)
	assert.ErrorIs(t, ae, cause)
	assert.Nil(t, From(nil))
}

func TestDependencyFailureKeepsCause(t *testing.T) {
	cause := errors.New("gotrue 502")
	ae := DependencyFailure("create account", cause)

	assert.ErrorIs(t, ae, cause)
	assert.Contains(t, ae.Error(), "gotrue 502")
}
