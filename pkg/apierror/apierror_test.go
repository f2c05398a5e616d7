package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

var errSentinel = errors.New("sentinel")

func TestAPIErrorMessage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "NOT_FOUND: user not found (42)", NotFound("user not found", "42").Error())
	require.Equal(t, "FORBIDDEN: admins only", Forbidden("admins only").Error())

	var nilErr *APIError
	require.Equal(t, "", nilErr.Error())
}

func TestAPIErrorUnwrapsSentinel(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("register: %w", Conflict("email already exists", "a@b.c").Wrap(errSentinel))

	require.ErrorIs(t, err, errSentinel)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "CONFLICT", apiErr.Code)
	require.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
}

func TestConstructorStatuses(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		err    *APIError
		status int
	}{
		"unauthenticated": {Unauthenticated("x"), http.StatusUnauthorized},
		"forbidden":       {Forbidden("x"), http.StatusForbidden},
		"not found":       {NotFound("x", ""), http.StatusNotFound},
		"invalid input":   {InvalidInput("x", ""), http.StatusBadRequest},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.status, tc.err.HTTPStatus)
		})
	}
}
