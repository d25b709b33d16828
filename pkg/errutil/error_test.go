package errutil

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestConstructorsKeepCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("store unavailable", cause)

	require.ErrorIs(t, err, cause)
	require.True(t, IsStatus(err, StatusServiceUnavailable))
	require.False(t, IsStatus(err, StatusTimeout))
	require.Equal(t, "[service_unavailable] store unavailable: connection refused", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	require.Equal(t, http.StatusNotFound, StatusNotFound.HTTPStatus())
	require.Equal(t, http.StatusServiceUnavailable, StatusServiceUnavailable.HTTPStatus())
	require.Equal(t, http.StatusGatewayTimeout, StatusTimeout.HTTPStatus())
	require.Equal(t, http.StatusInternalServerError, StatusUnknown.HTTPStatus())
}

func TestToGRPCError(t *testing.T) {
	require.NoError(t, ToGRPCError(nil))

	st, ok := status.FromError(ToGRPCError(Timeout("store call timed out", context.DeadlineExceeded)))
	require.True(t, ok)
	require.Equal(t, codes.DeadlineExceeded, st.Code())

	st, ok = status.FromError(ToGRPCError(NotFound("student not found", nil)))
	require.True(t, ok)
	require.Equal(t, codes.NotFound, st.Code())

	st, ok = status.FromError(ToGRPCError(errors.New("boom")))
	require.True(t, ok)
	require.Equal(t, codes.Internal, st.Code())
}
