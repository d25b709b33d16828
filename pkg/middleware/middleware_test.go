package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"nearbyu-loyalty/pkg/errutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Error())
	return r
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	r := newEngine()
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc")
	r.ServeHTTP(w, req)
	require.Equal(t, "abc", seen)
	require.Equal(t, "abc", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestErrorRendersBaseError(t *testing.T) {
	r := newEngine()
	r.GET("/timeout", func(c *gin.Context) {
		_ = c.Error(errutil.Timeout("store call timed out", nil))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("secret detail"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/timeout", nil))
	require.Equal(t, http.StatusGatewayTimeout, w.Code)
	require.Contains(t, w.Body.String(), `"code":"timeout"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "secret detail")
}

func TestErrorInterceptorMapsStatus(t *testing.T) {
	icpt := ErrorInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/nearbyu.Coin/Award"}

	_, err := icpt(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, errutil.Unavailable("store unavailable", errors.New("dial tcp: refused"))
	})
	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.Unavailable, st.Code())
	require.Equal(t, "store unavailable", st.Message())

	resp, err := icpt(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", resp)
}
