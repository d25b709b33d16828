package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/docstore/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func TestReadinessReportsStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, ProvideHealth(HealthParams{Store: docstore.NewMemoryStore()}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"docstore"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessFailsWhenStoreDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Ping(gomock.Any()).Return(errors.New("dial tcp: refused")).Times(2)

	h := ProvideHealth(HealthParams{Store: store})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	resp, err := NewServer(h).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
