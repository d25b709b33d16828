package health

import (
	"context"

	"go.uber.org/fx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

var GRPC = fx.Module("health.grpc",
	fx.Invoke(registerHealthServer),
)

// Server answers grpc_health_v1 checks with the readiness logic behind /readyz.
type Server struct {
	grpc_health_v1.UnimplementedHealthServer
	health HealthService
}

func NewServer(h HealthService) *Server {
	return &Server{health: h}
}

func registerHealthServer(srv *grpc.Server, h HealthService) {
	grpc_health_v1.RegisterHealthServer(srv, NewServer(h))
}

func (s *Server) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	if s.health.Check(ctx).Status != statusHealthy {
		return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func (s *Server) Watch(req *grpc_health_v1.HealthCheckRequest, srv grpc_health_v1.Health_WatchServer) error {
	return status.Error(codes.Unimplemented, "Watch method not implemented")
}
