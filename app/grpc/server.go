package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const ServiceName = "dagpay"

type pinger interface {
	PingContext(ctx context.Context) error
}

// Server reports SERVING while the invoice store is reachable and at least one
// gateway environment is configured.
type Server struct {
	healthpb.UnimplementedHealthServer
	db           pinger
	environments int
}

func NewServer(db pinger, environments int) *Server {
	return &Server{db: db, environments: environments}
}

func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if name := req.GetService(); name != "" && name != ServiceName {
		return nil, status.Error(codes.NotFound, "unknown service")
	}

	if s.environments == 0 {
		loggerWithContext(ctx).Warn("No Dagpay environments configured")
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			loggerWithContext(ctx).WithError(err).Warn("Invoice store unreachable")
			return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
		}
	}

	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
