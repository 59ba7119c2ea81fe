// Package grpc exposes the standard gRPC health-checking protocol so that
// orchestrators can check the auth service without an HTTP round trip.
package grpc

import (
	"context"

	"github.com/MKhiriev/go-auth-gate/internal/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the name clients may pass in HealthCheckRequest.Service.
// The empty name refers to the server as a whole.
const ServiceName = "goauthgate.Auth"

// Pinger reports whether the backing storage answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler is the root gRPC transport handler. It implements
// grpc_health_v1.HealthServer on top of a storage ping.
type Handler struct {
	grpc_health_v1.UnimplementedHealthServer

	pinger Pinger
	logger *logger.Logger
}

func NewHandler(pinger Pinger, logger *logger.Logger) *Handler {
	logger.Debug().Msg("gRPC handler created")
	return &Handler{
		pinger: pinger,
		logger: logger,
	}
}

// Register attaches every service of the handler to s.
func (h *Handler) Register(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h)
}

func (h *Handler) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	if svc := req.GetService(); svc != "" && svc != ServiceName {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", svc)
	}

	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Err(err).Str("func", "grpc.Handler.Check").Msg("storage ping failed")
		return &grpc_health_v1.HealthCheckResponse{
			Status: grpc_health_v1.HealthCheckResponse_NOT_SERVING,
		}, nil
	}

	return &grpc_health_v1.HealthCheckResponse{
		Status: grpc_health_v1.HealthCheckResponse_SERVING,
	}, nil
}
