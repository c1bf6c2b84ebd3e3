// Package rpcshim is a minimal gRPC liveness surface over the server
// process: health checking and reflection only. The agent-facing
// query/mutate RPC surface is not part of this repository; this exists so the process
// can be probed and introspected without exposing graph operations.
package rpcshim

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server is a gRPC server exposing only the standard health-checking
// and reflection services.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	health     *health.Server
}

// New listens on addr and registers the health and reflection
// services, marking the process serving immediately.
func New(addr string) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rpcshim: listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{grpcServer: grpcServer, listener: lis, health: healthServer}, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Serve blocks, accepting connections until Stop is called.
func (s *Server) Serve() error { return s.grpcServer.Serve(s.listener) }

// SetServing flips the reported health status, e.g. while the store is
// being rebuilt or drained.
func (s *Server) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Stop gracefully stops the server, waiting for in-flight health/
// reflection calls to finish.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}
