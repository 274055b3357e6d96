package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MKhiriev/go-record-sync/internal/logger"
)

// rpcServiceName is the health service name reported for the RPC endpoint.
const rpcServiceName = "recordsync.sandbox.RPC"

type grpcServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener

	logger *logger.Logger
}

func newGRPCServer(address string, log *logger.Logger) (*grpcServer, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen grpc %s: %w", address, err)
	}

	g := &grpcServer{
		health:   health.NewServer(),
		listener: lis,
		logger:   log,
	}
	g.server = grpc.NewServer(grpc.ChainUnaryInterceptor(g.logUnary))
	grpc_health_v1.RegisterHealthServer(g.server, g.health)

	return g, nil
}

func (g *grpcServer) Addr() string {
	return g.listener.Addr().String()
}

// setServing marks the overall server and the RPC service healthy or not.
func (g *grpcServer) setServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(rpcServiceName, status)
}

func (g *grpcServer) RunServer() {
	g.logger.Info().Str("address", g.Addr()).Msg("gRPC server listening")
	if err := g.server.Serve(g.listener); err != nil {
		g.logger.Err(err).Str("func", "grpcServer.RunServer").Msg("gRPC server Serve")
	}
}

func (g *grpcServer) Shutdown() {
	g.logger.Info().Msg("gRPC server Shutdown")
	g.health.Shutdown()
	g.server.GracefulStop()
	_ = g.listener.Close()
}

func (g *grpcServer) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	event := g.logger.Debug()
	if err != nil {
		event = g.logger.Warn().Err(err)
	}
	event.Str("grpc_method", info.FullMethod).Dur("duration", time.Since(start)).Send()

	return resp, err
}
