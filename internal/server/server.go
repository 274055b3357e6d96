package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/MKhiriev/go-record-sync/internal/config"
	"github.com/MKhiriev/go-record-sync/internal/logger"
)

type server struct {
	httpServer *httpServer
	gRPCServer *grpcServer
	logger     *logger.Logger

	shutdownOnce sync.Once
}

// NewServer binds the configured addresses. The RPC handler is served over
// HTTP; the gRPC address, when set, exposes the standard health service.
func NewServer(handler http.Handler, cfg config.SandboxConfig, log *logger.Logger) (Server, error) {
	log.Info().Msg("creating new server...")
	servers := &server{logger: log}

	if cfg.HTTPAddress != "" {
		h, err := newHTTPServer(handler, cfg.HTTPAddress, log.WithComponent("http_server"))
		if err != nil {
			return nil, err
		}
		servers.httpServer = h
	}
	if cfg.GRPCAddress != "" {
		g, err := newGRPCServer(cfg.GRPCAddress, log.WithComponent("grpc_server"))
		if err != nil {
			servers.Shutdown()
			return nil, err
		}
		servers.gRPCServer = g
	}

	if servers.httpServer == nil && servers.gRPCServer == nil {
		return nil, errNoListenAddress
	}

	return servers, nil
}

func (s *server) RunServer() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	if err := s.Run(ctx); err != nil {
		s.logger.Err(err).Msg("error running server")
	}
}

func (s *server) Run(ctx context.Context) error {
	if s.httpServer == nil && s.gRPCServer == nil {
		return fmt.Errorf("run: %w", errNoListenAddress)
	}

	var wg sync.WaitGroup
	if s.httpServer != nil {
		wg.Go(s.httpServer.RunServer)
	}
	if s.gRPCServer != nil {
		s.gRPCServer.setServing(true)
		wg.Go(s.gRPCServer.RunServer)
	}

	<-ctx.Done()
	s.Shutdown()
	wg.Wait()

	s.logger.Info().Msg("server Shutdown gracefully")
	return nil
}

func (s *server) Shutdown() {
	s.shutdownOnce.Do(func() {
		if s.httpServer != nil {
			s.httpServer.Shutdown()
		}
		if s.gRPCServer != nil {
			s.gRPCServer.Shutdown()
		}
	})
}
