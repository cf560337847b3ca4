// Package grpc serves the ingest-facing StreamKeys service that media
// servers call to check stream keys before accepting a publish.
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/streamkeeper/internal/logging"
	"github.com/dmitrijs2005/streamkeeper/internal/server/services"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address      string
	streams      *services.StreamService
	logger       logging.Logger
	ingestSecret string
}

func NewGRPCServer(a string, l logging.Logger, ss *services.StreamService, ingestSecret string) *GRPCServer {
	return &GRPCServer{
		address:      a,
		logger:       l.With("module", "grpc_server"),
		streams:      ss,
		ingestSecret: ingestSecret,
	}
}

// newServer builds a grpc.Server with the interceptors and service
// registered but not yet serving.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.ingestSecretInterceptor))
	registerStreamKeysServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}

	return nil
}
