package grpc

import (
	"context"
	"crypto/subtle"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"github.com/dmitrijs2005/streamkeeper/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ingestSecretInterceptor guards Authorize with the shared ingest secret
// when one is configured. Ping stays open.
func (s *GRPCServer) ingestSecretInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ctx = logging.WithFields(ctx, "rpc", info.FullMethod)

	if info.FullMethod == common.IngestAuthorizeMethod && s.ingestSecret != "" {

		var secret string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.IngestSecretHeaderName)
			if len(values) > 0 {
				secret = values[0]
			}
		}
		if len(secret) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing ingest secret")
		}

		if subtle.ConstantTimeCompare([]byte(secret), []byte(s.ingestSecret)) != 1 {
			return nil, status.Error(codes.PermissionDenied, common.ErrIngestForbidden.Msg)
		}

	}

	return handler(ctx, req)
}
