package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/streamkeeper/internal/client/models"
	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GRPCClient calls the ingest StreamKeys service.
type GRPCClient struct {
	endpointURL  string
	conn         *grpc.ClientConn
	ingestSecret string
}

func withIngestSecret(ctx context.Context, secret string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.IngestSecretHeaderName, secret)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) ingestSecretInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if s.ingestSecret != "" {
		ctx = withIngestSecret(ctx, s.ingestSecret)
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewGRPCClient(endpointURL, ingestSecret string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, ingestSecret: ingestSecret}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.ingestSecretInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (s *GRPCClient) Authorize(ctx context.Context, streamKey string) (*models.IngestGrant, error) {

	out := new(structpb.Struct)
	if err := s.conn.Invoke(ctx, common.IngestAuthorizeMethod, wrapperspb.String(streamKey), out); err != nil {
		return nil, s.mapError(err)
	}

	fields := out.GetFields()
	return &models.IngestGrant{
		UserID:   fields["userId"].GetStringValue(),
		StreamID: fields["streamId"].GetStringValue(),
	}, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	out := new(wrapperspb.StringValue)
	if err := s.conn.Invoke(ctx, common.IngestPingMethod, &emptypb.Empty{}, out); err != nil {
		return s.mapError(err)
	}

	if out.GetValue() != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
