package grpc

import (
	"context"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// StreamKeysServer is the ingest-facing API. Messages are protobuf
// well-known types, so no generated code is needed on either side:
// Authorize takes the stream key as a StringValue and answers with a Struct
// holding userId and streamId.
type StreamKeysServer interface {
	Authorize(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

var streamKeysServiceDesc = grpc.ServiceDesc{
	ServiceName: common.IngestServiceName,
	HandlerType: (*StreamKeysServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authorize", Handler: authorizeHandler},
		{MethodName: "Ping", Handler: pingHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func registerStreamKeysServer(s grpc.ServiceRegistrar, srv StreamKeysServer) {
	s.RegisterService(&streamKeysServiceDesc, srv)
}

func authorizeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StreamKeysServer).Authorize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: common.IngestAuthorizeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StreamKeysServer).Authorize(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StreamKeysServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: common.IngestPingMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StreamKeysServer).Ping(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
