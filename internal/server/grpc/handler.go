package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/streamkeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Authorize(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	grant, err := s.streams.AuthorizeKey(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, common.ErrStreamKeyRejected) {
			return nil, status.Error(codes.PermissionDenied, common.ErrStreamKeyRejected.Msg)
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	resp, err := structpb.NewStruct(map[string]any{
		"userId":   grant.UserID,
		"streamId": grant.StreamID,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	return resp, nil

}

func (s *GRPCServer) Ping(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error) {

	return wrapperspb.String("OK"), nil

}
