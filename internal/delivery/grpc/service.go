package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName      = "vietqr.v1.PayloadService"
	IssueFullMethod  = "/" + ServiceName + "/Issue"
	GetFullMethod    = "/" + ServiceName + "/Get"
	payloadProtoFile = "vietqr/v1/payload.proto"
)

// PayloadServer exchanges google.protobuf.Struct messages so that the
// service needs no generated stubs.
type PayloadServer interface {
	Issue(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Get(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var PayloadServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PayloadServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Issue", Handler: issueHandler},
		{MethodName: "Get", Handler: getHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: payloadProtoFile,
}

func RegisterPayloadServer(s grpc.ServiceRegistrar, srv PayloadServer) {
	s.RegisterService(&PayloadServiceDesc, srv)
}

func issueHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PayloadServer).Issue(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: IssueFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PayloadServer).Issue(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PayloadServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PayloadServer).Get(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
