// Package poll describes the pulselab.v1.PollService gRPC service.
// Every message is a google.protobuf.Struct, so the descriptor is written by hand
// in the shape protoc-gen-go-grpc would produce.
package poll

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "pulselab.v1.PollService"

const (
	PollService_CreateSession_FullMethodName   = "/" + ServiceName + "/CreateSession"
	PollService_EndSession_FullMethodName      = "/" + ServiceName + "/EndSession"
	PollService_Publish_FullMethodName         = "/" + ServiceName + "/Publish"
	PollService_GetActivePrompt_FullMethodName = "/" + ServiceName + "/GetActivePrompt"
	PollService_Submit_FullMethodName          = "/" + ServiceName + "/Submit"
	PollService_GetTally_FullMethodName        = "/" + ServiceName + "/GetTally"
	PollService_GetMark_FullMethodName         = "/" + ServiceName + "/GetMark"
	PollService_WatchPrompt_FullMethodName     = "/" + ServiceName + "/WatchPrompt"
	PollService_WatchTally_FullMethodName      = "/" + ServiceName + "/WatchTally"
)

type PollService_WatchServer = grpc.ServerStreamingServer[structpb.Struct]

type PollService_WatchClient = grpc.ServerStreamingClient[structpb.Struct]

type PollServiceServer interface {
	CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EndSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Publish(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetActivePrompt(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Submit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTally(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMark(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchPrompt(*structpb.Struct, PollService_WatchServer) error
	WatchTally(*structpb.Struct, PollService_WatchServer) error
}

// UnimplementedPollServiceServer must be embedded to have forward compatible implementations.
type UnimplementedPollServiceServer struct{}

func (UnimplementedPollServiceServer) CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateSession not implemented")
}
func (UnimplementedPollServiceServer) EndSession(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method EndSession not implemented")
}
func (UnimplementedPollServiceServer) Publish(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Publish not implemented")
}
func (UnimplementedPollServiceServer) GetActivePrompt(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetActivePrompt not implemented")
}
func (UnimplementedPollServiceServer) Submit(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Submit not implemented")
}
func (UnimplementedPollServiceServer) GetTally(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetTally not implemented")
}
func (UnimplementedPollServiceServer) GetMark(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMark not implemented")
}
func (UnimplementedPollServiceServer) WatchPrompt(*structpb.Struct, PollService_WatchServer) error {
	return status.Error(codes.Unimplemented, "method WatchPrompt not implemented")
}
func (UnimplementedPollServiceServer) WatchTally(*structpb.Struct, PollService_WatchServer) error {
	return status.Error(codes.Unimplemented, "method WatchTally not implemented")
}

func RegisterPollServiceServer(s grpc.ServiceRegistrar, srv PollServiceServer) {
	s.RegisterService(&PollService_ServiceDesc, srv)
}

type unaryMethod func(PollServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PollServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PollServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type streamMethod func(PollServiceServer, *structpb.Struct, PollService_WatchServer) error

func streamHandler(call streamMethod) grpc.StreamHandler {
	return func(srv any, stream grpc.ServerStream) error {
		in := new(structpb.Struct)
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		return call(srv.(PollServiceServer), in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
	}
}

var PollService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PollServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateSession", Handler: unaryHandler(PollService_CreateSession_FullMethodName, PollServiceServer.CreateSession)},
		{MethodName: "EndSession", Handler: unaryHandler(PollService_EndSession_FullMethodName, PollServiceServer.EndSession)},
		{MethodName: "Publish", Handler: unaryHandler(PollService_Publish_FullMethodName, PollServiceServer.Publish)},
		{MethodName: "GetActivePrompt", Handler: unaryHandler(PollService_GetActivePrompt_FullMethodName, PollServiceServer.GetActivePrompt)},
		{MethodName: "Submit", Handler: unaryHandler(PollService_Submit_FullMethodName, PollServiceServer.Submit)},
		{MethodName: "GetTally", Handler: unaryHandler(PollService_GetTally_FullMethodName, PollServiceServer.GetTally)},
		{MethodName: "GetMark", Handler: unaryHandler(PollService_GetMark_FullMethodName, PollServiceServer.GetMark)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchPrompt", Handler: streamHandler(PollServiceServer.WatchPrompt), ServerStreams: true},
		{StreamName: "WatchTally", Handler: streamHandler(PollServiceServer.WatchTally), ServerStreams: true},
	},
	Metadata: "pulselab/v1/poll.proto",
}

type PollServiceClient interface {
	CreateSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	EndSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Publish(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetActivePrompt(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Submit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetTally(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetMark(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	WatchPrompt(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (PollService_WatchClient, error)
	WatchTally(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (PollService_WatchClient, error)
}

type pollServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPollServiceClient(cc grpc.ClientConnInterface) PollServiceClient {
	return &pollServiceClient{cc}
}

func (c *pollServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pollServiceClient) watch(ctx context.Context, desc *grpc.StreamDesc, method string, in *structpb.Struct, opts []grpc.CallOption) (PollService_WatchClient, error) {
	stream, err := c.cc.NewStream(ctx, desc, method, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *pollServiceClient) CreateSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PollService_CreateSession_FullMethodName, in, opts)
}

func (c *pollServiceClient) EndSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PollService_EndSession_FullMethodName, in, opts)
}

func (c *pollServiceClient) Publish(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PollService_Publish_FullMethodName, in, opts)
}

func (c *pollServiceClient) GetActivePrompt(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PollService_GetActivePrompt_FullMethodName, in, opts)
}

func (c *pollServiceClient) Submit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PollService_Submit_FullMethodName, in, opts)
}

func (c *pollServiceClient) GetTally(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PollService_GetTally_FullMethodName, in, opts)
}

func (c *pollServiceClient) GetMark(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PollService_GetMark_FullMethodName, in, opts)
}

func (c *pollServiceClient) WatchPrompt(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (PollService_WatchClient, error) {
	return c.watch(ctx, &PollService_ServiceDesc.Streams[0], PollService_WatchPrompt_FullMethodName, in, opts)
}

func (c *pollServiceClient) WatchTally(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (PollService_WatchClient, error) {
	return c.watch(ctx, &PollService_ServiceDesc.Streams[1], PollService_WatchTally_FullMethodName, in, opts)
}
