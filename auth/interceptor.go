package auth

import (
	"context"
	"pulse-lab/domain/poll"
	"pulse-lab/errors"
	"pulse-lab/infrastructure/codec"
	pb "pulse-lab/proto/poll"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Methods that change what the audience sees require the presenter token.
var presenterMethods = map[string]struct{}{
	pb.PollService_Publish_FullMethodName:    {},
	pb.PollService_EndSession_FullMethodName: {},
}

// PresenterInterceptor checks the bearer token of presenter calls against the
// session named in the request. A nil issuer lets every call through.
func PresenterInterceptor(issuer *Issuer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if issuer == nil || !isPresenterMethod(info.FullMethod) {
			return handler(ctx, req)
		}

		var token string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				token = BearerToken(values[0])
			}
		}
		msg, _ := req.(*structpb.Struct)
		session := poll.ParseSessionID(codec.String(msg, codec.FieldSession))
		if err := issuer.Verify(token, session); err != nil {
			return nil, errors.MapToGRPCError(err)
		}
		return handler(ctx, req)
	}
}

func isPresenterMethod(method string) bool {
	_, ok := presenterMethods[method]
	return ok
}
