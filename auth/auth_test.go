package auth

import (
	"context"
	"pulse-lab/errors"
	"pulse-lab/infrastructure/codec"
	pb "pulse-lab/proto/poll"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const secret = "a-presenter-secret-for-tests"

func newIssuer(t *testing.T, ttl time.Duration) *Issuer {
	issuer, err := NewIssuer(secret, ttl)
	require.NoError(t, err)
	return issuer
}

func TestIssuer_RoundTrip(t *testing.T) {
	req := require.New(t)
	issuer := newIssuer(t, time.Hour)

	// Given a token issued for a session
	token, err := issuer.Issue("AB12X9")
	req.NoError(err)

	// Then it opens that session, case-insensitively, and no other
	req.NoError(issuer.Verify(token, "AB12X9"))
	req.NoError(issuer.Verify(token, "ab12x9"))
	req.ErrorIs(issuer.Verify(token, "ZZ99ZZ"), errors.ErrUnauthorized)
}

func TestIssuer_Rejects(t *testing.T) {
	req := require.New(t)
	issuer := newIssuer(t, time.Hour)
	other, err := NewIssuer("another-secret-of-16-bytes", time.Hour)
	req.NoError(err)
	foreign, err := other.Issue("AB12X9")
	req.NoError(err)
	expired, err := newIssuer(t, time.Nanosecond).Issue("AB12X9")
	req.NoError(err)
	time.Sleep(time.Second)

	req.ErrorIs(issuer.Verify("", "AB12X9"), errors.ErrUnauthorized)
	req.ErrorIs(issuer.Verify("not-a-jwt", "AB12X9"), errors.ErrUnauthorized)
	req.ErrorIs(issuer.Verify(foreign, "AB12X9"), errors.ErrUnauthorized)
	req.ErrorIs(issuer.Verify(expired, "AB12X9"), errors.ErrUnauthorized)
}

func TestNewIssuer_Validation(t *testing.T) {
	req := require.New(t)

	_, err := NewIssuer("short", time.Hour)
	req.Error(err)
	_, err = NewIssuer(secret, 0)
	req.Error(err)
}

func TestBearerToken(t *testing.T) {
	req := require.New(t)

	req.Equal("abc", BearerToken("Bearer abc"))
	req.Equal("", BearerToken("abc"))
	req.Equal("", BearerToken(""))
}

func TestPresenterInterceptor(t *testing.T) {
	issuer := newIssuer(t, time.Hour)
	token, err := issuer.Issue("AB12X9")
	require.NoError(t, err)

	handler := func(ctx context.Context, req any) (any, error) { return "ok", nil }
	request := codec.NewMessage(map[string]*structpb.Value{codec.FieldSession: structpb.NewStringValue("AB12X9")})
	publish := &grpc.UnaryServerInfo{FullMethod: pb.PollService_Publish_FullMethodName}
	submit := &grpc.UnaryServerInfo{FullMethod: pb.PollService_Submit_FullMethodName}
	withToken := func(token string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
	}

	t.Run("participant methods need no token", func(t *testing.T) {
		req := require.New(t)
		res, err := PresenterInterceptor(issuer)(context.Background(), request, submit, handler)
		req.NoError(err)
		req.Equal("ok", res)
	})

	t.Run("presenter methods without token are unauthenticated", func(t *testing.T) {
		req := require.New(t)
		_, err := PresenterInterceptor(issuer)(context.Background(), request, publish, handler)
		req.Equal(codes.Unauthenticated, status.Code(err))
	})

	t.Run("presenter methods with the session token pass", func(t *testing.T) {
		req := require.New(t)
		res, err := PresenterInterceptor(issuer)(withToken(token), request, publish, handler)
		req.NoError(err)
		req.Equal("ok", res)
	})

	t.Run("a token for another session is refused", func(t *testing.T) {
		req := require.New(t)
		other, err := issuer.Issue("ZZ99ZZ")
		req.NoError(err)
		_, err = PresenterInterceptor(issuer)(withToken(other), request, publish, handler)
		req.Equal(codes.Unauthenticated, status.Code(err))
	})

	t.Run("no issuer disables the check", func(t *testing.T) {
		req := require.New(t)
		res, err := PresenterInterceptor(nil)(context.Background(), request, publish, handler)
		req.NoError(err)
		req.Equal("ok", res)
	})
}
