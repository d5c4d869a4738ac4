package e2e

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"pulse-lab/domain/poll"
	"pulse-lab/infrastructure/grpc/client"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// BaseGrpcSuite runs scenarios against the server at PULSE_ADDR. Presenter
// tokens handed out on session creation are shared by every client it dials.
type BaseGrpcSuite struct {
	suite.Suite
	Config Config

	mu     sync.Mutex
	tokens map[poll.SessionID]string
}

func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.PulseAddr == "" {
		s.T().Skip("PULSE_ADDR not set, skipping end to end scenarios")
	}
	s.tokens = map[poll.SessionID]string{}
}

// KeepToken remembers the presenter token c received for session, if any.
func (s *BaseGrpcSuite) KeepToken(c *client.PollClient, session poll.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token := c.PresenterToken(session); token != "" {
		s.tokens[session] = token
	}
}

// Dial opens a poll client logging each unary call under a step header.
func (s *BaseGrpcSuite) Dial(t *testing.T, name string) *client.PollClient {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	c, err := client.Dial(s.Config.PulseAddr, grpc.WithUnaryInterceptor(s.callLogger(t)))
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.PulseAddr)

	s.mu.Lock()
	defer s.mu.Unlock()
	for session, token := range s.tokens {
		c.SetPresenterToken(session, token)
	}
	return c
}

// callLogger prints method, status and latency; E2E_DEBUG_JSON adds both bodies.
func (s *BaseGrpcSuite) callLogger(t *testing.T) grpc.UnaryClientInterceptor {
	dump := protojson.MarshalOptions{Multiline: true, EmitUnpopulated: true}
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)

		var line strings.Builder
		fmt.Fprintf(&line, "%s [%s] in %v", method[strings.LastIndex(method, "/")+1:], status.Code(err), time.Since(start))
		if s.Config.DebugJSON {
			fmt.Fprintf(&line, "\n> %s", dump.Format(req.(proto.Message)))
			if err == nil {
				fmt.Fprintf(&line, "\n< %s", dump.Format(reply.(proto.Message)))
			}
		}
		t.Log(line.String())
		return err
	}
}

// WithPoll runs one scenario step with its own client and deadline.
func (s *BaseGrpcSuite) WithPoll(name string, fn func(ctx context.Context, c *client.PollClient)) {
	c := s.Dial(s.T(), name)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.Config.StepTimeout)
	defer cancel()

	fn(ctx, c)
}
