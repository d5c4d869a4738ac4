package client

import (
	"context"
	"io"
	"sync"

	"pulse-lab/domain/poll"
	"pulse-lab/infrastructure/codec"
	pb "pulse-lab/proto/poll"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// PollClient speaks pulselab.v1.PollService with domain types.
type PollClient struct {
	conn   *grpc.ClientConn
	Client pb.PollServiceClient

	mu     sync.RWMutex
	tokens map[poll.SessionID]string
}

func Dial(target string, opts ...grpc.DialOption) (*PollClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &PollClient{conn: conn, Client: pb.NewPollServiceClient(conn), tokens: map[poll.SessionID]string{}}, nil
}

func (c *PollClient) Close() error {
	return c.conn.Close()
}

type TallyReply struct {
	Tally   poll.Tally
	Summary *poll.Summary
}

type SubmitReply struct {
	Result poll.SubmitResult
	Key    string
	Tally  poll.Tally
}

func (c *PollClient) CreateSession(ctx context.Context) (poll.Session, string, error) {
	resp, err := c.Client.CreateSession(ctx, &structpb.Struct{})
	if err != nil {
		return poll.Session{}, "", err
	}
	session := codec.SessionFromStruct(resp)
	if token := codec.String(resp, codec.FieldToken); token != "" {
		c.SetPresenterToken(session.ID, token)
	}
	return session, codec.String(resp, codec.FieldJoinURL), nil
}

// SetPresenterToken remembers the token sent with presenter calls on session.
// Sessions created through this client are remembered automatically.
func (c *PollClient) SetPresenterToken(session poll.SessionID, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[session] = token
}

func (c *PollClient) PresenterToken(session poll.SessionID) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens[session]
}

func (c *PollClient) presenter(ctx context.Context, session poll.SessionID) context.Context {
	if token := c.PresenterToken(session); token != "" {
		return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	return ctx
}

func (c *PollClient) EndSession(ctx context.Context, session poll.SessionID) error {
	_, err := c.Client.EndSession(c.presenter(ctx, session), request(session, "", ""))
	return err
}

func (c *PollClient) Publish(ctx context.Context, session poll.SessionID, prompt poll.Prompt, origin string) (poll.Prompt, bool, error) {
	value, err := codec.PromptToStruct(prompt)
	if err != nil {
		return nil, false, err
	}
	req := request(session, "", "")
	req.Fields[codec.FieldPrompt] = structpb.NewStructValue(value)
	req.Fields[codec.FieldOrigin] = structpb.NewStringValue(origin)

	resp, err := c.Client.Publish(c.presenter(ctx, session), req)
	if err != nil {
		return nil, false, err
	}
	stored, err := codec.PromptFromValue(resp.GetFields()[codec.FieldPrompt])
	return stored, codec.Bool(resp, codec.FieldPublished), err
}

func (c *PollClient) ActivePrompt(ctx context.Context, session poll.SessionID) (poll.Prompt, error) {
	resp, err := c.Client.GetActivePrompt(ctx, request(session, "", ""))
	if err != nil {
		return nil, err
	}
	return codec.PromptFromValue(resp.GetFields()[codec.FieldPrompt])
}

func (c *PollClient) Submit(ctx context.Context, session poll.SessionID, slide poll.SlideID,
	participant poll.ParticipantID, response poll.Response) (SubmitReply, error) {
	req := request(session, slide, participant)
	req.Fields[codec.FieldResponse] = structpb.NewStructValue(codec.ResponseToStruct(response))

	resp, err := c.Client.Submit(ctx, req)
	if err != nil {
		return SubmitReply{}, err
	}
	return SubmitReply{
		Result: poll.SubmitResult(codec.String(resp, codec.FieldResult)),
		Key:    codec.String(resp, codec.FieldKey),
		Tally:  codec.TallyFromStruct(codec.Struct(resp, codec.FieldTally)),
	}, nil
}

func (c *PollClient) Tally(ctx context.Context, session poll.SessionID, slide poll.SlideID) (TallyReply, error) {
	resp, err := c.Client.GetTally(ctx, request(session, slide, ""))
	if err != nil {
		return TallyReply{}, err
	}
	reply := TallyReply{Tally: codec.TallyFromStruct(codec.Struct(resp, codec.FieldTally))}
	if s := codec.Struct(resp, codec.FieldSummary); s != nil {
		summary := codec.SummaryFromStruct(s)
		reply.Summary = &summary
	}
	return reply, nil
}

func (c *PollClient) Mark(ctx context.Context, session poll.SessionID, slide poll.SlideID,
	participant poll.ParticipantID) (string, bool, error) {
	resp, err := c.Client.GetMark(ctx, request(session, slide, participant))
	if err != nil {
		return "", false, err
	}
	return codec.String(resp, codec.FieldKey), codec.Bool(resp, codec.FieldResponded), nil
}

// WatchPrompt delivers the active prompt (nil when none) until ctx ends or the
// stream breaks; the error channel receives the reason, io.EOF excluded.
func (c *PollClient) WatchPrompt(ctx context.Context, session poll.SessionID, owner string) (<-chan poll.Prompt, <-chan error, error) {
	stream, err := c.Client.WatchPrompt(ctx, request(session, "", poll.ParticipantID(owner)))
	if err != nil {
		return nil, nil, err
	}
	return receive(stream, func(msg *structpb.Struct) (poll.Prompt, error) {
		return codec.PromptFromValue(msg.GetFields()[codec.FieldPrompt])
	})
}

func (c *PollClient) WatchTally(ctx context.Context, session poll.SessionID, slide poll.SlideID, owner string) (<-chan poll.Tally, <-chan error, error) {
	stream, err := c.Client.WatchTally(ctx, request(session, slide, poll.ParticipantID(owner)))
	if err != nil {
		return nil, nil, err
	}
	return receive(stream, func(msg *structpb.Struct) (poll.Tally, error) {
		return codec.TallyFromStruct(codec.Struct(msg, codec.FieldTally)), nil
	})
}

func receive[T any](stream pb.PollService_WatchClient, decode func(*structpb.Struct) (T, error)) (<-chan T, <-chan error, error) {
	out := make(chan T)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for {
			msg, err := stream.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				errs <- err
				return
			}
			v, err := decode(msg)
			if err != nil {
				errs <- err
				return
			}
			select {
			case out <- v:
			case <-stream.Context().Done():
				return
			}
		}
	}()
	return out, errs, nil
}

func request(session poll.SessionID, slide poll.SlideID, participant poll.ParticipantID) *structpb.Struct {
	fields := map[string]*structpb.Value{codec.FieldSession: structpb.NewStringValue(string(session))}
	if slide != "" {
		fields[codec.FieldSlideID] = structpb.NewStringValue(string(slide))
	}
	if participant != "" {
		fields[codec.FieldParticipant] = structpb.NewStringValue(string(participant))
	}
	return codec.NewMessage(fields)
}
