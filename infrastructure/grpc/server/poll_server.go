package server

import (
	"context"
	"log/slog"
	"pulse-lab/auth"
	"pulse-lab/domain/poll"
	"pulse-lab/errors"
	"pulse-lab/infrastructure/codec"
	pb "pulse-lab/proto/poll"
	"pulse-lab/services"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"
)

type PollServer struct {
	pb.UnimplementedPollServiceServer
	log     *slog.Logger
	service services.IPollService
	issuer  *auth.Issuer
}

func NewPollServer(log *slog.Logger, service services.IPollService) *PollServer {
	return &PollServer{log: log, service: service}
}

// WithPresenterAuth makes CreateSession hand out presenter tokens. The
// matching check lives in auth.PresenterInterceptor.
func (s *PollServer) WithPresenterAuth(issuer *auth.Issuer) *PollServer {
	s.issuer = issuer
	return s
}

func (s *PollServer) CreateSession(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	session, err := s.service.CreateSession(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	reply := codec.SessionToStruct(session, s.service.JoinURL(session.ID))
	if s.issuer != nil {
		token, err := s.issuer.Issue(session.ID)
		if err != nil {
			return nil, errors.MapToGRPCError(err)
		}
		reply.Fields[codec.FieldToken] = structpb.NewStringValue(token)
	}
	return reply, nil
}

func (s *PollServer) EndSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.service.EndSession(ctx, sessionOf(req)); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &structpb.Struct{}, nil
}

// Publish answers with the stored prompt so the presenter can render it without
// waiting for its own notification, which it never receives.
func (s *PollServer) Publish(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	prompt, err := codec.PromptFromStruct(codec.Struct(req, codec.FieldPrompt))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	stored, published, err := s.service.Publish(ctx, services.PublishCommand{
		Session: sessionOf(req),
		Prompt:  prompt,
		Origin:  codec.String(req, codec.FieldOrigin),
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	value, err := codec.PromptValue(stored)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return codec.NewMessage(map[string]*structpb.Value{
		codec.FieldPublished: structpb.NewBoolValue(published),
		codec.FieldPrompt:    value,
	}), nil
}

func (s *PollServer) GetActivePrompt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	prompt, err := s.service.ActivePrompt(ctx, sessionOf(req))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return promptMessage(prompt)
}

func (s *PollServer) Submit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	response, err := codec.ResponseFromStruct(codec.Struct(req, codec.FieldResponse))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	outcome, err := s.service.SubmitResponse(ctx, services.SubmitCommand{
		Session:     sessionOf(req),
		Slide:       slideOf(req),
		Participant: poll.ParticipantID(codec.String(req, codec.FieldParticipant)),
		Response:    response,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return codec.NewMessage(map[string]*structpb.Value{
		codec.FieldResult: structpb.NewStringValue(string(outcome.Result)),
		codec.FieldKey:    structpb.NewStringValue(outcome.Key),
		codec.FieldTally:  structpb.NewStructValue(codec.TallyToStruct(outcome.Tally)),
	}), nil
}

func (s *PollServer) GetTally(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tally, err := s.service.Tally(ctx, sessionOf(req), slideOf(req))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	fields := map[string]*structpb.Value{
		codec.FieldSlideID: structpb.NewStringValue(string(slideOf(req))),
		codec.FieldTally:   structpb.NewStructValue(codec.TallyToStruct(tally)),
		codec.FieldTotal:   structpb.NewNumberValue(float64(tally.Total())),
	}
	summary, err := s.service.Summary(ctx, sessionOf(req), slideOf(req))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	if summary != nil {
		fields[codec.FieldSummary] = structpb.NewStructValue(codec.SummaryToStruct(*summary))
	}
	return codec.NewMessage(fields), nil
}

func (s *PollServer) GetMark(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	key, found, err := s.service.HasResponded(ctx, sessionOf(req), slideOf(req),
		poll.ParticipantID(codec.String(req, codec.FieldParticipant)))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return codec.NewMessage(map[string]*structpb.Value{
		codec.FieldResponded: structpb.NewBoolValue(found),
		codec.FieldKey:       structpb.NewStringValue(key),
	}), nil
}

// WatchPrompt streams the active prompt until the client goes away. The caller
// identifies itself with participantId; a random owner is used otherwise.
func (s *PollServer) WatchPrompt(req *structpb.Struct, stream pb.PollService_WatchServer) error {
	ctx := stream.Context()
	owner := ownerOf(req)
	s.log.Debug("Prompt watcher connected", "session", sessionOf(req), "owner", owner)
	defer s.log.Debug("Prompt watcher disconnected", "session", sessionOf(req), "owner", owner)

	for update := range s.service.WatchPrompt(ctx, owner, sessionOf(req)) {
		msg, err := promptMessage(update.Prompt)
		if err != nil {
			return errors.MapToGRPCError(err)
		}
		if err := stream.Send(msg); err != nil {
			s.log.Warn("Failed to push prompt to stream", "session", sessionOf(req), "owner", owner, "error", err)
			return err
		}
	}
	return nil
}

func (s *PollServer) WatchTally(req *structpb.Struct, stream pb.PollService_WatchServer) error {
	ctx := stream.Context()
	owner := ownerOf(req)
	for update := range s.service.WatchTally(ctx, owner, sessionOf(req), slideOf(req)) {
		msg := codec.NewMessage(map[string]*structpb.Value{
			codec.FieldSlideID: structpb.NewStringValue(string(update.Slide)),
			codec.FieldTally:   structpb.NewStructValue(codec.TallyToStruct(update.Tally)),
			codec.FieldTotal:   structpb.NewNumberValue(float64(update.Tally.Total())),
		})
		if err := stream.Send(msg); err != nil {
			s.log.Warn("Failed to push tally to stream", "session", sessionOf(req), "owner", owner, "error", err)
			return err
		}
	}
	return nil
}

func promptMessage(prompt poll.Prompt) (*structpb.Struct, error) {
	value, err := codec.PromptValue(prompt)
	if err != nil {
		return nil, err
	}
	return codec.NewMessage(map[string]*structpb.Value{codec.FieldPrompt: value}), nil
}

func sessionOf(req *structpb.Struct) poll.SessionID {
	return poll.ParseSessionID(codec.String(req, codec.FieldSession))
}

func slideOf(req *structpb.Struct) poll.SlideID {
	return poll.SlideID(codec.String(req, codec.FieldSlideID))
}

func ownerOf(req *structpb.Struct) string {
	if owner := codec.String(req, codec.FieldParticipant); owner != "" {
		return owner
	}
	return uuid.NewString()
}
