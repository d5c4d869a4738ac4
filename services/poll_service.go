package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"pulse-lab/domain/poll"
	"pulse-lab/errors"
	"pulse-lab/moderation"
	"pulse-lab/observability"
	"strings"
)

type IPollService interface {
	CreateSession(ctx context.Context) (poll.Session, error)
	EndSession(ctx context.Context, id poll.SessionID) error
	Publish(ctx context.Context, cmd PublishCommand) (poll.Prompt, bool, error)
	ActivePrompt(ctx context.Context, session poll.SessionID) (poll.Prompt, error)
	SubmitResponse(ctx context.Context, cmd SubmitCommand) (SubmitOutcome, error)
	Tally(ctx context.Context, session poll.SessionID, slide poll.SlideID) (poll.Tally, error)
	Summary(ctx context.Context, session poll.SessionID, slide poll.SlideID) (*poll.Summary, error)
	HasResponded(ctx context.Context, session poll.SessionID, slide poll.SlideID, participant poll.ParticipantID) (string, bool, error)
	WatchPrompt(ctx context.Context, owner string, session poll.SessionID) <-chan PromptUpdate
	WatchTally(ctx context.Context, owner string, session poll.SessionID, slide poll.SlideID) <-chan TallyUpdate
	JoinURL(session poll.SessionID) string
}

// SubmitOutcome is what the participant gets back: the result, the key actually
// counted (after moderation) and the tally as seen right after the write.
type SubmitOutcome struct {
	Result poll.SubmitResult
	Key    string
	Tally  poll.Tally
}

type PollService struct {
	log           *slog.Logger
	sessions      *SessionRegistry
	channel       *BroadcastChannel
	aggregator    *Aggregator
	moderator     *moderation.Moderator
	maxWordLength int
	publicURL     string
}

func NewPollService(log *slog.Logger, sessions *SessionRegistry, channel *BroadcastChannel, aggregator *Aggregator,
	moderator *moderation.Moderator, maxWordLength int, publicURL string) *PollService {
	return &PollService{
		log:           log,
		sessions:      sessions,
		channel:       channel,
		aggregator:    aggregator,
		moderator:     moderator,
		maxWordLength: maxWordLength,
		publicURL:     strings.TrimRight(publicURL, "/"),
	}
}

func (s *PollService) CreateSession(ctx context.Context) (poll.Session, error) {
	return s.sessions.CreateSession(ctx)
}

func (s *PollService) EndSession(ctx context.Context, id poll.SessionID) error {
	if err := s.sessions.EndSession(ctx, id); err != nil {
		return err
	}
	observability.SessionsEnded.WithLabelValues("presenter").Inc()
	return nil
}

func (s *PollService) Publish(ctx context.Context, cmd PublishCommand) (poll.Prompt, bool, error) {
	if err := poll.ValidateIdentifier(string(cmd.Session)); err != nil {
		return nil, false, err
	}
	return s.channel.Publish(ctx, cmd)
}

func (s *PollService) ActivePrompt(ctx context.Context, session poll.SessionID) (poll.Prompt, error) {
	return s.channel.ActivePrompt(ctx, session)
}

// SubmitResponse validates the response against the active prompt before counting
// it. A missing session, an inactive slide or a repeated response is Ignored.
func (s *PollService) SubmitResponse(ctx context.Context, cmd SubmitCommand) (SubmitOutcome, error) {
	if poll.ValidateIdentifier(string(cmd.Session)) != nil {
		s.aggregator.monitor.ResponseIgnored()
		s.log.Debug("Response without a usable session", "session", cmd.Session)
		return SubmitOutcome{Result: poll.Ignored}, nil
	}
	for _, id := range []string{string(cmd.Slide), string(cmd.Participant)} {
		if err := poll.ValidateIdentifier(id); err != nil {
			return SubmitOutcome{}, err
		}
	}
	if cmd.Response == nil {
		return SubmitOutcome{}, fmt.Errorf("%w: empty response", errors.ErrInvalidResponse)
	}

	prompt, err := s.channel.ActivePrompt(ctx, cmd.Session)
	if err != nil {
		return SubmitOutcome{}, err
	}
	if prompt == nil || prompt.Slide() != cmd.Slide {
		s.aggregator.monitor.ResponseIgnored()
		s.log.Debug("Response for an inactive slide", "session", cmd.Session, "slide", cmd.Slide)
		return SubmitOutcome{Result: poll.Ignored}, nil
	}
	if err := poll.CheckResponse(prompt, cmd.Response, s.maxWordLength); err != nil {
		return SubmitOutcome{}, err
	}

	if word, ok := cmd.Response.(poll.WordResponse); ok {
		censored, matches := s.moderator.Censor(word.Key())
		if len(matches) > 0 {
			s.log.Debug("Word moderated", "session", cmd.Session, "slide", cmd.Slide, "matches", matches)
		}
		cmd.Response = poll.WordResponse{Word: censored}
	}

	result, err := s.aggregator.Submit(ctx, cmd)
	if err != nil {
		return SubmitOutcome{}, err
	}
	tally, err := s.aggregator.Tally(ctx, cmd.Session, cmd.Slide)
	if err != nil {
		// The response is counted; the local view just stays stale until the next change.
		s.log.Warn("Tally read after submit failed", "session", cmd.Session, "slide", cmd.Slide, "error", err)
	}
	return SubmitOutcome{Result: result, Key: cmd.Response.Key(), Tally: tally}, nil
}

func (s *PollService) Tally(ctx context.Context, session poll.SessionID, slide poll.SlideID) (poll.Tally, error) {
	return s.aggregator.Tally(ctx, session, slide)
}

// Summary renders the tally of a slide against the prompt published for it.
// It returns nil when the slide was never published in the session.
func (s *PollService) Summary(ctx context.Context, session poll.SessionID, slide poll.SlideID) (*poll.Summary, error) {
	prompt, err := s.channel.ForSlide(ctx, session, slide)
	if err != nil || prompt == nil {
		return nil, err
	}
	tally, err := s.aggregator.Tally(ctx, session, slide)
	if err != nil {
		return nil, err
	}
	summary := poll.Summarize(prompt, tally)
	return &summary, nil
}

func (s *PollService) HasResponded(ctx context.Context, session poll.SessionID, slide poll.SlideID,
	participant poll.ParticipantID) (string, bool, error) {
	return s.aggregator.HasResponded(ctx, session, slide, participant)
}

func (s *PollService) WatchPrompt(ctx context.Context, owner string, session poll.SessionID) <-chan PromptUpdate {
	return s.channel.Subscribe(ctx, owner, session)
}

func (s *PollService) WatchTally(ctx context.Context, owner string, session poll.SessionID, slide poll.SlideID) <-chan TallyUpdate {
	return s.aggregator.Watch(ctx, owner, session, slide)
}

// JoinURL is the link participants open, usually through the QR code.
func (s *PollService) JoinURL(session poll.SessionID) string {
	return fmt.Sprintf("%s/join/%s", s.publicURL, url.PathEscape(string(session)))
}
