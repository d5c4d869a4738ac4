package services

import (
	"context"
	"log/slog"
	"pulse-lab/contract"
	"pulse-lab/domain/event"
	"pulse-lab/domain/poll"
	"pulse-lab/observability"
)

type SubmitCommand struct {
	Session     poll.SessionID
	Slide       poll.SlideID
	Participant poll.ParticipantID
	Response    poll.Response
}

// TallyUpdate carries the counters of the watched slide.
type TallyUpdate struct {
	Slide poll.SlideID
	Tally poll.Tally
}

// Aggregator counts responses per slide. The guard and the counter are updated in
// the same storage transaction, so the tally always equals the number of marks.
type Aggregator struct {
	log                *slog.Logger
	tallies            contract.ITallyRepository
	notifier           contract.ChangeNotifier
	monitor            *observability.Monitor
	subscriptionBuffer int
}

func NewAggregator(log *slog.Logger, tallies contract.ITallyRepository, notifier contract.ChangeNotifier,
	monitor *observability.Monitor, subscriptionBuffer int) *Aggregator {
	return &Aggregator{
		log:                log,
		tallies:            tallies,
		notifier:           notifier,
		monitor:            monitor,
		subscriptionBuffer: subscriptionBuffer,
	}
}

// Submit counts the response under its key. The response is assumed valid for the
// slide; a second response of the same participant is ignored.
func (a *Aggregator) Submit(ctx context.Context, cmd SubmitCommand) (poll.SubmitResult, error) {
	result, err := a.tallies.Submit(ctx, cmd.Session, cmd.Slide, cmd.Participant, cmd.Response.Key())
	if err != nil {
		return poll.Ignored, err
	}
	if result != poll.Accepted {
		a.monitor.ResponseIgnored()
		a.log.Debug("Response ignored", "session", cmd.Session, "slide", cmd.Slide, "participant", cmd.Participant)
		return result, nil
	}
	a.monitor.ResponseAccepted()
	a.notifier.Notify(ctx, event.NewChange(event.TallyChanged, cmd.Session, cmd.Slide, string(cmd.Participant)))
	return result, nil
}

func (a *Aggregator) Tally(ctx context.Context, session poll.SessionID, slide poll.SlideID) (poll.Tally, error) {
	if poll.ValidateIdentifier(string(session)) != nil || poll.ValidateIdentifier(string(slide)) != nil {
		return poll.Tally{}, nil
	}
	return a.tallies.Tally(ctx, session, slide)
}

// HasResponded returns the key the participant committed on the slide, if any.
func (a *Aggregator) HasResponded(ctx context.Context, session poll.SessionID, slide poll.SlideID,
	participant poll.ParticipantID) (string, bool, error) {
	if poll.ValidateIdentifier(string(session)) != nil || poll.ValidateIdentifier(string(slide)) != nil ||
		poll.ValidateIdentifier(string(participant)) != nil {
		return "", false, nil
	}
	return a.tallies.Mark(ctx, session, slide, participant)
}

// Watch streams the tally of a slide: the current counters first, then fresh ones
// after every accepted response from another context.
func (a *Aggregator) Watch(ctx context.Context, owner string, session poll.SessionID, slide poll.SlideID) <-chan TallyUpdate {
	filter := func(c event.Change) bool { return c.Concerns(slide) }
	return watch(ctx, a.notifier, owner, session, a.subscriptionBuffer, filter,
		func(ctx context.Context) TallyUpdate {
			tally, err := a.Tally(ctx, session, slide)
			if err != nil {
				a.log.Warn("Tally read failed, reporting empty", "session", session, "slide", slide, "error", err)
				tally = poll.Tally{}
			}
			return TallyUpdate{Slide: slide, Tally: tally}
		})
}
