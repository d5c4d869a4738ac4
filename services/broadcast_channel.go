package services

import (
	"context"
	"log/slog"
	"pulse-lab/contract"
	"pulse-lab/domain/event"
	"pulse-lab/domain/poll"
	"pulse-lab/observability"
	"strings"
)

type PublishCommand struct {
	Session poll.SessionID
	Prompt  poll.Prompt
	// Origin is the publishing context; it applies the returned prompt itself.
	Origin string
}

// PromptUpdate carries the active prompt; a nil Prompt means none is active.
type PromptUpdate struct {
	Prompt poll.Prompt
}

// BroadcastChannel holds the single active prompt of each session.
type BroadcastChannel struct {
	log                *slog.Logger
	prompts            contract.IPromptRepository
	notifier           contract.ChangeNotifier
	monitor            *observability.Monitor
	maxOptions         int
	subscriptionBuffer int
}

func NewBroadcastChannel(log *slog.Logger, prompts contract.IPromptRepository, notifier contract.ChangeNotifier,
	monitor *observability.Monitor, maxOptions, subscriptionBuffer int) *BroadcastChannel {
	return &BroadcastChannel{
		log:                log,
		prompts:            prompts,
		notifier:           notifier,
		monitor:            monitor,
		maxOptions:         maxOptions,
		subscriptionBuffer: subscriptionBuffer,
	}
}

// Publish validates and stores the prompt as the session's active one.
// It returns the stored prompt so the publisher can show it without waiting for a
// notification, and false when the session does not exist.
func (b *BroadcastChannel) Publish(ctx context.Context, cmd PublishCommand) (poll.Prompt, bool, error) {
	prompt := normalize(cmd.Prompt)
	if err := poll.ValidatePrompt(prompt, b.maxOptions); err != nil {
		return nil, false, err
	}

	published, err := b.prompts.Publish(ctx, cmd.Session, prompt)
	if err != nil {
		b.log.Warn("Prompt not published", "session", cmd.Session, "slide", prompt.Slide(), "error", err)
		return nil, false, err
	}
	if !published {
		b.log.Debug("Publish on a missing session", "session", cmd.Session)
		return prompt, false, nil
	}

	b.monitor.Published(string(cmd.Session), string(prompt.Slide()), string(prompt.Kind()))
	b.notifier.Notify(ctx, event.NewChange(event.PromptChanged, cmd.Session, prompt.Slide(), cmd.Origin))
	b.log.Debug("Prompt published", "session", cmd.Session, "slide", prompt.Slide(), "kind", prompt.Kind())
	return prompt, true, nil
}

// ActivePrompt never fails on a missing session or record: both read as nil.
func (b *BroadcastChannel) ActivePrompt(ctx context.Context, session poll.SessionID) (poll.Prompt, error) {
	if poll.ValidateIdentifier(string(session)) != nil {
		return nil, nil
	}
	return b.prompts.Active(ctx, session)
}

// ForSlide returns the prompt last published for the slide, active or not.
func (b *BroadcastChannel) ForSlide(ctx context.Context, session poll.SessionID, slide poll.SlideID) (poll.Prompt, error) {
	if poll.ValidateIdentifier(string(session)) != nil || poll.ValidateIdentifier(string(slide)) != nil {
		return nil, nil
	}
	return b.prompts.ForSlide(ctx, session, slide)
}

// Subscribe streams the active prompt: the current value first, then a fresh
// value after every change made by another context. The channel closes with ctx.
func (b *BroadcastChannel) Subscribe(ctx context.Context, owner string, session poll.SessionID) <-chan PromptUpdate {
	filter := func(c event.Change) bool { return c.Concerns("") }
	return watch(ctx, b.notifier, owner, session, b.subscriptionBuffer, filter,
		func(ctx context.Context) PromptUpdate {
			prompt, err := b.ActivePrompt(ctx, session)
			if err != nil {
				b.log.Warn("Prompt read failed, reporting none", "session", session, "error", err)
				return PromptUpdate{}
			}
			return PromptUpdate{Prompt: prompt}
		})
}

func normalize(p poll.Prompt) poll.Prompt {
	switch v := p.(type) {
	case poll.MultipleChoice:
		return v.WithDefaultLabels()
	case poll.WordCloud:
		v.Question = strings.TrimSpace(v.Question)
		return v
	default:
		return p
	}
}
