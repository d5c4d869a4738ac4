package services

import (
	"context"
	"pulse-lab/contract"
	"pulse-lab/domain/event"
	"pulse-lab/domain/poll"
	"pulse-lab/sink"

	"github.com/google/uuid"
)

// watch emits read() once, then again after every change accepted by filter,
// until ctx is done. The subscription is registered before the first read so no
// change between the two is missed.
func watch[T any](ctx context.Context, notifier contract.ChangeNotifier, owner string,
	session poll.SessionID, bufferSize int, filter func(event.Change) bool,
	read func(context.Context) T) <-chan T {
	signals := sink.NewSignalSink(bufferSize, filter)
	sub := contract.Subscription{ID: uuid.NewString(), Owner: owner, Session: session, Sink: signals}
	notifier.Subscribe(sub)

	out := make(chan T, 1)
	go func() {
		defer close(out)
		defer notifier.Unsubscribe(sub.ID)

		emit := func() bool {
			v := read(ctx)
			select {
			case out <- v:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-signals.C:
				if !emit() {
					return
				}
			}
		}
	}()
	return out
}
