//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"pulse-lab/domain/event"
	"pulse-lab/domain/poll"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, c event.Change) error
}

// Subscription binds a sink to the changes of one session.
// Owner is the context on whose behalf the sink listens.
type Subscription struct {
	ID      string
	Owner   string
	Session poll.SessionID
	Sink    EventSink
}

type IRegistry interface {
	GetSinksForSession(sessionID poll.SessionID, except string) []EventSink
	Subscribe(sub Subscription)
	Unsubscribe(subscriptionID string)
}

// ChangeNotifier carries change signals between contexts. Delivery is best effort,
// eventually consistent and approximately ordered by write.
type ChangeNotifier interface {
	Notify(ctx context.Context, c event.Change)
	Subscribe(sub Subscription)
	Unsubscribe(subscriptionID string)
}

type ISessionRegistry interface {
	CreateSession(ctx context.Context) (poll.Session, error)
	EndSession(ctx context.Context, id poll.SessionID) error
	Exists(ctx context.Context, id poll.SessionID) (bool, error)
	List(ctx context.Context) ([]poll.Session, error)
}

type ISessionRepository interface {
	Create(ctx context.Context, session poll.Session) (bool, error)
	Get(ctx context.Context, id poll.SessionID) (*poll.Session, error)
	List(ctx context.Context) ([]poll.Session, error)
	Delete(ctx context.Context, id poll.SessionID) error
}

type IPromptRepository interface {
	Publish(ctx context.Context, sessionID poll.SessionID, prompt poll.Prompt) (bool, error)
	Active(ctx context.Context, sessionID poll.SessionID) (poll.Prompt, error)
	ForSlide(ctx context.Context, sessionID poll.SessionID, slideID poll.SlideID) (poll.Prompt, error)
}

type ITallyRepository interface {
	Submit(ctx context.Context, sessionID poll.SessionID, slideID poll.SlideID,
		participantID poll.ParticipantID, key string) (poll.SubmitResult, error)
	Tally(ctx context.Context, sessionID poll.SessionID, slideID poll.SlideID) (poll.Tally, error)
	Mark(ctx context.Context, sessionID poll.SessionID, slideID poll.SlideID,
		participantID poll.ParticipantID) (string, bool, error)
}

type IOrchestrator interface {
	Notifier() ChangeNotifier
	Start(ctx context.Context) error
	Stop()
}
