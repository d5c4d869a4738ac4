package runtime

import (
	"pulse-lab/contract"
	"pulse-lab/domain/poll"
	"sync"
)

type Set map[string]struct{}

type Registry struct {
	mu             sync.RWMutex
	Subscriptions  map[string]contract.Subscription // map subscription -> Sink and owner
	SessionMembers map[poll.SessionID]Set           // map session to subscriptions
}

func NewRegistry() *Registry {
	return &Registry{
		Subscriptions:  make(map[string]contract.Subscription),
		SessionMembers: make(map[poll.SessionID]Set),
	}
}

// GetSinksForSession resolves the sinks listening to a session, skipping those
// owned by except so a writer is never notified of its own change.
// Returns nil if nobody listens to the session.
func (r *Registry) GetSinksForSession(sessionID poll.SessionID, except string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.SessionMembers[sessionID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for subscriptionID := range members {
		sub, exists := r.Subscriptions[subscriptionID]
		if !exists || (except != "" && sub.Owner == except) {
			continue
		}
		activeSinks = append(activeSinks, sub.Sink)
	}
	return activeSinks
}

// Subscribe registers a subscription. Re-subscribing with the same id replaces it.
func (r *Registry) Subscribe(sub contract.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.Subscriptions[sub.ID]; ok {
		r.removeMember(previous)
	}
	r.Subscriptions[sub.ID] = sub

	if _, ok := r.SessionMembers[sub.Session]; !ok {
		r.SessionMembers[sub.Session] = make(Set)
	}
	r.SessionMembers[sub.Session][sub.ID] = struct{}{}
}

// Unsubscribe removes a subscription and leaves no empty session set behind.
func (r *Registry) Unsubscribe(subscriptionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.Subscriptions[subscriptionID]
	if !ok {
		return
	}
	delete(r.Subscriptions, subscriptionID)
	r.removeMember(sub)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Subscriptions)
}

func (r *Registry) removeMember(sub contract.Subscription) {
	if members, ok := r.SessionMembers[sub.Session]; ok {
		delete(members, sub.ID)
		if len(members) == 0 {
			delete(r.SessionMembers, sub.Session)
		}
	}
}
