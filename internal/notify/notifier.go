// Package notify provides the in-process assignment event channel. The
// notifier is an injected instance, not a package-level registry, so tests
// and callers control its lifetime.
package notify

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/lead-router/internal/model"
)

// Handler receives every event published on a subscribed topic.
type Handler func(event model.AssignmentEvent)

type subscription struct {
	id      int
	handler Handler
}

// Notifier is a named-topic publish/subscribe channel. Delivery is
// synchronous and in registration order; a panicking handler does not stop
// delivery to the handlers behind it.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	topics map[string][]subscription
}

// New creates an empty Notifier.
func New() *Notifier {
	return &Notifier{topics: make(map[string][]subscription)}
}

// Subscribe registers handler for topic and returns an unsubscribe func.
// Unsubscribing twice is a no-op.
func (n *Notifier) Subscribe(topic string, handler Handler) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.topics[topic] = append(n.topics[topic], subscription{id: id, handler: handler})

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		subs := n.topics[topic]
		for i, s := range subs {
			if s.id == id {
				n.topics[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers event to every subscriber of topic, in registration
// order. The handler list is snapshotted first, so a handler that
// subscribes or unsubscribes takes effect from the next publish.
func (n *Notifier) Publish(topic string, event model.AssignmentEvent) {
	n.mu.Lock()
	subs := make([]subscription, len(n.topics[topic]))
	copy(subs, n.topics[topic])
	n.mu.Unlock()

	for _, s := range subs {
		deliver(topic, s, event)
	}
}

// SubscriberCount returns the number of live subscriptions on topic.
func (n *Notifier) SubscriberCount(topic string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.topics[topic])
}

func deliver(topic string, s subscription, event model.AssignmentEvent) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("notify: subscriber panicked",
				zap.String("topic", topic),
				zap.String("lead_id", event.LeadID),
				zap.Any("panic", r),
			)
		}
	}()
	s.handler(event)
}
