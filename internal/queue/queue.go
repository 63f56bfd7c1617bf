package queue

import (
	"sync"

	"go.uber.org/zap"

	"github.com/tillpoint/messaging-backend/internal/logger"
)

// Queue is the minimal pub/sub surface the services need. Publishing is
// best-effort; callers that only want an audit trail ignore the error.
type Queue interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func(payload []byte) error) error
}

// InMemoryQueue dispatches published payloads to in-process subscribers.
// Used in tests and when no AMQP broker is configured.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload []byte) error
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload []byte) error),
	}
}

// Publish delivers the payload synchronously to every subscriber.
// A topic with no subscribers is a no-op, matching the broker behavior
// of publishing into an unbound queue.
func (q *InMemoryQueue) Publish(topic string, payload []byte) error {
	q.mu.Lock()
	handlers := append([]func([]byte) error(nil), q.handlers[topic]...)
	q.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(payload); err != nil {
			logger.L().Warn("in-memory handler failed",
				zap.String("topic", topic), zap.Error(err))
		}
	}
	return nil
}

func (q *InMemoryQueue) Subscribe(topic string, handler func(payload []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}
