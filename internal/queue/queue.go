package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/unclebandit/opsboard-backend/internal/model"
)

// TopicOperationChanges carries model.OperationChange events.
const TopicOperationChanges = "operation_changes"

var ErrNoSubscribers = errors.New("no subscribers for topic")

// Handler processes one payload. A returned error triggers a retry.
type Handler func(payload any) error

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler Handler) (unsubscribe func(), error error)
}

// InMemoryQueue delivers to in-process subscribers with retry
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string]map[int]Handler
	nextID     int
	MaxRetries int
	Backoff    time.Duration
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string]map[int]Handler),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := make([]Handler, 0, len(q.handlers[topic]))
	for _, h := range q.handlers[topic] {
		handlers = append(handlers, h)
	}
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("%w %s", ErrNoSubscribers, topic)
	}

	for _, handler := range handlers {
		job := JobPayload{Topic: topic, Payload: payload, MaxRetries: q.MaxRetries}
		go q.processJob(handler, job)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler Handler, job JobPayload) {
	for {
		err := handler(job.Payload)
		if err == nil {
			return
		}

		job.RetryCount++
		entry := log.WithFields(log.Fields{"topic": job.Topic, "attempt": job.RetryCount, "max_retries": job.MaxRetries})
		if job.RetryCount > job.MaxRetries {
			entry.WithError(err).Error("job permanently failed")
			return
		}
		entry.WithError(err).Warn("job failed, retrying")

		// Linear backoff before retry
		time.Sleep(time.Duration(job.RetryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.handlers[topic] == nil {
		q.handlers[topic] = make(map[int]Handler)
	}
	id := q.nextID
	q.nextID++
	q.handlers[topic][id] = handler

	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.handlers[topic], id)
	}, nil
}

// DecodeChange accepts an OperationChange as delivered by either queue implementation.
func DecodeChange(payload any) (model.OperationChange, error) {
	switch v := payload.(type) {
	case model.OperationChange:
		return v, nil
	case *model.OperationChange:
		return *v, nil
	case []byte:
		var c model.OperationChange
		err := json.Unmarshal(v, &c)
		return c, err
	}
	return model.OperationChange{}, fmt.Errorf("unexpected change payload %T", payload)
}

// Tee publishes to a local queue and a remote one, and subscribes locally.
// In-process subscribers (SSE clients) get every event while remote consumers
// keep their own delivery semantics.
type Tee struct {
	Local  *InMemoryQueue
	Remote Queue
}

func (t *Tee) Publish(topic string, payload any) error {
	if err := t.Local.Publish(topic, payload); err != nil && !errors.Is(err, ErrNoSubscribers) {
		return err
	}
	return t.Remote.Publish(topic, payload)
}

func (t *Tee) Subscribe(topic string, handler Handler) (func(), error) {
	return t.Local.Subscribe(topic, handler)
}
