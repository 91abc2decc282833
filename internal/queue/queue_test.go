package queue

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/opsboard-backend/internal/model"
)

func TestPublishWithoutSubscribers(t *testing.T) {
	q := NewInMemoryQueue()
	err := q.Publish(TopicOperationChanges, 1)
	assert.ErrorIs(t, err, ErrNoSubscribers)
}

func TestPublishDeliversToEverySubscriber(t *testing.T) {
	q := NewInMemoryQueue()

	var wg sync.WaitGroup
	wg.Add(2)
	var got atomic.Int32
	handler := func(payload any) error {
		defer wg.Done()
		got.Add(int32(payload.(int)))
		return nil
	}
	_, err := q.Subscribe("t", handler)
	require.NoError(t, err)
	_, err = q.Subscribe("t", handler)
	require.NoError(t, err)

	require.NoError(t, q.Publish("t", 5))
	wg.Wait()
	assert.Equal(t, int32(10), got.Load())
}

func TestRetryThenSucceed(t *testing.T) {
	q := NewInMemoryQueue()
	q.Backoff = time.Millisecond

	var attempts atomic.Int32
	done := make(chan struct{})
	_, err := q.Subscribe("t", func(payload any) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, q.Publish("t", "x"))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never succeeded")
	}
	assert.Equal(t, int32(3), attempts.Load())
}

func TestUnsubscribe(t *testing.T) {
	q := NewInMemoryQueue()
	unsubscribe, err := q.Subscribe("t", func(any) error { return nil })
	require.NoError(t, err)

	unsubscribe()
	assert.ErrorIs(t, q.Publish("t", 1), ErrNoSubscribers)
}

func TestDecodeChange(t *testing.T) {
	want := model.OperationChange{EntityID: 2, OperationID: 9, Action: model.ChangeArchived}

	got, err := DecodeChange(want)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = DecodeChange([]byte(`{"entity_id":2,"operation_id":9,"action":"archived"}`))
	require.NoError(t, err)
	assert.Equal(t, want.EntityID, got.EntityID)
	assert.Equal(t, want.Action, got.Action)

	_, err = DecodeChange(42)
	assert.Error(t, err)
}

func TestRetryCountHeader(t *testing.T) {
	assert.Equal(t, int32(0), retryCount(nil))
	assert.Equal(t, int32(2), retryCount(amqp.Table{retryHeader: int32(2)}))
	assert.Equal(t, int32(3), retryCount(amqp.Table{retryHeader: int64(3)}))
}

type recordingQueue struct {
	mu        sync.Mutex
	published []any
}

func (r *recordingQueue) Publish(topic string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, payload)
	return nil
}

func (r *recordingQueue) Subscribe(topic string, handler Handler) (func(), error) {
	return nil, errors.New("not supported")
}

func TestTeePublishesBothWays(t *testing.T) {
	remote := &recordingQueue{}
	tee := &Tee{Local: NewInMemoryQueue(), Remote: remote}

	// no local subscriber yet: remote still receives it
	require.NoError(t, tee.Publish("t", 1))

	got := make(chan any, 1)
	_, err := tee.Subscribe("t", func(p any) error { got <- p; return nil })
	require.NoError(t, err)
	require.NoError(t, tee.Publish("t", 2))

	select {
	case p := <-got:
		assert.Equal(t, 2, p)
	case <-time.After(time.Second):
		t.Fatal("local subscriber not called")
	}
	assert.Equal(t, []any{1, 2}, remote.published)
}
