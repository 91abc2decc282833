package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

const retryHeader = "x-retry-count"

// AMQPQueue publishes JSON messages to one durable RabbitMQ queue per topic.
// Subscribers receive the raw JSON body as []byte.
type AMQPQueue struct {
	conn       *amqp.Connection
	mu         sync.Mutex
	ch         *amqp.Channel
	declared   map[string]bool
	MaxRetries int
}

func DialAMQP(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch, declared: map[string]bool{}, MaxRetries: 3}, nil
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.ch.Close(); err != nil {
		log.WithError(err).Warn("closing amqp channel")
	}
	return q.conn.Close()
}

// declare must be called with q.mu held
func (q *AMQPQueue) declare(topic string) error {
	if q.declared[topic] {
		return nil
	}
	_, err := q.ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", topic, err)
	}
	q.declared[topic] = true
	return nil
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return q.publish(topic, body, 0)
}

func (q *AMQPQueue) publish(topic string, body []byte, retries int32) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.declare(topic); err != nil {
		return err
	}
	return q.ch.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{retryHeader: retries},
		Body:         body,
	})
}

// Subscribe consumes topic with manual acks. A failed delivery is republished
// with an incremented retry header until MaxRetries, then dropped.
func (q *AMQPQueue) Subscribe(topic string, handler Handler) (func(), error) {
	tag := "opsboard-" + uuid.NewString()

	q.mu.Lock()
	if err := q.declare(topic); err != nil {
		q.mu.Unlock()
		return nil, err
	}
	msgs, err := q.ch.Consume(
		topic,
		tag,
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	q.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			q.deliver(topic, handler, d)
		}
	}()

	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if err := q.ch.Cancel(tag, false); err != nil {
			log.WithError(err).WithField("consumer", tag).Warn("failed to cancel consumer")
		}
	}, nil
}

func (q *AMQPQueue) deliver(topic string, handler Handler, d amqp.Delivery) {
	err := handler(d.Body)
	if err == nil {
		d.Ack(false)
		return
	}

	retries := retryCount(d.Headers)
	entry := log.WithFields(log.Fields{"topic": topic, "attempt": retries + 1})
	if int(retries) < q.MaxRetries {
		if perr := q.publish(topic, d.Body, retries+1); perr != nil {
			entry.WithError(perr).Error("failed to requeue message")
			d.Nack(false, true)
			return
		}
		entry.WithError(err).Warn("job failed, requeued")
	} else {
		entry.WithError(err).Error("job permanently failed")
	}
	d.Ack(false)
}

func retryCount(h amqp.Table) int32 {
	switch v := h[retryHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	}
	return 0
}

var (
	_ Queue = (*InMemoryQueue)(nil)
	_ Queue = (*AMQPQueue)(nil)
	_ Queue = (*Tee)(nil)
)
