package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

const (
	dispatchQueueName   = "campaign_dispatch"
	maxDeliveryAttempts = 3
)

// AMQPQueue carries dispatch jobs over RabbitMQ so the worker binary can run
// dispatch passes out of the API server's process.
type AMQPQueue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPQueue(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		dispatchQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	return &AMQPQueue{conn: conn, channel: ch}, nil
}

func (q *AMQPQueue) Publish(ctx context.Context, job DispatchJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.channel.Publish(
		"",
		dispatchQueueName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (q *AMQPQueue) Subscribe(handler func(ctx context.Context, job DispatchJob) error) error {
	msgs, err := q.channel.Consume(
		dispatchQueueName,
		"",
		false, // manual ack for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			var job DispatchJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				d.Ack(false) // malformed, drop
				continue
			}

			if err := handler(context.Background(), job); err != nil {
				// A plain Nack requeue keeps the original headers, so the
				// attempt count would never grow. Republishing with the
				// incremented header is what makes the cap bite.
				if headers, retry := retryHeaders(d.Headers); retry {
					q.channel.Publish("", dispatchQueueName, false, false, amqp.Publishing{
						ContentType: "application/json",
						Body:        d.Body,
						Headers:     headers,
					})
				}
			}
			d.Ack(false)
		}
	}()
	return nil
}

// retryHeaders returns the headers for the next delivery attempt and whether
// the job has attempts left. Brokers hand integer headers back as int32 or
// int64 depending on value, so both are accepted.
func retryHeaders(h amqp.Table) (amqp.Table, bool) {
	var attempts int64
	switch v := h["x-retry-count"].(type) {
	case int32:
		attempts = int64(v)
	case int64:
		attempts = v
	}
	if attempts >= maxDeliveryAttempts {
		return nil, false
	}
	return amqp.Table{"x-retry-count": attempts + 1}, true
}

func (q *AMQPQueue) Close() error {
	q.channel.Close()
	return q.conn.Close()
}

var _ Queue = (*AMQPQueue)(nil)
